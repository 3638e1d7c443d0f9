package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is an in-memory implementation of aws.S3Client for testing
type S3Client struct {
	mu sync.Mutex
	// Maps bucket/key to file content
	Files map[string][]byte
	// Maps bucket/key to content type
	ContentTypes map[string]string
	// Calls counts requests per operation name
	Calls map[string]int
	// Base directory for test files
	TestDataDir string
}

// NewS3Client creates a new mock S3 client
func NewS3Client(testDataDir string) *S3Client {
	return &S3Client{
		Files:        make(map[string][]byte),
		ContentTypes: make(map[string]string),
		Calls:        make(map[string]int),
		TestDataDir:  testDataDir,
	}
}

// LoadTestFiles copies every file below TestDataDir into bucket, using the
// slash-separated relative path as the object key.
func (m *S3Client) LoadTestFiles(bucket string) error {
	if _, err := os.Stat(m.TestDataDir); os.IsNotExist(err) {
		return fmt.Errorf("test data directory does not exist: %s", m.TestDataDir)
	}

	return filepath.Walk(m.TestDataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(m.TestDataDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		m.AddFile(bucket, filepath.ToSlash(rel), data)
		return nil
	})
}

// AddFile stores content under bucket/key
func (m *S3Client) AddFile(bucket, key string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[bucket+"/"+key] = content
}

// ListObjectsV2 returns the keys under the requested prefix in lexical order,
// honouring MaxKeys.
func (m *S3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["ListObjectsV2"]++

	bucketPrefix := aws.ToString(params.Bucket) + "/"
	prefix := bucketPrefix + aws.ToString(params.Prefix)

	var keys []string
	for k := range m.Files {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, bucketPrefix))
		}
	}
	sort.Strings(keys)

	truncated := false
	if params.MaxKeys != nil && *params.MaxKeys > 0 && int(*params.MaxKeys) < len(keys) {
		keys = keys[:*params.MaxKeys]
		truncated = true
	}

	contents := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		size := int64(len(m.Files[bucketPrefix+k]))
		contents = append(contents, types.Object{Key: aws.String(k), Size: &size})
	}

	return &s3.ListObjectsV2Output{
		Contents:    contents,
		KeyCount:    aws.Int32(int32(len(contents))),
		IsTruncated: aws.Bool(truncated),
	}, nil
}

// GetObject implements the S3Client interface for reading objects
func (m *S3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["GetObject"]++

	bucketKey := fmt.Sprintf("%s/%s", aws.ToString(params.Bucket), aws.ToString(params.Key))
	content, ok := m.Files[bucketKey]
	if !ok {
		return nil, &types.NoSuchKey{
			Message: aws.String(fmt.Sprintf("The specified key does not exist: %s", aws.ToString(params.Key))),
		}
	}

	contentLength := int64(len(content))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(content)),
		ContentLength: &contentLength,
	}, nil
}

// PutObject implements the S3Client interface for writing objects
func (m *S3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["PutObject"]++

	bucketKey := fmt.Sprintf("%s/%s", aws.ToString(params.Bucket), aws.ToString(params.Key))
	m.Files[bucketKey] = data
	m.ContentTypes[bucketKey] = aws.ToString(params.ContentType)

	etag := fmt.Sprintf("\"%x\"", len(data))
	return &s3.PutObjectOutput{
		ETag: aws.String(etag),
	}, nil
}
