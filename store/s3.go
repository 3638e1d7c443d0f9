package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gurre/files2cache/aws"
)

var _ Bucket = (*S3Bucket)(nil)

// S3Bucket implements Bucket on top of the AWS S3 API.
//
// Example:
//
//	client := aws.NewS3Client(s3.NewFromConfig(cfg))
//	bucket := store.NewS3Bucket(client, "my-bucket")
//	data, err := bucket.Get(ctx, "qa/domains.json")
type S3Bucket struct {
	client aws.S3Client
	bucket string
}

// NewS3Bucket creates a new S3Bucket bound to bucket.
func NewS3Bucket(client aws.S3Client, bucket string) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket}
}

// Name returns the bucket name.
func (b *S3Bucket) Name() string {
	return b.bucket
}

// List issues a single ListObjectsV2 request; continuation tokens are not
// followed.
func (b *S3Bucket) List(ctx context.Context, prefix string, limit int32) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: &b.bucket,
		Prefix: &prefix,
	}
	if limit > 0 {
		input.MaxKeys = awssdk.Int32(limit)
	}

	resp, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", b.bucket, prefix, err)
	}

	keys := make([]string, 0, len(resp.Contents))
	for _, obj := range resp.Contents {
		if obj.Key == nil {
			continue
		}
		keys = append(keys, *obj.Key)
	}
	return keys, nil
}

// Get reads the whole object. Missing keys are reported as ErrNotFound.
func (b *S3Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", b.bucket, key, ErrNotFound)
		}
		// Some S3-compatible stores answer NotFound instead
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("s3://%s/%s: %w", b.bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", b.bucket, key, err)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("response body for s3://%s/%s is nil", b.bucket, key)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", b.bucket, key, err)
	}
	return data, nil
}

// Put writes data as a single PutObject request.
func (b *S3Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = awssdk.String(contentType)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", b.bucket, key, err)
	}
	return nil
}
