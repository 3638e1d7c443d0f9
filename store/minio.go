package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ Bucket = (*MinioBucket)(nil)

// MinioConfig holds the connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string // host:port, without scheme
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// MinioBucket implements Bucket for MinIO and other S3-compatible services.
type MinioBucket struct {
	client *minio.Client
	bucket string
}

// NewMinioBucket connects to the endpoint described by cfg. No request is
// made until the first operation.
func NewMinioBucket(cfg MinioConfig) (*MinioBucket, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioBucket{client: client, bucket: cfg.Bucket}, nil
}

// Name returns the bucket name.
func (b *MinioBucket) Name() string {
	return b.bucket
}

// List returns up to limit keys under prefix.
func (b *MinioBucket) List(ctx context.Context, prefix string, limit int32) ([]string, error) {
	// Cancelling stops the listing goroutine once enough keys were read
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	if limit > 0 {
		opts.MaxKeys = int(limit)
	}

	var keys []string
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", b.bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
		if limit > 0 && len(keys) >= int(limit) {
			break
		}
	}
	return keys, nil
}

// Get reads the whole object. Missing keys are reported as ErrNotFound.
func (b *MinioBucket) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, b.wrapGetError(key, err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; errors such as NoSuchKey surface on first read
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, b.wrapGetError(key, err)
	}
	return data, nil
}

// Put uploads data in one request.
func (b *MinioBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", b.bucket, key, err)
	}
	return nil
}

func (b *MinioBucket) wrapGetError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s/%s: %w", b.bucket, key, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s/%s: %w", b.bucket, key, err)
}
