// Package aws holds the AWS service abstractions used by the sync job. It
// provides the narrow client interfaces the rest of the module depends on so
// that tests can substitute in-memory fakes for the SDK clients.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client defines the subset of S3 operations the sync job needs.
// It covers the bounded folder probe, reading domain-value files and
// uploading the run report.
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time interface checks to ensure implementations satisfy interfaces
var (
	_ S3Client = (*S3ClientImpl)(nil)

	// AWS SDK interface check to ensure the SDK client satisfies the interface
	_ S3Client = (*s3.Client)(nil)
)
