package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Credentials carries the static key pair and region used to reach the bucket.
type Credentials struct {
	AccessKey string
	SecretKey string
	Region    string
}

// LoadConfig builds an SDK configuration that authenticates with the given
// static credentials instead of the default provider chain.
func LoadConfig(ctx context.Context, creds Credentials) (awssdk.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		),
	)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewS3FromConfig creates an S3ClientImpl. A non-empty endpoint switches the
// client to path-style addressing against that endpoint (LocalStack and other
// S3-compatible stores).
func NewS3FromConfig(cfg awssdk.Config, endpoint string) *S3ClientImpl {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = awssdk.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Client(client)
}
