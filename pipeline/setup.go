package pipeline

import (
	"context"
	"fmt"

	"github.com/gurre/files2cache/aws"
	"github.com/gurre/files2cache/cache"
	"github.com/gurre/files2cache/config"
	"github.com/gurre/files2cache/folders"
	"github.com/gurre/files2cache/metrics"
	"github.com/gurre/files2cache/qa"
	"github.com/gurre/files2cache/store"
	"github.com/rs/zerolog"
)

// Build creates the store and cache clients described by cfg and returns a
// ready Pipeline together with a function releasing the clients. With dryRun
// the cache is replaced by a no-op publisher.
func Build(ctx context.Context, cfg *config.Config, dryRun bool, log zerolog.Logger) (*Pipeline, func() error, error) {
	bucket, err := NewBucket(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var publisher cache.Publisher
	if dryRun || !cfg.CacheEnabled() {
		publisher = cache.NewNoopPublisher(log)
	} else {
		publisher, err = cache.NewRedisPublisher(ctx, cache.RedisConfig{
			Addrs:     cfg.RedisAddrs,
			Password:  cfg.RedisPassword,
			Cluster:   cfg.RedisCluster,
			KeyPrefix: cfg.CacheKeyPrefix,
			TTL:       cfg.CacheTTL,
			BatchSize: cfg.CacheBatchSize,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
	}

	return NewFromConfig(cfg, bucket, publisher, log), publisher.Close, nil
}

// NewFromConfig assembles a Pipeline over existing clients: the folder gate,
// the QA extractor and no-op processors for cw3/ and eq3/.
func NewFromConfig(cfg *config.Config, bucket store.Bucket, publisher cache.Publisher, log zerolog.Logger) *Pipeline {
	m := metrics.NewMetrics()
	gate := folders.NewGate(bucket, log)
	extractor := qa.NewExtractor(bucket, gate, qa.NewJSONDecoder(), m, log)
	processors := []Processor{
		NewStubProcessor("cw3", folders.CW3, log),
		NewStubProcessor("eq3", folders.EQ3, log),
	}

	return New(Options{
		QAFiles:   cfg.QAFiles(),
		ReportKey: cfg.ReportKey,
	}, bucket, gate, extractor, processors, publisher, m, log)
}

// NewBucket opens the object store selected by cfg.StoreBackend.
func NewBucket(ctx context.Context, cfg *config.Config) (store.Bucket, error) {
	switch cfg.StoreBackend {
	case config.BackendMinio:
		return store.NewMinioBucket(store.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Bucket:    cfg.BucketName,
			UseSSL:    cfg.S3UseSSL,
		})
	case config.BackendS3, "":
		awsCfg, err := aws.LoadConfig(ctx, aws.Credentials{
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
		})
		if err != nil {
			return nil, err
		}
		return store.NewS3Bucket(aws.NewS3FromConfig(awsCfg, cfg.S3Endpoint), cfg.BucketName), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
