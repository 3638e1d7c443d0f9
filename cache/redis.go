package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gurre/files2cache/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ Publisher = (*RedisPublisher)(nil)

// RedisConfig holds the Redis publisher configuration.
type RedisConfig struct {
	// Addrs lists the seed nodes. Several addresses select cluster mode.
	Addrs []string
	// Password for Redis authentication (empty for no auth)
	Password string
	// Cluster forces cluster mode for a single configuration endpoint
	Cluster bool
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
	// TTL applied to every written key, zero keeps keys forever
	TTL time.Duration
	// BatchSize caps the number of codes sent in one RPUSH
	BatchSize int
}

// RedisPublisher stores each code sequence as a Redis list.
//
// Every key is replaced in one MULTI/EXEC transaction (DEL, RPUSH in chunks,
// EXPIRE) so readers never observe a half-written list. A key only ever
// touches one hash slot, which keeps the transaction valid in cluster mode.
type RedisPublisher struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	batchSize int
	log       zerolog.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection with PING.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, log zerolog.Logger) (*RedisPublisher, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	p := NewRedisPublisherWithClient(client, cfg, log)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return p, nil
}

// NewRedisPublisherWithClient wraps an existing client. cfg.Addrs, Password
// and Cluster are ignored.
func NewRedisPublisherWithClient(client redis.UniversalClient, cfg RedisConfig, log zerolog.Logger) *RedisPublisher {
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 500
	}
	return &RedisPublisher{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		batchSize: batchSize,
		log:       logger.Component(log, "cache"),
	}
}

func newClient(cfg RedisConfig) (redis.UniversalClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis address is required")
	}

	if cfg.Cluster || len(cfg.Addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		}), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addrs[0],
		Password: cfg.Password,
	}), nil
}

// Ping checks connectivity
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying connections
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Publish writes every sequence in name order and returns the number of
// non-empty lists written. An empty sequence only clears its key and is not
// counted. The first failing key aborts the publish; keys written before it
// stay in place.
func (p *RedisPublisher) Publish(ctx context.Context, namespace string, values map[string][]string) (int, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	published := 0
	for _, name := range names {
		key := Key(p.keyPrefix, namespace, name)
		if err := p.replace(ctx, key, values[name]); err != nil {
			return published, fmt.Errorf("failed to publish %s: %w", key, err)
		}
		if len(values[name]) == 0 {
			p.log.Info().Str("key", key).Msg("key cleared in cache")
			continue
		}
		published++
		p.log.Info().Str("key", key).Int("codes", len(values[name])).Msg("key created in cache")
	}

	return published, nil
}

func (p *RedisPublisher) replace(ctx context.Context, key string, codes []string) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for start := 0; start < len(codes); start += p.batchSize {
			end := start + p.batchSize
			if end > len(codes) {
				end = len(codes)
			}
			pipe.RPush(ctx, key, toArgs(codes[start:end])...)
		}
		if p.ttl > 0 && len(codes) > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
		return nil
	})
	return err
}

func toArgs(codes []string) []interface{} {
	args := make([]interface{}, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	return args
}
