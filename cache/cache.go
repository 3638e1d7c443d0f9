// Package cache publishes extracted domain codes to a distributed cache.
package cache

import (
	"context"
	"strings"

	"github.com/gurre/files2cache/logger"
	"github.com/rs/zerolog"
)

// Publisher writes code sequences keyed by file base name.
//
// Example:
//
//	n, err := publisher.Publish(ctx, "qa", map[string][]string{"domains": {"A", "B"}})
type Publisher interface {
	// Publish replaces the cached sequence of every entry in values under
	// namespace and returns how many non-empty lists were written.
	Publish(ctx context.Context, namespace string, values map[string][]string) (int, error)
	Close() error
}

// Key builds the cache key of one sequence: <prefix>:<namespace>:<name>.
// Empty segments are left out.
func Key(prefix, namespace, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, namespace, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

var _ Publisher = (*NoopPublisher)(nil)

// NoopPublisher discards everything. It is used when no cache is configured
// and for dry runs.
type NoopPublisher struct {
	log zerolog.Logger
}

// NewNoopPublisher creates a NoopPublisher
func NewNoopPublisher(log zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: logger.Component(log, "cache")}
}

// Publish logs what would have been written and returns zero keys
func (p *NoopPublisher) Publish(ctx context.Context, namespace string, values map[string][]string) (int, error) {
	p.log.Info().Str("namespace", namespace).Int("keys", len(values)).Msg("cache disabled, skipping publish")
	return 0, nil
}

// Close is a no-op
func (p *NoopPublisher) Close() error {
	return nil
}
