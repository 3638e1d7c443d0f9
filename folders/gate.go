// Package folders verifies that the bucket holds the folders a sync run
// depends on before any file is read.
package folders

import (
	"context"
	"fmt"

	"github.com/gurre/files2cache/logger"
	"github.com/gurre/files2cache/store"
	"github.com/rs/zerolog"
)

// Folder prefixes, in the order they are checked.
const (
	QA  = "qa/"
	CW3 = "cw3/"
	EQ3 = "eq3/"
)

// Required lists every prefix that must hold at least one object.
var Required = []string{QA, CW3, EQ3}

// MissingFolderError is returned by Check when a required prefix is empty.
type MissingFolderError struct {
	Prefix string
}

func (e *MissingFolderError) Error() string {
	return fmt.Sprintf("folder %q does not exist, aborting processing", e.Prefix)
}

// EmptyFolderError is returned when a folder a processor reads from holds no
// objects.
type EmptyFolderError struct {
	Prefix string
}

func (e *EmptyFolderError) Error() string {
	return fmt.Sprintf("no files found in the %q folder", e.Prefix)
}

// Gate probes the bucket for folder presence.
type Gate struct {
	bucket   store.Bucket
	prefixes []string
	log      zerolog.Logger
}

// NewGate creates a Gate checking the Required prefixes.
func NewGate(bucket store.Bucket, log zerolog.Logger) *Gate {
	return &Gate{
		bucket:   bucket,
		prefixes: Required,
		log:      logger.Component(log, "folders"),
	}
}

// Probe reports whether prefix holds at least one object. It costs one
// listing request bounded to a single key.
func (g *Gate) Probe(ctx context.Context, prefix string) (bool, error) {
	keys, err := g.bucket.List(ctx, prefix, 1)
	if err != nil {
		return false, fmt.Errorf("failed to probe folder %q: %w", prefix, err)
	}
	return len(keys) > 0, nil
}

// Check probes every required prefix in order and fails with a
// MissingFolderError on the first empty one.
func (g *Gate) Check(ctx context.Context) error {
	for _, prefix := range g.prefixes {
		ok, err := g.Probe(ctx, prefix)
		if err != nil {
			return err
		}
		if !ok {
			g.log.Error().Str("bucket", g.bucket.Name()).Str("prefix", prefix).Msg("required folder is missing")
			return &MissingFolderError{Prefix: prefix}
		}
	}

	g.log.Debug().Strs("prefixes", g.prefixes).Msg("all required folders present")
	return nil
}

// RequireNonEmpty returns an EmptyFolderError when prefix holds no objects.
func (g *Gate) RequireNonEmpty(ctx context.Context, prefix string) error {
	ok, err := g.Probe(ctx, prefix)
	if err != nil {
		return err
	}
	if !ok {
		return &EmptyFolderError{Prefix: prefix}
	}
	return nil
}
