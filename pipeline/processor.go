package pipeline

import (
	"context"

	"github.com/gurre/files2cache/logger"
	"github.com/rs/zerolog"
)

// Processor handles one folder of the bucket and returns its extracted
// values keyed by name.
type Processor interface {
	Name() string
	Process(ctx context.Context) (map[string][]string, error)
}

var _ Processor = (*StubProcessor)(nil)

// StubProcessor stands in for folders that have no processing logic yet.
// It only logs and returns an empty result.
type StubProcessor struct {
	name   string
	prefix string
	log    zerolog.Logger
}

// NewStubProcessor creates a StubProcessor for the folder at prefix
func NewStubProcessor(name, prefix string, log zerolog.Logger) *StubProcessor {
	return &StubProcessor{
		name:   name,
		prefix: prefix,
		log:    logger.Component(log, name),
	}
}

// Name returns the folder name
func (s *StubProcessor) Name() string {
	return s.name
}

// Process returns an empty result
func (s *StubProcessor) Process(ctx context.Context) (map[string][]string, error) {
	s.log.Info().Str("prefix", s.prefix).Msgf("Processing '%s' folder...", s.name)
	return map[string][]string{}, nil
}
