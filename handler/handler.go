// Package handler adapts the sync pipeline to scheduled Lambda invocations.
package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	json "github.com/goccy/go-json"
	"github.com/gurre/files2cache/config"
	"github.com/gurre/files2cache/logger"
	"github.com/gurre/files2cache/pipeline"
	"github.com/rs/zerolog"
)

// TimeField marks a payload as a scheduled trigger.
const TimeField = "time"

// ErrInvalidPayload is returned for payloads that are not a JSON object.
var ErrInvalidPayload = errors.New("payload must be a JSON object")

// Runner executes one sync.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Setup prepares a Runner for a single invocation. The returned function
// releases whatever clients the Runner holds.
type Setup func(ctx context.Context) (Runner, func() error, error)

// Handler is the Lambda entry point.
type Handler struct {
	setup Setup
	log   zerolog.Logger
}

// New creates a Handler that calls setup once per scheduled invocation.
func New(setup Setup, log zerolog.Logger) *Handler {
	return &Handler{
		setup: setup,
		log:   logger.Component(log, "handler"),
	}
}

// ConfigSetup returns a Setup that loads the configuration from the
// environment (and envFiles) on every invocation and builds the pipeline
// from it.
func ConfigSetup(dryRun bool, log zerolog.Logger, envFiles ...string) Setup {
	return func(ctx context.Context) (Runner, func() error, error) {
		cfg, err := config.Load(envFiles...)
		if err != nil {
			return nil, nil, err
		}
		return FromConfig(cfg, dryRun, log)(ctx)
	}
}

// FromConfig returns a Setup over an already loaded configuration. cfg is
// validated before any client is built.
func FromConfig(cfg *config.Config, dryRun bool, log zerolog.Logger) Setup {
	return func(ctx context.Context) (Runner, func() error, error) {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}

		p, closeFn, err := pipeline.Build(ctx, cfg, dryRun, log)
		if err != nil {
			return nil, nil, err
		}
		return p, closeFn, nil
	}
}

// Handle processes one invocation and returns the payload unchanged. Payloads
// without a time field are logged and ignored.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if fields == nil {
		return nil, ErrInvalidPayload
	}

	if _, ok := fields[TimeField]; !ok {
		h.log.Info().Msg("payload has no time field, skipping sync")
		return payload, nil
	}

	var event events.CloudWatchEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.log.Warn().Err(err).Msg("payload is not a scheduled event envelope")
	} else {
		h.log.Info().
			Str("id", event.ID).
			Str("source", event.Source).
			Str("detailType", event.DetailType).
			Time("time", event.Time).
			Msg("scheduled event received")
	}

	runner, closeFn, err := h.setup(ctx)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	defer func() {
		if closeFn == nil {
			return
		}
		if err := closeFn(); err != nil {
			h.log.Warn().Err(err).Msg("failed to release clients")
		}
	}()

	result, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	if name, codes, ok := result.QA.Last(); ok {
		h.log.Info().Str("name", name).Int("codes", len(codes)).Msg("last QA file extracted")
	}
	h.log.Info().
		Int("files", len(result.QA.Files)).
		Int("failed", len(result.QA.Errors)).
		Int("published", result.Published).
		Msg("sync finished")

	return payload, nil
}
