// Command files2cache syncs QA domain codes from the object store into the
// cache. Inside AWS Lambda it serves scheduled events; elsewhere it is a small
// CLI that triggers the same handler.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	json "github.com/goccy/go-json"
	"github.com/gurre/files2cache/config"
	"github.com/gurre/files2cache/folders"
	"github.com/gurre/files2cache/handler"
	"github.com/gurre/files2cache/logger"
	"github.com/gurre/files2cache/pipeline"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		// The logger is built once per cold start; each invocation reloads
		// its own configuration in ConfigSetup.
		cfg, err := config.Load()
		log := newLogger(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read logging configuration")
		}
		log.Info().Str("function", fn).Msg("invoked as lambda")
		lambda.Start(handler.New(handler.ConfigSetup(false, log), log).Handle)
		return
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "files2cache",
		Usage: "Publish QA domain codes from the bucket to the cache",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment files loaded before reading configuration (default .env)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one sync as if triggered by the schedule",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:   "time",
						Usage:  "Event time in RFC 3339 (default now)",
						Layout: time.RFC3339,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Read and extract without writing to the cache",
					},
				},
				Action: runSync,
			},
			{
				Name:   "check",
				Usage:  "Verify that the qa/, cw3/ and eq3/ folders exist",
				Action: runCheck,
			},
		},
	}
}

func runSync(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	eventTime := time.Now().UTC()
	if t := c.Timestamp("time"); t != nil {
		eventTime = *t
	}

	payload, err := scheduledEvent(eventTime)
	if err != nil {
		return err
	}

	h := handler.New(handler.FromConfig(cfg, c.Bool("dry-run"), log), log)
	_, err = h.Handle(c.Context, payload)
	return err
}

func runCheck(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	bucket, err := pipeline.NewBucket(c.Context, cfg)
	if err != nil {
		return err
	}
	if err := folders.NewGate(bucket, log).Check(c.Context); err != nil {
		return err
	}
	log.Info().Str("bucket", bucket.Name()).Msg("All folders exist.")
	return nil
}

// scheduledEvent builds the payload EventBridge sends for a scheduled rule.
func scheduledEvent(t time.Time) (json.RawMessage, error) {
	event := events.CloudWatchEvent{
		Version:    "0",
		ID:         fmt.Sprintf("local-%d", t.UnixNano()),
		DetailType: "Scheduled Event",
		Source:     "files2cache.local",
		Time:       t,
		Resources:  []string{},
		Detail:     []byte("{}"),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

// newLogger builds the root logger from LOG_LEVEL and LOG_FORMAT. A nil cfg
// gives JSON at info level.
func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg == nil {
		return logger.New(os.Stdout, config.LogFormatJSON, "info")
	}
	return logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
}
