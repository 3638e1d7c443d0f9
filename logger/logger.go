// Package logger builds the zerolog root logger for the sync job.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New returns a logger writing to w in the given format ("json" or
// "console") at the given level. An unknown level falls back to info and
// is reported through the returned logger.
func New(w io.Writer, format, level string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	log := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "files2cache").
		Logger()

	if err != nil {
		log.Warn().Str("level", level).Msg("invalid log level, defaulting to info")
	}

	return log
}

// Component derives a child logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
