// Package logging wraps zerolog the way jhkimqd-chaos-utils's
// pkg/reporting/logger.go does: a small Config (level, format, output) and
// a constructor producing a ready-to-use zerolog.Logger, here additionally
// stamped with the run's setup/run_id so every log line across every slot
// goroutine carries the context needed to tell runs apart in aggregated
// log output.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is the closed set of configurable log levels.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects console (human-readable) or JSON output.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures New.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Setup  string
	RunID  string
}

// New builds a zerolog.Logger per cfg, with setup/run_id fields attached so
// downstream log aggregation can filter to one run.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Str("setup", cfg.Setup).Str("run_id", cfg.RunID).Logger()

	switch cfg.Level {
	case LevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LevelWarn:
		logger = logger.Level(zerolog.WarnLevel)
	case LevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}
