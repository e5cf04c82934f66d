// Package logger builds the structured logger used for diagnostics.
// Per-file results and progress are printed to stdout separately; the logger writes to stderr.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported log formats.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

// Config contains configuration for the logger.
type Config struct {
	Debug  bool      // Enable debug level logging
	Format string    // "json" or "human"
	Output io.Writer // Defaults to os.Stderr
}

// New builds a sugared logger. Every entry carries a "run" field unique to the invocation.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config

	switch cfg.Format {
	case FormatJSON:
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case FormatHuman, "":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level := zap.InfoLevel
	if cfg.Debug {
		level = zap.DebugLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(zapConfig.EncoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(zapConfig.EncoderConfig)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), zap.NewAtomicLevelAt(level))

	return zap.New(core).Sugar().With("run", uuid.NewString()), nil
}
