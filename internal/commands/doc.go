// Package commands provides the command-line interface for the idxcrypt tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//   - self-test
//   - include/exclude pattern checks
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through gogen's cobraext on top of cobra and viper.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/logger"
	"github.com/idelchi/idxcrypt/internal/logic"
)

// preRun returns a PreRunE handler that resolves positional args into cfg.Files,
// defaulting to the current directory, and validates the configuration.
func preRun(cfg *config.Config, decrypt bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.Decrypt = decrypt

		if len(args) == 0 {
			cfg.Files = []string{"."}
		} else {
			cfg.Files = args
		}

		return cobraext.Validate(cfg, cfg)
	}
}

// environment builds the logger and the run environment from cfg.
func environment(cfg *config.Config) (logic.Env, *zap.SugaredLogger, error) {
	log, err := logger.New(logger.Config{Debug: cfg.Debug, Format: cfg.LogFormat})
	if err != nil {
		return logic.Env{}, nil, fmt.Errorf("creating logger: %w", err)
	}

	return logic.DefaultEnv(log), log, nil
}

// run executes fn with a logger that is flushed afterwards.
func run(cfg *config.Config, fn func(env logic.Env) error) error {
	env, log, err := environment(cfg)
	if err != nil {
		return err
	}

	defer log.Sync() //nolint:errcheck // stderr sync fails on some terminals

	return fn(env)
}
