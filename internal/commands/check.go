package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/logic"
)

// NewCheckCommand creates a new cobra command for the check subcommand.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "check [flags] [paths...]",
		Short:   "Validate that include/exclude patterns match files",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, false),
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(cfg, func(env logic.Env) error {
				return logic.RunCheck(cfg, env)
			})
		},
	}
}
