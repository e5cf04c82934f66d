package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "decrypt [flags] [paths...]",
		Aliases: []string{"dec"},
		Short:   "Decrypt .idx files",
		Long: `Decrypt the given files, or every *.idx file below the given directories
(the current directory when none is given), stripping the .idx extension.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, true),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cfg, func(env logic.Env) error {
				return logic.Run(cmd.Context(), cfg, env)
			})
		},
	}
}
