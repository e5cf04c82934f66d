package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "encrypt [flags] paths...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files and directories",
		Long: `Encrypt every given file, and every file below each given directory,
into <name>.idx. Files that already end in .idx are encrypted in place.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: func(_ *cobra.Command, args []string) error {
			cfg.Decrypt = false
			cfg.Files = args

			return cobraext.Validate(cfg, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cfg, func(env logic.Env) error {
				return logic.Run(cmd.Context(), cfg, env)
			})
		},
	}
}
