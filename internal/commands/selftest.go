package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/logic"
)

// NewSelftestCommand creates a new cobra command running the known-answer checks.
func NewSelftestCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Verify hashes, HMAC, PBKDF2 and AES against published test vectors",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return cobraext.Validate(cfg)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(cfg, func(env logic.Env) error {
				return logic.RunSelftest(env, cfg.Quiet)
			})
		},
	}
}
