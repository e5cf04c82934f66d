package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/logger"
	"github.com/idelchi/idxcrypt/internal/pbkdf2"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version)

	root.Use = "idxcrypt [flags] command [flags]"
	root.Short = "Password-based file encryption"
	root.Long = `Encrypts and decrypts files and directory trees with AES-256-CBC.
The key is derived from a password with PBKDF2-HMAC, using a random salt and IV per file.
Encrypted files carry the .idx extension.

Every flag can also be set through the environment as IDXCRYPT_<FLAG>,
for example IDXCRYPT_PASSWORD or IDXCRYPT_PASSWORD_FILE.`

	hash := digest.Default

	flags := root.PersistentFlags()

	flags.StringP("password", "p", "", "Password (prefer --password-file or the prompt)")
	flags.String("password-file", "", "Read the password from the first line of a file")
	flags.Var(&hash, "hash", "PBKDF2 hash: "+strings.Join(digest.Names(), ", "))
	flags.Int("iterations", pbkdf2.DefaultIterations, "PBKDF2 iterations")

	flags.StringP("output", "o", "", "Write outputs under this directory, mirroring the input tree")
	flags.IntP("parallel", "j", 1, "Number of files processed concurrently")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.Bool("delete", false, "Delete the original file after successful encryption/decryption")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of each input to its output")

	flags.StringSlice("include", nil, "Only process files matching these patterns (find -path syntax)")
	flags.StringSlice("exclude", nil, "Skip files matching these patterns (find -path syntax)")
	flags.String("include-from", "", "Read include patterns from a file (JSONC array or one per line)")
	flags.String("exclude-from", "", "Read exclude patterns from a file (JSONC array or one per line)")

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.Bool("dry", false, "List what would be processed and exit")
	flags.Bool("stats", false, "Print statistics when done")
	flags.Bool("no-selftest", false, "Skip the known-answer self-test before processing")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", logger.FormatHuman, "Log format: human or json")

	root.AddCommand(
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewSelftestCommand(cfg),
		NewCheckCommand(cfg),
	)

	return root
}
