// Command idxcrypt encrypts and decrypts files with a password.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/idxcrypt/internal/commands"
	"github.com/idelchi/idxcrypt/internal/config"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var cfg config.Config

	root := commands.NewRootCommand(&cfg, version)

	err := root.ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, cobraext.ErrExitGracefully) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		os.Exit(1)
	}
}
