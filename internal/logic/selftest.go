package logic

import (
	"fmt"
	"time"

	"github.com/idelchi/idxcrypt/internal/selftest"
)

// RunSelftest runs the known-answer checks and prints one line per check unless quiet.
func RunSelftest(env Env, quiet bool) error {
	env.defaults()

	report, err := selftest.Run()

	for _, check := range report.Checks {
		switch {
		case check.Err != nil:
			fmt.Fprintf(env.Stderr, "FAIL %-6s %s: %v\n", check.Kind, check.Name, check.Err)
		case !quiet:
			fmt.Fprintf(env.Stdout, "ok   %-6s %s\n", check.Kind, check.Name)
		}
	}

	if err != nil {
		return fmt.Errorf("running self-test: %w", err)
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "\n%d checks passed in %s\n", len(report.Checks), report.Duration.Round(time.Millisecond))
	}

	return nil
}
