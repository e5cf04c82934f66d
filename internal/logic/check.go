package logic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/filter"
)

// ErrUnmatchedPatterns is returned by RunCheck when a pattern selects no file.
var ErrUnmatchedPatterns = errors.New("pattern(s) matched no files")

// RunCheck validates that every include/exclude pattern matches at least one file.
func RunCheck(cfg *config.Config, env Env) error {
	env.defaults()

	includes, excludes, err := loadPatterns(env.FS, cfg)
	if err != nil {
		return err
	}

	if len(includes) == 0 && len(excludes) == 0 {
		return errors.New("no include or exclude patterns to check")
	}

	candidates, err := collectFiles(env.FS, cfg.Files)
	if err != nil {
		return err
	}

	var failures int

	failures += checkPatterns(env, "include", includes, candidates, cfg.Quiet)
	failures += checkPatterns(env, "exclude", excludes, candidates, cfg.Quiet)

	if failures > 0 {
		return fmt.Errorf("%w: %d", ErrUnmatchedPatterns, failures)
	}

	return nil
}

// collectFiles walks all positional args and returns every file path found.
func collectFiles(fs afero.Fs, args []string) ([]string, error) {
	var paths []string

	seen := make(map[string]struct{})

	add := func(path string) {
		clean := filepath.ToSlash(filepath.Clean(path))
		if _, ok := seen[clean]; !ok {
			seen[clean] = struct{}{}
			paths = append(paths, clean)
		}
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := fs.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			add(arg)

			continue
		}

		err = afero.Walk(fs, arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if !info.IsDir() {
				add(path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	return paths, nil
}

// checkPatterns tests each pattern individually against candidates.
// Returns the number of patterns that matched zero files.
func checkPatterns(env Env, kind string, patterns, candidates []string, quiet bool) int {
	var failures int

	for _, pattern := range patterns {
		flt, err := filter.NewFilter([]string{pattern}, nil)
		if err != nil {
			fmt.Fprintf(env.Stderr, "%s: %s: invalid pattern: %v\n", kind, pattern, err)

			failures++

			continue
		}

		var count int

		for _, path := range candidates {
			if flt.Match(path, true) {
				count++
			}
		}

		if count == 0 {
			fmt.Fprintf(env.Stderr, "%s: %s: 0 files (ERROR)\n", kind, pattern)

			failures++
		} else if !quiet {
			fmt.Fprintf(env.Stdout, "%s: %s: %d files\n", kind, pattern, count)
		}
	}

	return failures
}
