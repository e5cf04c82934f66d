// Package logic implements the core business logic for the encryption/decryption.
package logic

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/encryption"
	"github.com/idelchi/idxcrypt/internal/filter"
	"github.com/idelchi/idxcrypt/internal/secret"
	"github.com/idelchi/idxcrypt/internal/selftest"
)

// Env carries the collaborators of a run.
type Env struct {
	FS     afero.Fs
	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.SugaredLogger
	// Prompt asks for a password when neither flag, file nor environment supplied one.
	Prompt PromptFunc
	// Progress enables the live per-file progress line on Stderr.
	Progress bool
}

// DefaultEnv returns an environment bound to the OS filesystem and standard streams.
func DefaultEnv(log *zap.SugaredLogger) Env {
	return Env{
		FS:       afero.NewOsFs(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Log:      log,
		Prompt:   TerminalPrompt(os.Stdin, os.Stderr),
		Progress: IsTerminal(os.Stderr),
	}
}

func (e *Env) defaults() {
	if e.FS == nil {
		e.FS = afero.NewOsFs()
	}

	if e.Stdout == nil {
		e.Stdout = io.Discard
	}

	if e.Stderr == nil {
		e.Stderr = io.Discard
	}

	if e.Log == nil {
		e.Log = zap.NewNop().Sugar()
	}
}

// Run is the main logic of the application.
func Run(ctx context.Context, cfg *config.Config, env Env) error {
	env.defaults()

	start := time.Now()

	if !cfg.NoSelftest {
		report, err := selftest.Run()
		if err != nil {
			return fmt.Errorf("running self-test: %w", err)
		}

		env.Log.Debugw("self-test passed", "checks", len(report.Checks), "duration", report.Duration)
	}

	entries, scanned, err := resolveFiles(env.FS, cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(entries)

	env.Log.Debugw("files resolved", "scanned", scanned, "selected", len(entries))

	if cfg.Dry {
		return dryRun(env, cfg, entries, scanned, excluded, start)
	}

	password, err := resolvePassword(env, cfg)
	if err != nil {
		return err
	}

	options := []encryption.ProcessorOption{
		encryption.WithLogger(env.Log),
		encryption.WithOutput(env.Stdout, env.Stderr),
	}

	if env.Progress && !cfg.Quiet {
		options = append(options, encryption.WithProgress(newDisplay(env.Stderr).factory, encryption.DefaultProgressInterval))
	}

	proc, err := encryption.NewProcessor(env.FS, password, processorOptions(cfg), options...)

	secret.Wipe(password)

	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}
	defer proc.Close()

	env.Log.Debugw("processing",
		"decrypt", cfg.Decrypt,
		"hash", cfg.Algorithm().String(),
		"iterations", cfg.Iterations,
		"parallel", cfg.Parallel,
	)

	summary, err := proc.Process(ctx, entries)

	if cfg.Stats {
		printStats(env.Stderr, stats{
			scanned:  scanned,
			excluded: excluded,
			summary:  summary,
			duration: time.Since(start),
		})
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

func processorOptions(cfg *config.Config) encryption.Options {
	return encryption.Options{
		Decrypt:            cfg.Decrypt,
		Hash:               cfg.Algorithm(),
		Iterations:         cfg.Iterations,
		Parallel:           cfg.Parallel,
		OutputDir:          cfg.Output,
		Delete:             cfg.Delete,
		PreserveTimestamps: cfg.PreserveTimestamps,
		Quiet:              cfg.Quiet,
	}
}

// resolveFiles expands positional args and applies include/exclude filtering.
// Returns the total number of files scanned before filtering.
func resolveFiles(fs afero.Fs, cfg *config.Config) ([]filter.Entry, int, error) {
	includes, excludes, err := loadPatterns(fs, cfg)
	if err != nil {
		return nil, 0, err
	}

	hasIncludes := len(cfg.Include) > 0 || cfg.IncludeFrom != ""

	if cfg.Decrypt && !hasIncludes {
		includes = append(includes, "*"+encryption.Extension)
		hasIncludes = true
	}

	entries, scanned, err := filter.Resolve(fs, cfg.Files, includes, excludes, hasIncludes)
	if err != nil {
		return nil, scanned, fmt.Errorf("filtering files: %w", err)
	}

	return entries, scanned, nil
}

// loadPatterns merges CLI and file-based include/exclude patterns.
func loadPatterns(fs afero.Fs, cfg *config.Config) (includes, excludes []string, err error) {
	includes = append(includes, cfg.Include...)
	excludes = append(excludes, cfg.Exclude...)

	if cfg.IncludeFrom != "" {
		patterns, err := filter.LoadPatterns(fs, cfg.IncludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, patterns...)
	}

	if cfg.ExcludeFrom != "" {
		patterns, err := filter.LoadPatterns(fs, cfg.ExcludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	return includes, excludes, nil
}

// dryRun previews what would be processed without reading any content.
func dryRun(env Env, cfg *config.Config, entries []filter.Entry, scanned, excluded int, start time.Time) error {
	var summary encryption.Summary

	for _, entry := range entries {
		out, err := encryption.OutputName(outputBase(cfg, entry), cfg.Decrypt)
		if err != nil {
			summary.Errored++

			fmt.Fprintf(env.Stderr, "Error processing %q: %v\n", entry.Path, err)

			continue
		}

		summary.Processed++

		if !cfg.Quiet {
			fmt.Fprintf(env.Stdout, "Would process %q -> %q\n", entry.Path, out)
		}

		if info, err := env.FS.Stat(entry.Path); err == nil {
			summary.InputSize += info.Size()

			if !cfg.Decrypt {
				summary.TotalSize += encryption.EncryptedSize(cfg.Algorithm(), info.Size())
			}
		}
	}

	if cfg.Stats {
		printStats(env.Stderr, stats{
			scanned:  scanned,
			excluded: excluded,
			summary:  summary,
			duration: time.Since(start),
			dry:      true,
		})
	}

	return nil
}

func outputBase(cfg *config.Config, entry filter.Entry) string {
	if cfg.Output == "" {
		return entry.Path
	}

	return filepath.Join(cfg.Output, entry.Rel)
}

type stats struct {
	scanned  int
	excluded int
	summary  encryption.Summary
	duration time.Duration
	dry      bool
}

func printStats(w io.Writer, s stats) {
	title := "Stats"
	if s.dry {
		title = "Stats (dry run)"
	}

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(w, "  Scanned:   %d\n", s.scanned)
	fmt.Fprintf(w, "  Excluded:  %d\n", s.excluded)
	fmt.Fprintf(w, "  Processed: %d\n", s.summary.Processed)
	fmt.Fprintf(w, "  Errors:    %d\n", s.summary.Errored)

	if s.summary.Deleted > 0 {
		fmt.Fprintf(w, "  Deleted:   %d\n", s.summary.Deleted)
	}

	//nolint:gosec // sizes are sums of file sizes and never negative
	fmt.Fprintf(w, "  Input:     %s\n", humanize.IBytes(uint64(max(0, s.summary.InputSize))))
	//nolint:gosec // sizes are sums of file sizes and never negative
	fmt.Fprintf(w, "  Output:    %s\n", humanize.IBytes(uint64(max(0, s.summary.TotalSize))))
	fmt.Fprintf(w, "  Duration:  %s\n", s.duration.Round(time.Millisecond))

	if !s.dry && s.duration > 0 && s.summary.InputSize > 0 {
		rate := float64(s.summary.InputSize) / s.duration.Seconds()
		fmt.Fprintf(w, "  Rate:      %s/s\n", humanize.IBytes(uint64(rate)))
	}
}
