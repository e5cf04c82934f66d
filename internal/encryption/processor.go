package encryption

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/fileutil"
	"github.com/idelchi/idxcrypt/internal/filter"
	"github.com/idelchi/idxcrypt/internal/secret"
)

// Options control a Processor run.
type Options struct {
	// Decrypt selects decryption instead of encryption.
	Decrypt bool
	// Hash is the PBKDF2 pseudo-random function.
	Hash digest.Algorithm
	// Iterations is the PBKDF2 work factor.
	Iterations int
	// Parallel is the number of files processed at once.
	Parallel int
	// OutputDir, if set, receives the outputs mirroring the input tree.
	OutputDir string
	// Delete removes each input after it was processed successfully.
	Delete bool
	// PreserveTimestamps copies the input modification time to the output.
	PreserveTimestamps bool
	// Quiet suppresses per-file output.
	Quiet bool
}

// Processor handles the encryption and decryption of files.
type Processor struct {
	fs       afero.Fs
	opts     Options
	password *secret.Buffer
	pipeline Pipeline

	// progress returns the progress sink for one input file
	progress func(path string) ProgressFunc

	log    *zap.SugaredLogger
	stdout io.Writer
	stderr io.Writer
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.SugaredLogger) ProcessorOption {
	return func(p *Processor) {
		p.log = log
	}
}

// WithOutput redirects per-file messages and error reports.
func WithOutput(stdout, stderr io.Writer) ProcessorOption {
	return func(p *Processor) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// WithProgress installs a progress sink factory, called once per file.
func WithProgress(factory func(path string) ProgressFunc, interval time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.progress = factory
		p.pipeline.Interval = interval
	}
}

// WithRand replaces the entropy source for salts and IVs.
func WithRand(r io.Reader) ProcessorOption {
	return func(p *Processor) {
		p.pipeline.Rand = r
	}
}

// NewProcessor creates a Processor over fs. The password is copied into locked memory;
// call Close to erase it.
func NewProcessor(fs afero.Fs, password []byte, opts Options, options ...ProcessorOption) (*Processor, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", crypterr.ErrInvalidParameters)
	}

	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	processor := &Processor{
		fs:       fs,
		opts:     opts,
		pipeline: Pipeline{Hash: opts.Hash, Iterations: opts.Iterations},
		log:      zap.NewNop().Sugar(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	if err := processor.pipeline.validate(); err != nil {
		return nil, err
	}

	for _, option := range options {
		option(processor)
	}

	processor.password = secret.From(password)

	processor.log.Debugw("password buffer allocated", "locked", processor.password.Locked())

	return processor, nil
}

// Close erases the password.
func (p *Processor) Close() {
	p.password.Destroy()
}

// OutputPath returns where the result for entry is written.
func (p *Processor) OutputPath(entry filter.Entry) (string, error) {
	src := entry.Path

	if p.opts.OutputDir != "" {
		src = filepath.Join(p.opts.OutputDir, entry.Rel)
	}

	return OutputName(src, p.opts.Decrypt)
}

// Process encrypts or decrypts all entries, at most Options.Parallel at a time.
// A failing file is reported and does not stop the others; the returned error
// wraps ErrFilesFailed and the first failure.
//
//nolint:cyclop,gocognit,funlen
func (p *Processor) Process(ctx context.Context, entries []filter.Entry) (Summary, error) {
	var summary Summary

	results := make(chan Result, len(entries))

	group := errgroup.Group{}
	group.SetLimit(p.opts.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range results {
			summary.add(result)

			if result.Error != nil {
				p.log.Debugw("file failed", "input", result.Input, "error", result.Error)

				fmt.Fprintf(p.stderr, "Error processing %q: %v\n", result.Input, result.Error)

				continue
			}

			p.log.Debugw("file done",
				"input", result.Input,
				"output", result.Output,
				"bytes", result.InputSize,
				"duration", result.Duration,
			)

			if !p.opts.Quiet {
				fmt.Fprintf(p.stdout, "Processed %q -> %q\n", result.Input, result.Output)
			}

			if !p.opts.Delete || result.Input == result.Output {
				continue
			}

			if err := p.fs.Remove(result.Input); err != nil {
				fmt.Fprintf(p.stderr, "Error deleting %q: %v\n", result.Input, err)

				continue
			}

			summary.Deleted++

			if !p.opts.Quiet {
				fmt.Fprintf(p.stdout, "Deleted %q\n", result.Input)
			}
		}
	}()

	for _, entry := range entries {
		group.Go(func() error {
			result := p.processEntry(ctx, entry)

			results <- result

			return result.Error
		})
	}

	err := group.Wait()

	close(results)

	<-done // Wait for printer to finish

	if summary.Errored > 0 {
		return summary, fmt.Errorf("%w: %d of %d: %w", ErrFilesFailed, summary.Errored, len(entries), err)
	}

	return summary, nil
}

func (p *Processor) processEntry(ctx context.Context, entry filter.Entry) Result {
	if err := ctx.Err(); err != nil {
		return Result{Input: entry.Path, Error: fmt.Errorf("aborted: %w", err)}
	}

	outPath, err := p.OutputPath(entry)
	if err != nil {
		return Result{Input: entry.Path, Error: err}
	}

	start := time.Now()

	result, err := p.processFile(ctx, entry.Path, outPath)
	result.Duration = time.Since(start)
	result.Error = err

	return result
}

// processFile handles the encryption or decryption of a single file.
// It writes to a temporary file next to outPath and renames it on completion,
// so a failure never leaves a partial output behind.
func (p *Processor) processFile(ctx context.Context, filename, outPath string) (result Result, err error) {
	result = Result{Input: filename, Output: outPath}

	tc, err := fileutil.NewTempContext(p.fs, filename, outPath)
	if err != nil {
		return result, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	inFile, err := p.fs.Open(filename)
	if err != nil {
		return result, crypterr.NewIOError("open", filename, err)
	}
	defer inFile.Close() //nolint:errcheck // closed explicitly before the commit

	result.InputSize = tc.SrcInfo.Size()

	pipeline := p.pipeline
	if p.progress != nil {
		pipeline.Progress = p.progress(filename)
	}

	if p.opts.Decrypt {
		_, err = pipeline.Decrypt(ctx, tc.TmpFile, inFile, result.InputSize, p.password.Bytes())
	} else {
		_, err = pipeline.Encrypt(ctx, tc.TmpFile, inFile, result.InputSize, p.password.Bytes())
	}

	if err != nil {
		attachPath(err, filename, tc.TmpName)

		if p.opts.Decrypt {
			return result, fmt.Errorf("decrypting file: %w", err)
		}

		return result, fmt.Errorf("encrypting file: %w", err)
	}

	if err := inFile.Close(); err != nil {
		return result, crypterr.NewIOError("close", filename, err)
	}

	result.OutputSize, err = tc.Commit(p.opts.PreserveTimestamps)
	if err != nil {
		return result, fmt.Errorf("committing output: %w", err)
	}

	return result, nil
}

// attachPath fills in the path of a pipeline I/O error, which only knows the operation.
func attachPath(err error, input, output string) {
	var ioErr *crypterr.IOError
	if !errors.As(err, &ioErr) || ioErr.Path != "" {
		return
	}

	if ioErr.Op == "write" {
		ioErr.Path = output
	} else {
		ioErr.Path = input
	}
}
