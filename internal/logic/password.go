package logic

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/idelchi/idxcrypt/internal/config"
	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/secret"
)

var (
	// ErrNoPassword is returned when no password source is available.
	ErrNoPassword = errors.New("no password given: use --password, --password-file, IDXCRYPT_PASSWORD or a terminal")
	// ErrPasswordMismatch is returned when the confirmation differs from the first entry.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// PromptFunc reads a password interactively. confirm requests a second entry.
type PromptFunc func(confirm bool) ([]byte, error)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// TerminalPrompt reads from in without echo, writing prompts to out.
func TerminalPrompt(in *os.File, out io.Writer) PromptFunc {
	return func(confirm bool) ([]byte, error) {
		if !IsTerminal(in) {
			return nil, ErrNoPassword
		}

		fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int

		fmt.Fprint(out, "Password: ")

		password, err := term.ReadPassword(fd)

		fmt.Fprintln(out)

		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}

		if !confirm {
			return password, nil
		}

		fmt.Fprint(out, "Confirm password: ")

		again, err := term.ReadPassword(fd)

		fmt.Fprintln(out)

		defer secret.Wipe(again)

		if err != nil {
			secret.Wipe(password)

			return nil, fmt.Errorf("reading password: %w", err)
		}

		if !bytes.Equal(password, again) {
			secret.Wipe(password)

			return nil, ErrPasswordMismatch
		}

		return password, nil
	}
}

// resolvePassword picks the password from the flag or environment, the password file,
// or the prompt, in that order. The caller wipes the result.
func resolvePassword(env Env, cfg *config.Config) ([]byte, error) {
	var (
		password []byte
		err      error
	)

	switch {
	case cfg.Password != "":
		password = []byte(cfg.Password)
	case cfg.PasswordFile != "":
		password, err = readPasswordFile(env, cfg.PasswordFile)
	case env.Prompt != nil:
		password, err = env.Prompt(!cfg.Decrypt)
	default:
		err = ErrNoPassword
	}

	if err != nil {
		return nil, err
	}

	if err := config.ValidatePassword(password); err != nil {
		secret.Wipe(password)

		return nil, err
	}

	return password, nil
}

// readPasswordFile returns the first line of path.
func readPasswordFile(env Env, path string) ([]byte, error) {
	file, err := env.FS.Open(path)
	if err != nil {
		return nil, crypterr.NewIOError("open", path, err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, config.MaxPasswordLen+2) //nolint:mnd // room for "\r\n"

	line, err := reader.ReadSlice('\n')
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, crypterr.NewIOError("read", path, err)
	}

	password := bytes.Clone(bytes.TrimRight(line, "\r\n"))

	secret.Wipe(line)

	return password, nil
}
