// Package crypterr defines the error kinds shared by the cryptographic engine,
// the container codec and the file processor.
//
// Every failure surfaced by the engine wraps exactly one of the sentinels below,
// so callers can branch with errors.Is and keep processing sibling files.
package crypterr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAlgorithm is returned when a hash algorithm is unknown or cannot be instantiated.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
	// ErrInvalidState is returned for operations on an unkeyed, uninitialized or cleaned context.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidParameters is returned for bad key sizes, modes, lengths or iteration counts.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrBufferTooSmall is returned when the output buffer cannot hold the result of an operation.
	ErrBufferTooSmall = errors.New("output buffer too small")
	// ErrInvalidPadding is returned when PKCS#7 padding fails verification on decryption.
	ErrInvalidPadding = errors.New("invalid padding")
	// ErrWrongPasswordOrCorruptFile is returned when the decrypted magic header does not match.
	ErrWrongPasswordOrCorruptFile = errors.New("password incorrect or file is not a valid encrypted file")
	// ErrMalformedContainer is returned when a container fails size or naming checks before decryption.
	ErrMalformedContainer = errors.New("malformed container")
)

// IOError reports a filesystem failure together with the operation and path involved.
type IOError struct {
	Op   string // "open", "read", "write", "stat", "rename", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("io error: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError wraps err as an *IOError. A nil err yields nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError reports whether err carries an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError

	return errors.As(err, &ioErr)
}
