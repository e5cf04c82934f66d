//go:build !unix

package secret

import "errors"

var errLockUnsupported = errors.New("memory locking not supported on this platform")

// Lock is not available on this platform.
func Lock(_ []byte) error {
	return errLockUnsupported
}

// Unlock is not available on this platform.
func Unlock(_ []byte) error {
	return errLockUnsupported
}
