//go:build unix

package secret

import "golang.org/x/sys/unix"

var pages = newPageLocker(unix.Mlock, unix.Munlock)

// Lock pins b in physical memory so it is not swapped out.
func Lock(b []byte) error {
	return pages.Acquire(b)
}

// Unlock releases a lock acquired with Lock. Pages still shared with another locked buffer stay locked.
func Unlock(b []byte) error {
	return pages.Release(b)
}
