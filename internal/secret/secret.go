// Package secret holds key material and sensitive scratch space.
//
// A Buffer is locked into memory on a best-effort basis and wiped when destroyed.
// Callers acquire one and immediately defer Destroy so every exit path erases it.
//
// Memory locks apply to whole pages and small buffers often share one, so locked pages are
// reference counted and a page is only unlocked after every buffer on it has been destroyed.
package secret

import (
	"crypto/subtle"
	"runtime"
)

// Wipe overwrites every given slice with zeros.
func Wipe(slices ...[]byte) {
	for _, b := range slices {
		if len(b) == 0 {
			continue
		}

		// XORing a slice with itself yields zeros and is not recognized as a dead store.
		subtle.XORBytes(b, b, b)
		runtime.KeepAlive(b)
	}
}

// Buffer is a fixed-size byte slice that is wiped and unlocked on Destroy.
type Buffer struct {
	data   []byte
	locked bool
}

// New allocates a Buffer of n bytes and tries to lock it into memory.
// Locking failures are ignored.
func New(n int) *Buffer {
	buf := &Buffer{data: make([]byte, n)}
	buf.locked = Lock(buf.data) == nil

	return buf
}

// From copies b into a new Buffer. The caller remains responsible for wiping b.
func From(b []byte) *Buffer {
	buf := New(len(b))
	copy(buf.data, b)

	return buf
}

// Bytes returns the underlying slice, or nil once the buffer has been destroyed.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}

	return b.data
}

// Len returns the buffer length.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Locked reports whether the memory lock succeeded.
func (b *Buffer) Locked() bool {
	return b != nil && b.locked
}

// Destroy wipes the buffer and releases its memory lock. It is safe to call more than once.
func (b *Buffer) Destroy() {
	if b == nil || b.data == nil {
		return
	}

	Wipe(b.data)

	if b.locked {
		Unlock(b.data) //nolint:errcheck // best-effort
	}

	b.data = nil
	b.locked = false
}
