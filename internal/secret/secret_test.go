package secret_test

import (
	"bytes"
	"testing"

	"github.com/idelchi/idxcrypt/internal/secret"
)

func TestWipe(t *testing.T) {
	t.Parallel()

	a := []byte("correct horse")
	b := []byte{1, 2, 3}

	secret.Wipe(a, nil, b)

	if !bytes.Equal(a, make([]byte, len(a))) || !bytes.Equal(b, make([]byte, len(b))) {
		t.Fatalf("Wipe left data behind: %x %x", a, b)
	}
}

func TestBufferDestroy(t *testing.T) {
	t.Parallel()

	src := []byte("derived key material")
	buf := secret.From(src)

	if !bytes.Equal(buf.Bytes(), src) {
		t.Fatalf("From() = %q, want %q", buf.Bytes(), src)
	}

	alias := buf.Bytes()

	buf.Destroy()
	buf.Destroy()

	if buf.Bytes() != nil || buf.Len() != 0 {
		t.Errorf("destroyed buffer still exposes data")
	}

	if !bytes.Equal(alias, make([]byte, len(src))) {
		t.Errorf("Destroy did not wipe backing array: %x", alias)
	}

	if buf.Locked() {
		t.Errorf("destroyed buffer reports locked")
	}
}

func TestNilBuffer(t *testing.T) {
	t.Parallel()

	var buf *secret.Buffer

	buf.Destroy()

	if buf.Bytes() != nil || buf.Locked() {
		t.Errorf("nil buffer should be inert")
	}
}
