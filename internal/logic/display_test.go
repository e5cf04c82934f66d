package logic

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/idelchi/idxcrypt/internal/encryption"
)

func TestDisplay(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	sink := newDisplay(&buf).factory("big.iso")

	sink(encryption.Progress{Processed: 1 << 20, Total: 4 << 20, Elapsed: time.Second})
	sink(encryption.Progress{Processed: 4 << 20, Total: 4 << 20, Elapsed: 2 * time.Second, Final: true})

	out := buf.String()

	for _, want := range []string{"big.iso:  25.0% 1.0 MiB / 4.0 MiB, 1.0 MiB/s", "100.0%", "2.0 MiB/s\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestDisplayUnknownTotal(t *testing.T) {
	t.Parallel()

	got := line("pipe", encryption.Progress{Processed: 2048, Total: -1, Elapsed: time.Second})
	if want := "pipe: 2.0 KiB, 2.0 KiB/s"; got != want {
		t.Errorf("line() = %q, want %q", got, want)
	}
}
