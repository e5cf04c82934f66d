package logic

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/idxcrypt/internal/encryption"
)

// display renders progress lines for concurrently processed files on one writer.
type display struct {
	mu sync.Mutex
	w  io.Writer
}

func newDisplay(w io.Writer) *display {
	return &display{w: w}
}

// factory returns the progress sink for one file.
func (d *display) factory(path string) encryption.ProgressFunc {
	return func(p encryption.Progress) {
		d.mu.Lock()
		defer d.mu.Unlock()

		fmt.Fprintf(d.w, "\r\033[K%s", line(path, p))

		if p.Final {
			fmt.Fprintln(d.w)
		}
	}
}

func line(path string, p encryption.Progress) string {
	//nolint:gosec // byte counts are never negative
	processed := humanize.IBytes(uint64(max(0, p.Processed)))
	rate := humanize.IBytes(uint64(p.Rate()))

	if pct := p.Percent(); pct >= 0 {
		//nolint:gosec // byte counts are never negative
		total := humanize.IBytes(uint64(max(0, p.Total)))

		return fmt.Sprintf("%s: %5.1f%% %s / %s, %s/s", path, pct, processed, total, rate)
	}

	return fmt.Sprintf("%s: %s, %s/s", path, processed, rate)
}
