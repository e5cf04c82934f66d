package encryption

import (
	"time"
)

// DefaultProgressInterval is the minimum wall-clock time between two progress events.
const DefaultProgressInterval = 2 * time.Second

// Progress describes how far a single file has been processed.
type Progress struct {
	// Processed is the number of input bytes consumed so far.
	Processed int64
	// Total is the input size, or -1 when unknown.
	Total   int64
	Elapsed time.Duration
	// Final is set on the last event of a successful operation.
	Final bool
}

// Rate returns the throughput in bytes per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}

	return float64(p.Processed) / p.Elapsed.Seconds()
}

// Percent returns the completed fraction in percent, or -1 when the total is unknown.
func (p Progress) Percent() float64 {
	switch {
	case p.Total < 0:
		return -1
	case p.Total == 0:
		return 100 //nolint:mnd
	default:
		return 100 * float64(p.Processed) / float64(p.Total) //nolint:mnd
	}
}

// ProgressFunc receives progress events. It must not retain or modify pipeline state.
type ProgressFunc func(Progress)

// throttle forwards progress to fn at most once per interval, measured by wall clock.
type throttle struct {
	fn        ProgressFunc
	interval  time.Duration
	now       func() time.Time
	start     time.Time
	last      time.Time
	processed int64
	total     int64
}

func newThrottle(fn ProgressFunc, interval time.Duration, total int64, now func() time.Time) *throttle {
	if now == nil {
		now = time.Now
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	start := now()

	return &throttle{fn: fn, interval: interval, now: now, start: start, last: start, total: total}
}

func (t *throttle) add(n int) {
	t.processed += int64(n)

	if t.fn == nil {
		return
	}

	if now := t.now(); now.Sub(t.last) >= t.interval {
		t.last = now
		t.emit(now, false)
	}
}

func (t *throttle) finish() {
	if t.fn == nil {
		return
	}

	t.emit(t.now(), true)
}

func (t *throttle) emit(now time.Time, final bool) {
	t.fn(Progress{
		Processed: t.processed,
		Total:     t.total,
		Elapsed:   now.Sub(t.start),
		Final:     final,
	})
}
