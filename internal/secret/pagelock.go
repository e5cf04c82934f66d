package secret

import (
	"os"
	"sync"
	"unsafe"
)

// pageLocker counts the buffers touching each page. mlock and munlock act on whole pages and do not
// nest, so a page is only unlocked once the last buffer sharing it is released.
type pageLocker struct {
	mu       sync.Mutex
	pageSize uintptr
	refs     map[uintptr]int
	lock     func([]byte) error
	unlock   func([]byte) error
}

func newPageLocker(lock, unlock func([]byte) error) *pageLocker {
	return &pageLocker{
		pageSize: uintptr(os.Getpagesize()),
		refs:     make(map[uintptr]int),
		lock:     lock,
		unlock:   unlock,
	}
}

// span returns the address of b and the first and last page it covers.
func (p *pageLocker) span(b []byte) (base, first, last uintptr) {
	base = uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	first = base &^ (p.pageSize - 1)
	last = (base + uintptr(len(b)) - 1) &^ (p.pageSize - 1)

	return base, first, last
}

// Acquire locks b and takes a reference on every page it covers.
func (p *pageLocker) Acquire(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.lock(b); err != nil {
		return err
	}

	_, first, last := p.span(b)
	for page := first; page <= last; page += p.pageSize {
		p.refs[page]++
	}

	return nil
}

// Release drops the references taken by Acquire and unlocks the pages nobody else holds.
func (p *pageLocker) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	base, first, last := p.span(b)
	end := base + uintptr(len(b))

	var firstErr error

	flush := func(from, to uintptr) {
		// The kernel rounds the range out to page boundaries, so clamping it to b unlocks exactly
		// the pages from..to.
		lo := max(from, base) - base
		hi := min(to+p.pageSize, end) - base

		if err := p.unlock(b[lo:hi]); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	runStart, inRun := uintptr(0), false

	for page := first; page <= last; page += p.pageSize {
		p.refs[page]--

		free := p.refs[page] <= 0
		if free {
			delete(p.refs, page)
		}

		switch {
		case free && !inRun:
			runStart, inRun = page, true
		case !free && inRun:
			flush(runStart, page-p.pageSize)

			inRun = false
		}
	}

	if inRun {
		flush(runStart, last)
	}

	return firstErr
}
