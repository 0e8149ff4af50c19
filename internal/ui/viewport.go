package ui

import (
	"sync"
	"sync/atomic"
	"time"
)

// viewport holds the rows currently inside the list's visible area.
// It is written on the UI goroutine and read by the session workers.
type viewport struct {
	first atomic.Int64
	last  atomic.Int64 // inclusive; -1 when nothing is shown
}

func newViewport() *viewport {
	v := &viewport{}
	v.set(0, -1)
	return v
}

func (v *viewport) set(first, last int) {
	v.first.Store(int64(first))
	v.last.Store(int64(last))
}

func (v *viewport) contains(row int) bool {
	r := int64(row)
	return r >= v.first.Load() && r <= v.last.Load()
}

// visibleRange maps a scroll offset and viewport height onto row
// indexes. Rows are rowHeight apart. The result is clamped to count
// and last is -1 when there is nothing to show.
func visibleRange(offset, height, rowHeight float32, count int) (first, last int) {
	if count <= 0 || rowHeight <= 0 || height <= 0 {
		return 0, -1
	}
	if offset < 0 {
		offset = 0
	}
	first = int(offset / rowHeight)
	last = int((offset + height) / rowHeight)
	if first >= count {
		first = count - 1
	}
	if last >= count {
		last = count - 1
	}
	return first, last
}

// scrollDebouncer turns a stream of scroll movements into one begin
// call and one end call after the movement has been quiet for a while.
type scrollDebouncer struct {
	quiet time.Duration
	begin func()
	end   func()

	mu     sync.Mutex
	active bool
	timer  *time.Timer
	gen    uint64
}

func newScrollDebouncer(quiet time.Duration, begin, end func()) *scrollDebouncer {
	return &scrollDebouncer{quiet: quiet, begin: begin, end: end}
}

// touch records movement. begin runs synchronously on the first touch
// of a burst.
func (d *scrollDebouncer) touch() {
	d.mu.Lock()
	start := !d.active
	d.active = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
	d.mu.Unlock()
	if start && d.begin != nil {
		d.begin()
	}
}

func (d *scrollDebouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.timer = nil
	d.mu.Unlock()
	if d.end != nil {
		d.end()
	}
}

// stop cancels a pending end call. A burst in progress is ended at once.
func (d *scrollDebouncer) stop() {
	d.mu.Lock()
	wasActive := d.active
	d.active = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if wasActive && d.end != nil {
		d.end()
	}
}

func (d *scrollDebouncer) scrolling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}
