package ui

import (
	"sync"
	"sync/atomic"
)

// HeadlessHost is a shell.Host without a window. Rows inside the
// configured window count as visible; every redraw request is coalesced
// into a single pending signal on Changed.
type HeadlessHost struct {
	count   atomic.Int64
	redraws atomic.Int64
	changed chan struct{}

	mu          sync.RWMutex
	first, last int
}

// NewHeadlessHost treats every row as visible.
func NewHeadlessHost() *HeadlessHost {
	return &HeadlessHost{changed: make(chan struct{}, 1), first: 0, last: -1}
}

// SetWindow limits visibility to rows [first, last]. A negative last
// means all rows.
func (h *HeadlessHost) SetWindow(first, last int) {
	h.mu.Lock()
	h.first, h.last = first, last
	h.mu.Unlock()
}

// Changed receives a value after one or more redraw requests.
func (h *HeadlessHost) Changed() <-chan struct{} { return h.changed }

// Count returns the last reported item count.
func (h *HeadlessHost) Count() int { return int(h.count.Load()) }

// Redraws returns the number of redraw requests so far.
func (h *HeadlessHost) Redraws() int64 { return h.redraws.Load() }

func (h *HeadlessHost) signal() {
	h.redraws.Add(1)
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *HeadlessHost) ItemCountChanged(n int) {
	h.count.Store(int64(n))
	h.signal()
}

func (h *HeadlessHost) RedrawRow(int)        { h.signal() }
func (h *HeadlessHost) RedrawRange(int, int) { h.signal() }
func (h *HeadlessHost) RedrawAll()           { h.signal() }

func (h *HeadlessHost) IsRowVisible(row int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if row < h.first {
		return false
	}
	return h.last < 0 || row <= h.last
}
