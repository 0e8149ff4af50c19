package view

import (
	"context"

	"shellview/internal/metrics"
	"shellview/internal/shell"
	"shellview/internal/store"
)

// clearQueues empties every queue and pending set.
func (s *Session) clearQueues() {
	for _, w := range s.workers {
		s.clearWorker(w)
	}
}

func (s *Session) clearWorker(w *worker) {
	n := w.queue.Clear()
	w.pending.Clear()
	if n > 0 {
		metrics.RecordQueueCleared(w.kind.String(), n)
	}
	metrics.SetQueueDepth(w.kind.String(), 0)
}

func (s *Session) stopSweep() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.sweepCancel != nil {
		s.sweepCancel()
		s.sweepCancel = nil
	}
}

// ScrollBegin pauses the workers while the host scrolls. Queued subitem
// and icon requests are kept aside and only those whose rows are still
// visible are queued again; everything else is dropped and will be
// requested by the next paint.
func (s *Session) ScrollBegin() {
	s.gate.Suspend()
	s.stopSweep()

	carried := map[workerKind][]Token{
		subitemWorker: s.workers[subitemWorker].queue.Drain(),
		iconWorker:    s.workers[iconWorker].queue.Drain(),
	}
	s.clearQueues()
	if len(carried[subitemWorker])+len(carried[iconWorker]) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.sweepMu.Lock()
	s.sweepCancel = cancel
	s.sweepMu.Unlock()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.sweep(ctx, subitemWorker, carried[subitemWorker])
		s.sweep(ctx, iconWorker, carried[iconWorker])
	}()
}

func (s *Session) sweep(ctx context.Context, kind workerKind, tokens []Token) {
	w := s.workers[kind]
	kept := 0
	for _, tok := range tokens {
		if ctx.Err() != nil {
			return
		}
		row, _, ok := s.locate(tok)
		if !ok || !s.host.IsRowVisible(row) {
			continue
		}
		tok.Row = row
		k := tok.pending()
		if !w.pending.TryAdd(k) {
			continue
		}
		if !w.queue.Enqueue(ctx, tok) {
			w.pending.Remove(k)
			return
		}
		kept++
	}
	s.dbg("sweep %s kept %d of %d", kind, kept, len(tokens))
}

// ScrollEnd resumes the workers after the configured delay. Another
// ScrollBegin before then cancels the resume.
func (s *Session) ScrollEnd() {
	s.settingsMu.RLock()
	delay := s.scrollDelay
	s.settingsMu.RUnlock()
	s.gate.ResumeAfter(delay)
}

// Resize switches the icon size. Icons and thumbnails of the old size
// are dropped and every row is redrawn.
func (s *Session) Resize(size int) {
	if size <= 0 || size == s.IconSize() {
		return
	}
	s.iconSize.Store(int32(size))
	s.clearQueues()
	s.icons.Purge()
	s.thumbs.Purge()
	for _, it := range s.store.Snapshot() {
		it.SetIconLoaded(false)
		it.SetThumbnailLoaded(false)
	}
	s.dbg("icon size %d", size)
	s.host.RedrawAll()
}

// SortSpec returns the active sort.
func (s *Session) SortSpec() store.SortSpec {
	return s.store.SortSpec()
}

// SetSortColumn sorts by col. Folders stay first in either direction.
func (s *Session) SetSortColumn(col shell.Column, descending bool) {
	s.store.SetSort(store.SortSpec{Column: col, Descending: descending})
	s.host.RedrawAll()
}

// ToggleSort sorts by col ascending, or flips the direction when col is
// already the sort column.
func (s *Session) ToggleSort(col shell.Column) {
	cur := s.store.SortSpec()
	desc := false
	if cur.Column.Key == col.Key {
		desc = !cur.Descending
	}
	s.SetSortColumn(col, desc)
}

// SetGrouping buckets rows by col.
func (s *Session) SetGrouping(col shell.Column, reversed bool) {
	s.store.SetGrouping(store.Grouping{Column: col, Reversed: reversed})
	s.host.RedrawAll()
}

// Grouping returns the active grouping; ok is false without one.
func (s *Session) Grouping() (g store.Grouping, ok bool) {
	return s.store.Grouping()
}

// ClearGrouping turns grouping off.
func (s *Session) ClearGrouping() {
	s.store.ClearGrouping()
	s.host.RedrawAll()
}

// QueueStats is the state of one worker queue.
type QueueStats struct {
	Worker   string `json:"worker"`
	Depth    int    `json:"depth"`
	Capacity int    `json:"capacity"`
	Pending  int    `json:"pending"`
}

// Stats is a diagnostic snapshot of the session.
type Stats struct {
	Folder    string       `json:"folder"`
	Items     int          `json:"items"`
	Values    int          `json:"values"`
	Icons     int          `json:"icons"`
	Thumbs    int          `json:"thumbnails"`
	Suspended bool         `json:"suspended"`
	Queues    []QueueStats `json:"queues"`
}

// Stats returns the current diagnostic snapshot.
func (s *Session) Stats() Stats {
	st := Stats{
		Items:     s.store.Len(),
		Values:    s.values.Len(),
		Icons:     s.icons.Len(),
		Thumbs:    s.thumbs.Len(),
		Suspended: s.gate.Suspended(),
	}
	if f := s.Folder(); f != nil {
		st.Folder = string(f.ID)
	}
	for _, w := range s.workers {
		st.Queues = append(st.Queues, QueueStats{
			Worker:   w.kind.String(),
			Depth:    w.queue.Len(),
			Capacity: w.queue.Cap(),
			Pending:  w.pending.Len(),
		})
	}
	return st
}
