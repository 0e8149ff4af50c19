package view

import (
	"context"
	"time"

	"shellview/internal/config"
	"shellview/internal/metrics"
	"shellview/internal/shell"
	"shellview/internal/workqueue"
)

// Token asks a worker to resolve something for one item. Row is a
// position hint; ID decides. Key is set for subitem tokens only.
type Token struct {
	ID  shell.Identity
	Row int
	Key shell.PropertyKey
}

type pendingKey struct {
	id  shell.Identity
	key shell.PropertyKey
}

func (t Token) pending() pendingKey {
	return pendingKey{id: t.ID, key: t.Key}
}

type workerKind int

const (
	iconWorker workerKind = iota
	thumbnailWorker
	overlayWorker
	shieldWorker
	subitemWorker
	workerCount
)

func (k workerKind) String() string {
	switch k {
	case iconWorker:
		return "icon"
	case thumbnailWorker:
		return "thumbnail"
	case overlayWorker:
		return "overlay"
	case shieldWorker:
		return "shield"
	case subitemWorker:
		return "subitem"
	default:
		return "unknown"
	}
}

// resolution outcomes reported to metrics
const (
	outcomeResolved = "resolved"
	outcomeSkipped  = "skipped"
	outcomeStale    = "stale"
	outcomeFailed   = "failed"
)

type resolveFunc func(ctx context.Context, tok Token, row int, item *shell.ItemRef) string

type worker struct {
	kind    workerKind
	queue   *workqueue.Queue[Token]
	pending *workqueue.Pending[pendingKey]
	resolve resolveFunc
}

func (s *Session) initWorkers(q config.QueueConfig) {
	capacity := [workerCount]int{
		iconWorker:      q.Icon,
		thumbnailWorker: q.Thumbnail,
		overlayWorker:   q.Overlay,
		shieldWorker:    q.Shield,
		subitemWorker:   q.Subitem,
	}
	resolvers := [workerCount]resolveFunc{
		iconWorker:      s.resolveIcon,
		thumbnailWorker: s.resolveThumbnail,
		overlayWorker:   s.resolveOverlay,
		shieldWorker:    s.resolveShield,
		subitemWorker:   s.resolveSubitem,
	}
	for k := workerKind(0); k < workerCount; k++ {
		s.workers[k] = &worker{
			kind:    k,
			queue:   workqueue.New[Token](capacity[k]),
			pending: workqueue.NewPending[pendingKey](),
			resolve: resolvers[k],
		}
	}
}

// runWorker is the loop shared by every worker. It waits on the gate
// before and after taking a token so a scroll that starts while it
// blocks in Dequeue still pauses it.
func (s *Session) runWorker(ctx context.Context, w *worker) error {
	name := w.kind.String()
	for {
		if s.gate.Wait(ctx) != nil {
			return nil
		}
		tok, ok := w.queue.Dequeue(ctx)
		if !ok {
			return nil
		}
		metrics.SetQueueDepth(name, w.queue.Len())
		if s.gate.Wait(ctx) != nil {
			return nil
		}
		s.process(ctx, w, tok)
	}
}

func (s *Session) process(ctx context.Context, w *worker, tok Token) {
	defer w.pending.Remove(tok.pending())
	row, item, ok := s.locate(tok)
	if !ok {
		metrics.RecordResolution(w.kind.String(), outcomeStale, 0)
		return
	}
	start := time.Now()
	outcome := w.resolve(ctx, tok, row, item)
	metrics.RecordResolution(w.kind.String(), outcome, time.Since(start))
}

// request is the render path's enqueue: check-before-enqueue through the
// pending set, never blocking. A full queue rolls the pending mark back
// so a later paint retries.
func (s *Session) request(kind workerKind, tok Token) {
	w := s.workers[kind]
	k := tok.pending()
	if !w.pending.TryAdd(k) {
		return
	}
	if !w.queue.TryEnqueue(tok) {
		w.pending.Remove(k)
		metrics.RecordEnqueueSkipped(kind.String())
	}
}

func (s *Session) resolveIcon(ctx context.Context, tok Token, row int, item *shell.ItemRef) string {
	if item.IconLoaded() || item.IconType != shell.IconPerInstance {
		return outcomeSkipped
	}
	size := s.IconSize()
	img, err := s.provider.Icon(ctx, item, size)
	if err != nil {
		s.dbg("icon %s: %v", item.ID, err)
		return outcomeFailed
	}
	if size != s.IconSize() {
		return outcomeStale
	}
	row, ok := s.rowOf(item)
	if !ok {
		return outcomeStale
	}
	s.icons.Add(item.ID, cachedImage{img: img, size: size})
	item.SetIconLoaded(true)
	s.host.RedrawRow(row)
	return outcomeResolved
}

// resolveThumbnail tries the provider's rendered thumbnails first and
// renders a new one only for a row still on screen. It marks the item
// loaded even when the provider has no thumbnail for it so the render
// path does not ask again.
func (s *Session) resolveThumbnail(ctx context.Context, tok Token, row int, item *shell.ItemRef) string {
	if item.ThumbnailLoaded() {
		return outcomeSkipped
	}
	size := s.IconSize()
	img, err := s.provider.Thumbnail(ctx, item, size, shell.RetrieveCacheOnly)
	if err == nil && img == nil {
		if !s.host.IsRowVisible(row) {
			return outcomeSkipped
		}
		img, err = s.provider.Thumbnail(ctx, item, size, shell.RetrieveDefault)
	}
	if err != nil {
		s.dbg("thumbnail %s: %v", item.ID, err)
		img = nil
	}
	if size != s.IconSize() {
		return outcomeStale
	}
	row, ok := s.rowOf(item)
	if !ok {
		return outcomeStale
	}
	s.thumbs.Add(item.ID, cachedImage{img: img, size: size})
	item.SetThumbnailLoaded(true)
	if img == nil {
		if err != nil {
			return outcomeFailed
		}
		return outcomeSkipped
	}
	s.host.RedrawRow(row)
	return outcomeResolved
}

func (s *Session) resolveOverlay(ctx context.Context, tok Token, row int, item *shell.ItemRef) string {
	if item.OverlayIndex() != shell.Unresolved {
		return outcomeSkipped
	}
	idx, err := s.provider.Overlay(ctx, item)
	if err != nil {
		s.dbg("overlay %s: %v", item.ID, err)
		return outcomeFailed
	}
	row, ok := s.rowOf(item)
	if !ok {
		return outcomeStale
	}
	item.SetOverlayIndex(idx)
	if idx > 0 {
		s.host.RedrawRow(row)
	}
	return outcomeResolved
}

func (s *Session) resolveShield(ctx context.Context, tok Token, row int, item *shell.ItemRef) string {
	if item.ShieldState() != shell.Unresolved {
		return outcomeSkipped
	}
	if !isShieldCandidate(item) {
		item.SetShieldState(0)
		return outcomeSkipped
	}
	state, err := s.provider.Shield(ctx, item)
	if err != nil {
		s.dbg("shield %s: %v", item.ID, err)
		return outcomeFailed
	}
	row, ok := s.rowOf(item)
	if !ok {
		return outcomeStale
	}
	item.SetShieldState(state)
	if state > 0 {
		s.host.RedrawRow(row)
	}
	return outcomeResolved
}

// resolveSubitem fetches one column value. Rows scrolled out of view are
// skipped; the next paint asks again.
func (s *Session) resolveSubitem(ctx context.Context, tok Token, row int, item *shell.ItemRef) string {
	if s.values.Has(item.ID, tok.Key) {
		return outcomeSkipped
	}
	if !s.host.IsRowVisible(row) {
		return outcomeSkipped
	}
	v, err := s.provider.Property(ctx, item, tok.Key)
	if err != nil {
		s.dbg("property %s %s: %v", item.ID, tok.Key, err)
		return outcomeFailed
	}
	if _, ok := s.rowOf(item); !ok {
		return outcomeStale
	}
	if !s.values.TryAdd(item.ID, tok.Key, v) {
		return outcomeSkipped
	}
	if row, ok := s.rowOf(item); ok {
		s.host.RedrawRow(row)
	}
	return outcomeResolved
}
