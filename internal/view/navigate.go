package view

import (
	"context"
	"fmt"
	"time"

	apperrors "shellview/internal/errors"
	"shellview/internal/metrics"
	"shellview/internal/shell"
)

// Navigate shows the folder at path. On failure the current view is
// left untouched.
func (s *Session) Navigate(ctx context.Context, path string) error {
	folder, err := s.provider.Item(ctx, path)
	if err != nil {
		return apperrors.NewProviderError("navigate", path, "cannot open folder", err)
	}
	return s.NavigateTo(ctx, folder)
}

// NavigateTo shows folder: it enumerates it, then swaps the store,
// drops every queue and cache of the previous folder and registers a
// new notification source. Workers pause for the swap and go back to
// the state they were in.
func (s *Session) NavigateTo(ctx context.Context, folder *shell.ItemRef) error {
	if folder == nil {
		return apperrors.NewProviderError("navigate", "", "no folder", apperrors.ErrPathNotFound)
	}
	start := time.Now()
	items, err := s.enumerate(ctx, folder)
	if err != nil {
		return apperrors.NewProviderError("navigate", folder.ParsingPath, "cannot enumerate folder", err)
	}

	s.navMu.Lock()
	s.stopSourceLocked()
	restore := s.gate.Hold()
	s.stopSweep()
	s.clearQueues()
	s.values.Clear()
	s.icons.Purge()
	s.thumbs.Purge()
	s.marker.clear()
	s.store.Reset(items)
	s.folder.Store(folder)
	s.startSourceLocked(folder)
	n := s.store.Len()
	s.navMu.Unlock()

	// a navigation inside a scroll burst leaves resuming to ScrollEnd
	restore()
	metrics.SetStoreItems(n)
	metrics.RecordNavigation(time.Since(start))
	s.dbg("navigated to %s (%d items)", folder.ID, n)
	s.host.ItemCountChanged(n)
	s.fire(Event{Type: EventNavigated, Folder: folder, Index: -1})
	return nil
}

func (s *Session) enumerate(ctx context.Context, folder *shell.ItemRef) ([]*shell.ItemRef, error) {
	showHidden := s.ShowHidden()
	var items []*shell.ItemRef
	for item, err := range s.provider.Enumerate(ctx, folder) {
		if err != nil {
			return nil, err
		}
		if item.IsHidden() && !showHidden {
			continue
		}
		items = append(items, item)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrCanceled, err)
	}
	return items, nil
}

// Refresh reloads the current folder.
func (s *Session) Refresh(ctx context.Context) error {
	folder := s.Folder()
	if folder == nil {
		return s.NavigateTo(ctx, s.provider.Root())
	}
	return s.NavigateTo(ctx, folder)
}

// Up shows the parent of the current folder. Top-level folders lead to
// the Computer root; at the root it does nothing.
func (s *Session) Up(ctx context.Context) error {
	folder := s.Folder()
	if folder == nil || s.provider.IsRoot(folder) {
		return nil
	}
	if folder.ParentPath == "" || s.provider.Identify(folder.ParentPath) == folder.ID {
		return s.NavigateTo(ctx, s.provider.Root())
	}
	return s.Navigate(ctx, folder.ParentPath)
}

// GoRoot shows the Computer root.
func (s *Session) GoRoot(ctx context.Context) error {
	return s.NavigateTo(ctx, s.provider.Root())
}

// Invoke opens the item at row: folders and virtual containers such as
// archives are navigated into, everything else is launched.
func (s *Session) Invoke(ctx context.Context, row int) error {
	item, ok := s.store.At(row)
	if !ok {
		return apperrors.NewProviderError("invoke", "", "no item at row", apperrors.ErrPathNotFound)
	}
	if item.IsFolder() || item.Kind == shell.KindVirtual {
		return s.NavigateTo(ctx, item)
	}
	if item.ParsingPath == "" {
		return apperrors.NewProviderError("invoke", string(item.ID), "item has no path", apperrors.ErrPathNotFound)
	}
	if err := s.launch(item.ParsingPath); err != nil {
		return apperrors.NewProviderError("invoke", item.ParsingPath, "cannot open item", err)
	}
	return nil
}

// startSourceLocked registers a notification source for folder and
// starts its reconciler. Failure leaves the view without live updates.
func (s *Session) startSourceLocked(folder *shell.ItemRef) {
	if s.watcher == nil {
		return
	}
	src, err := s.watcher.Watch(s.ctx, folder)
	if err != nil {
		s.log.Warn().Err(err).Str("folder", string(folder.ID)).Msg("change notifications unavailable")
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.reconcile(ctx, folder, src)
	}()
	s.stopSource = func() {
		cancel()
		if err := src.Close(); err != nil {
			s.log.Warn().Err(err).Str("folder", string(folder.ID)).Msg("closing change notifications")
		}
	}
}

// stopSourceLocked stops the current source. It does not wait for the
// reconciler, which may be blocked on navMu; the cancelled context
// makes it discard whatever is still queued.
func (s *Session) stopSourceLocked() {
	if s.stopSource != nil {
		s.stopSource()
		s.stopSource = nil
	}
}
