package view

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"

	"shellview/internal/fileinfo"
	"shellview/internal/metrics"
	"shellview/internal/shell"
)

// notification outcomes reported to metrics
const (
	eventApplied   = "applied"
	eventIgnored   = "ignored"
	eventMalformed = "malformed"
	eventFailed    = "failed"
)

// reconcile applies change events of one folder's source until ctx is
// cancelled by navigation or Close. Each event holds navMu, so events
// and navigation never interleave.
func (s *Session) reconcile(ctx context.Context, folder *shell.ItemRef, src shell.NotificationSource) {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.navMu.Lock()
			outcome := eventIgnored
			if ctx.Err() == nil {
				outcome = s.applyEvent(ctx, folder, ev)
			}
			s.navMu.Unlock()
			metrics.RecordNotification(ev.Kind.String(), outcome)
			s.dbg("event %s %s %s: %s", ev.Kind, ev.Path, ev.NewPath, outcome)
		}
	}
}

func (s *Session) applyEvent(ctx context.Context, folder *shell.ItemRef, ev shell.ChangeEvent) string {
	if ev.Path == "" {
		return eventMalformed
	}
	atRoot := s.provider.IsRoot(folder)
	switch ev.Kind {
	case shell.EventCreate, shell.EventMkdir:
		if atRoot {
			return eventIgnored
		}
		return s.onCreate(ctx, folder, ev.Path, false)
	case shell.EventDelete, shell.EventRmdir:
		if atRoot {
			return eventIgnored
		}
		return s.onDelete(ev.Path)
	case shell.EventRename, shell.EventRenameFolder:
		if ev.NewPath == "" {
			return eventMalformed
		}
		if atRoot {
			return eventIgnored
		}
		return s.onRename(ctx, folder, ev.Path, ev.NewPath)
	case shell.EventUpdate:
		return s.onUpdate(ctx, ev.Path)
	case shell.EventDriveAdd:
		if !atRoot {
			return eventIgnored
		}
		return s.onCreate(ctx, folder, ev.Path, true)
	case shell.EventDriveRemove:
		if !atRoot {
			return eventIgnored
		}
		return s.onDelete(ev.Path)
	default:
		return eventMalformed
	}
}

func (s *Session) isTemp(name string) bool {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	for _, p := range s.tempPatterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// visible reports whether item belongs in the current listing.
func (s *Session) visible(folder, item *shell.ItemRef) bool {
	if item.IsHidden() && !s.ShowHidden() {
		return false
	}
	return s.provider.Identify(item.ParentPath) == folder.ID
}

func (s *Session) onCreate(ctx context.Context, folder *shell.ItemRef, path string, drive bool) string {
	if !drive && s.isTemp(fileinfo.BaseName(path)) {
		return eventIgnored
	}
	if s.store.Contains(s.provider.Identify(path)) {
		return eventIgnored
	}
	resolve := s.provider.Item
	if drive {
		resolve = s.provider.DriveItem
	}
	item, err := resolve(ctx, path)
	if err != nil {
		s.dbg("create %s: %v", path, err)
		return eventFailed
	}
	if !s.visible(folder, item) {
		return eventIgnored
	}

	var pos int
	var ok bool
	if marker := s.marker.take(item.ID, false); marker >= 0 {
		pos, ok = s.store.InsertAt(marker, item)
	} else {
		pos, ok = s.store.Insert(item)
	}
	if !ok {
		return eventIgnored
	}
	s.countChanged()
	s.fireUpdate(ItemUpdate{Type: Created, Item: item, Index: pos})
	return eventApplied
}

// onDelete removes the item; a replayed delete finds nothing and does
// nothing. Cached values stay until the next navigation.
func (s *Session) onDelete(path string) string {
	id := s.provider.Identify(path)
	item, ok := s.store.Get(id)
	if !ok {
		return eventIgnored
	}
	if _, ok := s.store.Remove(id); !ok {
		return eventIgnored
	}
	s.countChanged()
	s.fireUpdate(ItemUpdate{Type: Deleted, Item: item, Index: -1})
	return eventApplied
}

// onRename moves an item to its new identity. With a refresh marker set
// for the new identity the item is inserted at the marker instead, which
// is how an in-place rename started from the view lands on its row.
// Values cached under the old identity are left orphaned.
func (s *Session) onRename(ctx context.Context, folder *shell.ItemRef, oldPath, newPath string) string {
	oldID := s.provider.Identify(oldPath)
	newID := s.provider.Identify(newPath)
	marker := s.marker.take(newID, true)

	item, err := s.provider.Item(ctx, newPath)
	if err != nil {
		s.dbg("rename %s -> %s: %v", oldPath, newPath, err)
		s.onDelete(oldPath)
		return eventFailed
	}
	if !s.visible(folder, item) {
		// moved out of this folder or became hidden
		return s.onDelete(oldPath)
	}

	before := s.store.Len()
	if marker >= 0 {
		s.store.Remove(oldID)
		if s.store.Contains(newID) {
			s.countChanged()
			return eventApplied
		}
		pos, ok := s.store.InsertAt(marker, item)
		if !ok {
			return eventIgnored
		}
		s.countChanged()
		s.fireUpdate(ItemUpdate{Type: Created, Item: item, Index: pos})
		return eventApplied
	}

	prev, ok := s.store.Get(oldID)
	if !ok {
		pos, ok := s.store.Insert(item)
		if !ok {
			return eventIgnored
		}
		s.countChanged()
		s.fireUpdate(ItemUpdate{Type: Created, Item: item, Index: pos})
		return eventApplied
	}
	replaced, final, ok := s.store.Replace(oldID, item)
	if !ok {
		return eventIgnored
	}
	if s.store.Len() != before {
		s.countChanged()
	} else {
		s.redrawMoved(replaced, final)
	}
	s.fireUpdate(ItemUpdate{Type: Renamed, Item: item, Previous: prev, Index: final})
	return eventApplied
}

// onUpdate swaps in a freshly resolved item so workers still holding
// the old one cannot write stale results back, and drops what was
// cached for it.
func (s *Session) onUpdate(ctx context.Context, path string) string {
	id := s.provider.Identify(path)
	prev, ok := s.store.Get(id)
	if !ok {
		return eventIgnored
	}
	item, err := s.provider.Item(ctx, path)
	if err != nil {
		s.dbg("update %s: %v", path, err)
		return eventFailed
	}
	if item.ID != id {
		return eventIgnored
	}
	replaced, final, ok := s.store.Replace(id, item)
	if !ok {
		return eventIgnored
	}
	s.values.Forget(id)
	s.icons.Remove(id)
	s.thumbs.Remove(id)
	s.redrawMoved(replaced, final)
	s.fireUpdate(ItemUpdate{Type: Updated, Item: item, Previous: prev, Index: final})
	return eventApplied
}

// redrawMoved redraws the rows a re-sort shifted when one item moved
// from row from to row to.
func (s *Session) redrawMoved(from, to int) {
	if from == to {
		s.host.RedrawRow(to)
		return
	}
	s.host.RedrawRange(min(from, to), max(from, to))
}

func (s *Session) countChanged() {
	n := s.store.Len()
	metrics.SetStoreItems(n)
	s.host.ItemCountChanged(n)
}
