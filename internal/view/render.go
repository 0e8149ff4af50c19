package view

import (
	"image"
	"slices"

	"shellview/internal/constants"
	"shellview/internal/shell"
	"shellview/internal/store"
)

// RowView is what the host draws for one row.
type RowView struct {
	Item      *shell.ItemRef
	Name      string
	Icon      image.Image
	Thumbnail bool // Icon is a thumbnail
	Overlay   int  // 0 for none
	Shield    int  // 0 for none
	Group     int  // -1 without grouping
}

// Render returns the row's display state. It never blocks and never
// calls a provider method that may do I/O; whatever is missing is queued
// for the workers and drawn on a later paint.
func (s *Session) Render(row int) (RowView, bool) {
	item, ok := s.store.At(row)
	if !ok {
		return RowView{}, false
	}
	if item.MarkDisplayed() {
		s.fire(Event{Type: EventItemDisplayed, Item: item, Index: row})
	}
	tok := Token{ID: item.ID, Row: row}
	size := s.IconSize()
	v := RowView{
		Item:  item,
		Name:  item.DisplayName,
		Group: s.store.GroupOf(row),
	}

	if size > constants.SmallIconSize && !item.IsFolder() {
		if img, ok := s.thumbnailFor(item, tok, size); ok {
			v.Icon = img
			v.Thumbnail = true
		}
	}
	if v.Icon == nil {
		v.Icon = s.iconFor(item, tok, size)
	}

	switch idx := item.OverlayIndex(); {
	case idx == shell.Unresolved:
		s.request(overlayWorker, tok)
	case idx > 0:
		v.Overlay = idx
	}

	switch state := item.ShieldState(); {
	case state == shell.Unresolved:
		if isShieldCandidate(item) {
			s.request(shieldWorker, tok)
		} else {
			item.SetShieldState(constants.ShieldNone)
		}
	case state > 0:
		v.Shield = state
	}
	return v, true
}

// thumbnailFor answers from the thumbnail cache. An entry for another
// size, or one evicted after it was loaded, is requested again.
func (s *Session) thumbnailFor(item *shell.ItemRef, tok Token, size int) (image.Image, bool) {
	if e, ok := s.thumbs.Get(item.ID); ok && e.size == size {
		return e.img, e.img != nil
	}
	item.SetThumbnailLoaded(false)
	s.request(thumbnailWorker, tok)
	return nil, false
}

func (s *Session) iconFor(item *shell.ItemRef, tok Token, size int) image.Image {
	if item.IconType != shell.IconPerInstance {
		if img := s.provider.ClassIcon(item, size); img != nil {
			return img
		}
		return s.provider.FallbackIcon(size)
	}
	if e, ok := s.icons.Get(item.ID); ok && e.size == size {
		if e.img != nil {
			return e.img
		}
		return s.provider.FallbackIcon(size)
	}
	item.SetIconLoaded(false)
	s.request(iconWorker, tok)
	return s.provider.FallbackIcon(size)
}

func isShieldCandidate(item *shell.ItemRef) bool {
	return !item.IsFolder() && slices.Contains(constants.ShieldExtensions, item.Extension)
}

// CellText returns the text of a column. Column 0 is the display name;
// other columns come from the value cache, and a miss queues the value
// and shows blank.
func (s *Session) CellText(row, col int) string {
	item, ok := s.store.At(row)
	if !ok {
		return ""
	}
	s.settingsMu.RLock()
	if col < 0 || col >= len(s.columns) {
		s.settingsMu.RUnlock()
		return ""
	}
	column := s.columns[col]
	layout := s.dateLayout
	s.settingsMu.RUnlock()

	if col == 0 {
		return item.DisplayName
	}
	v, ok := s.values.Get(item.ID, column.Key)
	if !ok {
		s.request(subitemWorker, Token{ID: item.ID, Row: row, Key: column.Key})
		return ""
	}
	return formatValue(column, item, v, layout)
}

// Groups returns the current groups, empty without grouping.
func (s *Session) Groups() []store.Group {
	return s.store.Groups()
}
