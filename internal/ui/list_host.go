package ui

import (
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/shell"
	"shellview/internal/view"
)

const (
	// scrollQuiet is how long the list must stay still before a scroll
	// burst is considered over.
	scrollQuiet = 120 * time.Millisecond
	// edgeRows widens the visible range; rows half inside the viewport
	// count as shown.
	edgeRows = 1
)

// ListHost is the owner-data list control for a view.Session. The list
// never holds items: it asks the session for each row as it scrolls
// into view. Redraw requests from worker goroutines are marshalled onto
// the fyne goroutine.
type ListHost struct {
	list    *widget.List
	session *view.Session

	count    atomic.Int64
	viewport *viewport
	scroll   *scrollDebouncer

	// fyne goroutine only
	iconSize   float32
	widths     []float32
	lastOffset float32
	refreshing bool
	cursor     int
	selected   map[shell.Identity]bool

	// OnCursorChanged is called on the fyne goroutine after the cursor
	// moved.
	OnCursorChanged func(row int)
	// OnInvoke is called on the fyne goroutine for a double-tapped row.
	OnInvoke func(row int)

	debugPrint func(format string, args ...interface{})
}

// NewListHost creates the list widget. The host draws nothing until a
// session is attached.
func NewListHost(iconSize int, debugPrint func(format string, args ...interface{})) *ListHost {
	h := &ListHost{
		viewport:   newViewport(),
		iconSize:   float32(iconSize),
		cursor:     -1,
		selected:   make(map[shell.Identity]bool),
		debugPrint: debugPrint,
	}
	h.scroll = newScrollDebouncer(scrollQuiet, h.scrollBegin, h.scrollEnd)
	h.list = widget.NewList(
		func() int { return int(h.count.Load()) },
		h.createItem,
		h.updateItem,
	)
	h.list.OnSelected = func(id widget.ListItemID) {
		h.cursor = id
		if h.OnCursorChanged != nil {
			h.OnCursorChanged(id)
		}
	}
	return h
}

func (h *ListHost) dbg(format string, args ...interface{}) {
	if h.debugPrint != nil {
		h.debugPrint("ui: "+format, args...)
	}
}

// Attach binds the host to s and sizes the columns from s.Columns().
// Call it once, right after view.NewSession.
func (h *ListHost) Attach(s *view.Session) {
	h.session = s
	h.widths = h.widths[:0]
	for _, col := range s.Columns() {
		h.widths = append(h.widths, float32(col.Width))
	}
}

// Widget returns the list for embedding in a window.
func (h *ListHost) Widget() *widget.List { return h.list }

func (h *ListHost) createItem() fyne.CanvasObject {
	return NewRowCell(h.iconSize, h.widths, func(row int) {
		if h.OnInvoke != nil {
			h.OnInvoke(row)
		}
	})
}

func (h *ListHost) updateItem(id widget.ListItemID, obj fyne.CanvasObject) {
	cell, ok := obj.(*RowCell)
	if !ok {
		return
	}
	cell.row = id
	cell.setIconSize(h.iconSize)
	h.observe(cell)

	if h.session == nil {
		return
	}
	v, ok := h.session.Render(id)
	if !ok {
		cell.SetIcon(nil)
		cell.SetBadges(0, 0)
		cell.SetCells(nil)
		cell.SetSelected(false)
		return
	}
	cell.SetIcon(v.Icon)
	cell.SetBadges(v.Overlay, v.Shield)
	texts := make([]string, len(cell.labels))
	for col := range texts {
		texts[col] = h.session.CellText(id, col)
	}
	cell.SetCells(texts)
	cell.SetSelected(h.selected[v.Item.ID])
}

// observe recomputes the visible rows and reports scroll movement. It
// runs from the bind callback, which fyne calls whenever rows enter the
// viewport.
func (h *ListHost) observe(cell *RowCell) {
	offset := h.list.GetScrollOffset()
	rowHeight := cell.MinSize().Height + theme.Padding()
	first, last := visibleRange(offset, h.list.Size().Height, rowHeight, int(h.count.Load()))
	if last >= 0 {
		first = max(first-edgeRows, 0)
		last += edgeRows
	}
	h.viewport.set(first, last)
	if offset != h.lastOffset {
		h.lastOffset = offset
		if !h.refreshing {
			h.scroll.touch()
		}
	}
}

func (h *ListHost) scrollBegin() {
	if h.session != nil {
		h.session.ScrollBegin()
	}
}

func (h *ListHost) scrollEnd() {
	if h.session != nil {
		h.session.ScrollEnd()
	}
}

// refreshAll rebinds every shown row without treating the rebinds as
// user scrolling.
func (h *ListHost) refreshAll() {
	h.refreshing = true
	h.list.Refresh()
	h.refreshing = false
}

// ItemCountChanged implements shell.Host.
func (h *ListHost) ItemCountChanged(n int) {
	h.count.Store(int64(n))
	fyne.Do(func() {
		if h.cursor >= n {
			h.cursor = n - 1
		}
		h.refreshAll()
	})
}

// RedrawRow implements shell.Host.
func (h *ListHost) RedrawRow(row int) {
	fyne.Do(func() {
		if row >= 0 && row < int(h.count.Load()) {
			h.list.RefreshItem(row)
		}
	})
}

// RedrawRange implements shell.Host. Rows outside the viewport are
// skipped; they are bound afresh when scrolled in.
func (h *ListHost) RedrawRange(from, to int) {
	fyne.Do(func() {
		n := int(h.count.Load())
		for row := max(from, 0); row <= to && row < n; row++ {
			if h.viewport.contains(row) {
				h.list.RefreshItem(row)
			}
		}
	})
}

// RedrawAll implements shell.Host.
func (h *ListHost) RedrawAll() {
	fyne.Do(h.refreshAll)
}

// IsRowVisible implements shell.Host. Safe from any goroutine.
func (h *ListHost) IsRowVisible(row int) bool {
	return h.viewport.contains(row)
}

// Cursor returns the row under the cursor, -1 for none.
func (h *ListHost) Cursor() int { return h.cursor }

// SetCursor moves the cursor and scrolls it into view.
func (h *ListHost) SetCursor(row int) {
	if row < 0 || row >= int(h.count.Load()) {
		return
	}
	h.list.Select(row)
	h.list.ScrollTo(row)
}

// ResetForNavigation clears selection and cursor and scrolls to the top.
func (h *ListHost) ResetForNavigation() {
	clear(h.selected)
	h.cursor = -1
	h.list.UnselectAll()
	h.refreshing = true
	h.list.ScrollToTop()
	h.lastOffset = 0
	h.refreshing = false
	h.scroll.stop()
	if h.count.Load() > 0 {
		h.SetCursor(0)
	}
}

// ToggleSelected flips the selection of the item at row.
func (h *ListHost) ToggleSelected(row int) {
	it, ok := h.session.Item(row)
	if !ok {
		return
	}
	if h.selected[it.ID] {
		delete(h.selected, it.ID)
	} else {
		h.selected[it.ID] = true
	}
	h.list.RefreshItem(row)
}

// Deselect drops id from the selection, e.g. after it was deleted.
func (h *ListHost) Deselect(id shell.Identity) {
	delete(h.selected, id)
}

// Selection returns the selected items in row order, or the cursor item
// when nothing is selected.
func (h *ListHost) Selection() []*shell.ItemRef {
	var out []*shell.ItemRef
	if len(h.selected) > 0 {
		for _, it := range h.session.Items() {
			if h.selected[it.ID] {
				out = append(out, it)
			}
		}
		return out
	}
	if it, ok := h.session.Item(h.cursor); ok {
		out = append(out, it)
	}
	return out
}

// SetIconSize changes the drawn icon size; the session drops its icon
// caches and redraws.
func (h *ListHost) SetIconSize(size int) {
	h.iconSize = float32(size)
	h.dbg("icon size %d", size)
	h.session.Resize(size)
}

// Close stops scroll tracking.
func (h *ListHost) Close() {
	h.scroll.stop()
}
