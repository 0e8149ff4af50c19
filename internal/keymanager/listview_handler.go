package keymanager

import (
	"fyne.io/fyne/v2"
)

// pageStep is how far Shift+Up/Down and PageUp/PageDown move the cursor.
const pageStep = 20

// ListViewInterface is what the list view handler drives.
type ListViewInterface interface {
	// cursor
	CursorRow() int
	SetCursor(row int)
	RowCount() int
	ToggleSelected(row int)

	// navigation
	InvokeCursor()
	GoUp()
	GoRoot()
	Refresh()

	// file operations on the selection, or the cursor row without one
	RenameCursor()
	DeleteSelection(permanent bool)
	CopySelection()
	MoveSelection()
	NewFolder()

	// view state
	ToggleHidden()
	ZoomIcons(delta int)
	ShowSortDialog()
	ShowJobsDialog()
	TypeAhead(r rune)
}

// ListViewKeyHandler handles keys for the main list.
type ListViewKeyHandler struct {
	view       ListViewInterface
	debugPrint func(format string, args ...interface{})
}

// NewListViewKeyHandler creates a handler driving view.
func NewListViewKeyHandler(view ListViewInterface, debugPrint func(format string, args ...interface{})) *ListViewKeyHandler {
	return &ListViewKeyHandler{view: view, debugPrint: debugPrint}
}

// GetName returns the name of this handler
func (h *ListViewKeyHandler) GetName() string { return "ListView" }

func (h *ListViewKeyHandler) dbg(format string, args ...interface{}) {
	if h.debugPrint != nil {
		h.debugPrint("ListView: "+format, args...)
	}
}

// OnKeyDown handles Ctrl shortcuts, which fyne reports only as key
// down events.
func (h *ListViewKeyHandler) OnKeyDown(ev *fyne.KeyEvent, modifiers ModifierState) bool {
	if !modifiers.CtrlPressed {
		return false
	}
	switch ev.Name {
	case fyne.KeyC:
		h.view.CopySelection()
	case fyne.KeyX:
		h.view.MoveSelection()
	case fyne.KeyN:
		h.view.NewFolder()
	case fyne.KeyH:
		h.view.ToggleHidden()
	case fyne.KeyS:
		h.view.ShowSortDialog()
	case fyne.KeyJ:
		h.view.ShowJobsDialog()
	case fyne.KeyEqual, fyne.KeyPlus:
		h.view.ZoomIcons(1)
	case fyne.KeyMinus:
		h.view.ZoomIcons(-1)
	default:
		return false
	}
	h.dbg("Ctrl+%s", ev.Name)
	return true
}

// OnKeyUp handles key release events
func (h *ListViewKeyHandler) OnKeyUp(_ *fyne.KeyEvent, _ ModifierState) bool { return false }

// OnTypedKey handles cursor movement and single-key commands.
func (h *ListViewKeyHandler) OnTypedKey(ev *fyne.KeyEvent, modifiers ModifierState) bool {
	if modifiers.CtrlPressed {
		return false
	}
	cur := h.view.CursorRow()
	switch ev.Name {
	case fyne.KeyUp:
		if modifiers.ShiftPressed {
			h.moveTo(cur - pageStep)
		} else {
			h.moveTo(cur - 1)
		}
	case fyne.KeyDown:
		if modifiers.ShiftPressed {
			h.moveTo(cur + pageStep)
		} else {
			h.moveTo(cur + 1)
		}
	case fyne.KeyPageUp:
		h.moveTo(cur - pageStep)
	case fyne.KeyPageDown:
		h.moveTo(cur + pageStep)
	case fyne.KeyHome:
		h.moveTo(0)
	case fyne.KeyEnd:
		h.moveTo(h.view.RowCount() - 1)
	case fyne.KeyReturn, fyne.KeyEnter:
		h.view.InvokeCursor()
	case fyne.KeyBackspace:
		if modifiers.ShiftPressed {
			h.view.GoRoot()
		} else {
			h.view.GoUp()
		}
	case fyne.KeySpace:
		if cur >= 0 {
			h.view.ToggleSelected(cur)
			h.moveTo(cur + 1)
		}
	case fyne.KeyF2:
		h.view.RenameCursor()
	case fyne.KeyF5:
		h.view.Refresh()
	case fyne.KeyDelete:
		h.view.DeleteSelection(modifiers.ShiftPressed)
	default:
		return false
	}
	return true
}

// OnTypedRune jumps to the item whose name starts with what was typed.
func (h *ListViewKeyHandler) OnTypedRune(r rune, modifiers ModifierState) bool {
	if modifiers.CtrlPressed || modifiers.AltPressed || r == ' ' {
		return false
	}
	h.view.TypeAhead(r)
	return true
}

// moveTo clamps row into the list; an empty list keeps the cursor at -1.
func (h *ListViewKeyHandler) moveTo(row int) {
	n := h.view.RowCount()
	if n == 0 {
		return
	}
	row = max(0, min(row, n-1))
	if row != h.view.CursorRow() {
		h.view.SetCursor(row)
	}
}
