package keymanager

import (
	"fyne.io/fyne/v2"
)

// BusyKeyHandler swallows all key input while a navigation is in
// flight. Escape calls cancel when it is set.
type BusyKeyHandler struct {
	cancel func()
}

func NewBusyKeyHandler(cancel func()) *BusyKeyHandler { return &BusyKeyHandler{cancel: cancel} }

func (b *BusyKeyHandler) GetName() string { return "BusyGuard" }

func (b *BusyKeyHandler) OnKeyDown(_ *fyne.KeyEvent, _ ModifierState) bool { return true }
func (b *BusyKeyHandler) OnKeyUp(_ *fyne.KeyEvent, _ ModifierState) bool   { return true }
func (b *BusyKeyHandler) OnTypedRune(_ rune, _ ModifierState) bool         { return true }

func (b *BusyKeyHandler) OnTypedKey(ev *fyne.KeyEvent, _ ModifierState) bool {
	if ev.Name == fyne.KeyEscape && b.cancel != nil {
		b.cancel()
	}
	return true
}

// FormDialogInterface is a dialog that can be accepted or dismissed.
type FormDialogInterface interface {
	AcceptDialog()
	CancelDialog()
}

// FormDialogKeyHandler maps Enter and Escape for simple form dialogs
// (sort settings, destination prompt, rename). Other keys go to the
// focused widget.
type FormDialogKeyHandler struct {
	name string
	dlg  FormDialogInterface
}

func NewFormDialogKeyHandler(name string, d FormDialogInterface) *FormDialogKeyHandler {
	return &FormDialogKeyHandler{name: name, dlg: d}
}

func (h *FormDialogKeyHandler) GetName() string { return h.name }

func (h *FormDialogKeyHandler) OnKeyDown(_ *fyne.KeyEvent, _ ModifierState) bool { return false }
func (h *FormDialogKeyHandler) OnKeyUp(_ *fyne.KeyEvent, _ ModifierState) bool   { return false }
func (h *FormDialogKeyHandler) OnTypedRune(_ rune, _ ModifierState) bool         { return false }

func (h *FormDialogKeyHandler) OnTypedKey(ev *fyne.KeyEvent, _ ModifierState) bool {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		h.dlg.AcceptDialog()
		return true
	case fyne.KeyEscape:
		h.dlg.CancelDialog()
		return true
	}
	return false
}

// JobsDialogInterface defines navigation and actions for the Jobs dialog
type JobsDialogInterface interface {
	MoveUp()
	MoveDown()
	MoveToTop()
	MoveToBottom()
	CancelSelected()
	CloseDialog()
}

// JobsDialogKeyHandler handles keys while the Jobs dialog is open
type JobsDialogKeyHandler struct {
	dlg JobsDialogInterface
}

func NewJobsDialogKeyHandler(d JobsDialogInterface) *JobsDialogKeyHandler {
	return &JobsDialogKeyHandler{dlg: d}
}

func (h *JobsDialogKeyHandler) GetName() string { return "JobsDialog" }

func (h *JobsDialogKeyHandler) OnKeyDown(_ *fyne.KeyEvent, _ ModifierState) bool { return false }
func (h *JobsDialogKeyHandler) OnKeyUp(_ *fyne.KeyEvent, _ ModifierState) bool   { return false }
func (h *JobsDialogKeyHandler) OnTypedRune(_ rune, _ ModifierState) bool         { return false }

func (h *JobsDialogKeyHandler) OnTypedKey(ev *fyne.KeyEvent, modifiers ModifierState) bool {
	switch ev.Name {
	case fyne.KeyUp:
		if modifiers.ShiftPressed {
			h.dlg.MoveToTop()
		} else {
			h.dlg.MoveUp()
		}
	case fyne.KeyDown:
		if modifiers.ShiftPressed {
			h.dlg.MoveToBottom()
		} else {
			h.dlg.MoveDown()
		}
	case fyne.KeyDelete:
		h.dlg.CancelSelected()
	case fyne.KeyEscape:
		h.dlg.CloseDialog()
	default:
		return false
	}
	return true
}
