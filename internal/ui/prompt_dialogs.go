package ui

import (
	"errors"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/keymanager"
)

var errInvalidName = errors.New("not a valid name")

// NameDialog asks for a single item name, for rename and new folder.
type NameDialog struct {
	title   string
	initial string

	entry    *widget.Entry
	km       *keymanager.KeyManager
	handler  keymanager.KeyHandler
	dialog   dialog.Dialog
	closed   bool
	onAccept func(name string)
}

func NewNameDialog(title, initial string, km *keymanager.KeyManager) *NameDialog {
	return &NameDialog{title: title, initial: initial, km: km}
}

// ShowDialog shows the prompt. Names that are empty, unchanged or
// contain a path separator are not accepted.
func (d *NameDialog) ShowDialog(parent fyne.Window, onAccept func(name string)) {
	d.onAccept = onAccept
	d.entry = widget.NewEntry()
	d.entry.SetText(d.initial)
	d.entry.Validator = validName
	d.entry.OnSubmitted = func(string) { d.AcceptDialog() }

	d.handler = keymanager.NewFormDialogKeyHandler("NameDialog", d)
	d.km.PushHandler(d.handler)
	d.dialog = dialog.NewForm(d.title, "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", d.entry)},
		func(ok bool) {
			if ok {
				d.accept()
			}
			d.release()
		}, parent)
	d.dialog.Resize(fyne.NewSize(420, 160))
	d.dialog.Show()
	parent.Canvas().Focus(d.entry)
}

func validName(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "." || s == "..":
		return errInvalidName
	case strings.ContainsAny(s, `/\`):
		return errInvalidName
	}
	return nil
}

func (d *NameDialog) accept() {
	name := strings.TrimSpace(d.entry.Text)
	if validName(name) != nil || name == d.initial || d.onAccept == nil {
		return
	}
	d.onAccept(name)
}

func (d *NameDialog) release() {
	if d.closed {
		return
	}
	d.closed = true
	d.km.RemoveHandler(d.handler)
}

func (d *NameDialog) AcceptDialog() {
	if d.closed {
		return
	}
	d.accept()
	d.release()
	d.dialog.Hide()
}

func (d *NameDialog) CancelDialog() {
	if d.closed {
		return
	}
	d.release()
	d.dialog.Hide()
}

// ConfirmDialog asks a yes/no question, e.g. before deleting.
type ConfirmDialog struct {
	keyManager *keymanager.KeyManager
	handler    keymanager.KeyHandler
	dialog     dialog.Dialog
	callback   func(bool)
	closed     bool
}

func NewConfirmDialog(km *keymanager.KeyManager) *ConfirmDialog {
	return &ConfirmDialog{keyManager: km}
}

// ShowDialog shows message; callback receives the answer exactly once.
func (cd *ConfirmDialog) ShowDialog(parent fyne.Window, title, message string, callback func(bool)) {
	cd.callback = callback
	cd.handler = keymanager.NewFormDialogKeyHandler("ConfirmDialog", cd)
	cd.keyManager.PushHandler(cd.handler)

	label := widget.NewLabel(message)
	label.Wrapping = fyne.TextWrapWord
	cd.dialog = dialog.NewCustomConfirm(title, "Yes", "No", label, cd.finish, parent)
	cd.dialog.Resize(fyne.NewSize(420, 160))
	cd.dialog.Show()
}

func (cd *ConfirmDialog) finish(confirmed bool) {
	if cd.closed {
		return
	}
	cd.closed = true
	cd.keyManager.RemoveHandler(cd.handler)
	if cd.callback != nil {
		cd.callback(confirmed)
	}
}

func (cd *ConfirmDialog) AcceptDialog() {
	cd.finish(true)
	cd.dialog.Hide()
}

func (cd *ConfirmDialog) CancelDialog() {
	cd.finish(false)
	cd.dialog.Hide()
}
