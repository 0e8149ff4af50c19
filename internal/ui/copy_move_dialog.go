package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/keymanager"
	"shellview/internal/shell"
)

// maxShownTargets caps the source list; the rest is summarized.
const maxShownTargets = 20

// CopyMoveDialog asks for the destination folder of a copy or move.
type CopyMoveDialog struct {
	op      shell.OpKind
	targets []string
	initial string

	destEntry *widget.Entry
	km        *keymanager.KeyManager
	handler   keymanager.KeyHandler
	dialog    dialog.Dialog
	closed    bool
	onAccept  func(dest string)
}

// NewCopyMoveDialog prepares a prompt for op over targets, prefilled
// with initial.
func NewCopyMoveDialog(op shell.OpKind, targets []string, initial string, km *keymanager.KeyManager) *CopyMoveDialog {
	return &CopyMoveDialog{op: op, targets: targets, initial: initial, km: km}
}

// ShowDialog renders the dialog. onAccept receives the trimmed,
// non-empty destination.
func (d *CopyMoveDialog) ShowDialog(parent fyne.Window, onAccept func(dest string)) {
	d.onAccept = onAccept

	header := widget.NewLabel(fmt.Sprintf("%s %d item(s)", d.op, len(d.targets)))
	header.TextStyle.Bold = true

	shown := d.targets
	if len(shown) > maxShownTargets {
		shown = shown[:maxShownTargets]
	}
	lines := strings.Join(shown, "\n")
	if extra := len(d.targets) - len(shown); extra > 0 {
		lines += fmt.Sprintf("\n... and %d more", extra)
	}
	targets := widget.NewLabel(lines)
	scroll := container.NewVScroll(targets)
	scroll.SetMinSize(fyne.NewSize(520, 140))

	d.destEntry = widget.NewEntry()
	d.destEntry.SetText(d.initial)
	d.destEntry.SetPlaceHolder("Destination folder")
	d.destEntry.OnSubmitted = func(string) { d.AcceptDialog() }

	content := container.NewBorder(header, container.NewBorder(nil, nil, widget.NewLabel("To:"), nil, d.destEntry), nil, nil, scroll)

	d.handler = keymanager.NewFormDialogKeyHandler("CopyMoveDialog", d)
	d.km.PushHandler(d.handler)
	d.dialog = dialog.NewCustomConfirm(d.op.String(), d.op.String(), "Cancel", content, func(ok bool) {
		if ok {
			d.accept()
		}
		d.release()
	}, parent)
	d.dialog.Resize(fyne.NewSize(600, 320))
	d.dialog.Show()
	parent.Canvas().Focus(d.destEntry)
}

func (d *CopyMoveDialog) accept() {
	dest := strings.TrimSpace(d.destEntry.Text)
	if dest == "" || d.onAccept == nil {
		return
	}
	d.onAccept(dest)
}

func (d *CopyMoveDialog) release() {
	if d.closed {
		return
	}
	d.closed = true
	d.km.RemoveHandler(d.handler)
}

// AcceptDialog starts the operation.
func (d *CopyMoveDialog) AcceptDialog() {
	if d.closed {
		return
	}
	d.accept()
	d.release()
	d.dialog.Hide()
}

// CancelDialog closes without doing anything.
func (d *CopyMoveDialog) CancelDialog() {
	if d.closed {
		return
	}
	d.release()
	d.dialog.Hide()
}
