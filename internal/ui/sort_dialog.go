package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/keymanager"
	"shellview/internal/shell"
	"shellview/internal/store"
)

const (
	orderAscending  = "Ascending"
	orderDescending = "Descending"
	noGrouping      = "(none)"
)

// SortSettings is what the sort dialog returns.
type SortSettings struct {
	Sort     store.SortSpec
	Grouping *store.Grouping // nil turns grouping off
}

// SortDialog edits the sort column, direction and grouping.
type SortDialog struct {
	columns []shell.Column
	current SortSettings

	sortRadio   *widget.RadioGroup
	orderRadio  *widget.RadioGroup
	groupSelect *widget.Select
	reversed    *widget.Check

	km       *keymanager.KeyManager
	handler  keymanager.KeyHandler
	dialog   dialog.Dialog
	closed   bool
	onAccept func(SortSettings)
}

// NewSortDialog offers every column in columns.
func NewSortDialog(columns []shell.Column, current SortSettings, km *keymanager.KeyManager) *SortDialog {
	return &SortDialog{columns: columns, current: current, km: km}
}

func (d *SortDialog) titles() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Title
	}
	return out
}

func (d *SortDialog) column(title string) (shell.Column, bool) {
	for _, c := range d.columns {
		if c.Title == title {
			return c, true
		}
	}
	return shell.Column{}, false
}

// ShowDialog shows the dialog; onAccept runs on the fyne goroutine.
func (d *SortDialog) ShowDialog(parent fyne.Window, onAccept func(SortSettings)) {
	d.onAccept = onAccept

	d.sortRadio = widget.NewRadioGroup(d.titles(), nil)
	d.sortRadio.SetSelected(d.current.Sort.Column.Title)
	d.orderRadio = widget.NewRadioGroup([]string{orderAscending, orderDescending}, nil)
	d.orderRadio.Horizontal = true
	if d.current.Sort.Descending {
		d.orderRadio.SetSelected(orderDescending)
	} else {
		d.orderRadio.SetSelected(orderAscending)
	}

	d.groupSelect = widget.NewSelect(append([]string{noGrouping}, d.titles()...), nil)
	d.reversed = widget.NewCheck("Reverse group order", nil)
	if g := d.current.Grouping; g != nil {
		d.groupSelect.SetSelected(g.Column.Title)
		d.reversed.SetChecked(g.Reversed)
	} else {
		d.groupSelect.SetSelected(noGrouping)
	}

	form := widget.NewForm(
		widget.NewFormItem("Sort by", d.sortRadio),
		widget.NewFormItem("Order", d.orderRadio),
		widget.NewFormItem("Group by", container.NewVBox(d.groupSelect, d.reversed)),
	)

	d.handler = keymanager.NewFormDialogKeyHandler("SortDialog", d)
	d.km.PushHandler(d.handler)
	d.dialog = dialog.NewCustomConfirm("Sort and group", "Apply", "Cancel", form, func(ok bool) {
		if ok {
			d.accept()
		}
		d.release()
	}, parent)
	d.dialog.Show()
}

func (d *SortDialog) release() {
	if d.closed {
		return
	}
	d.closed = true
	d.km.RemoveHandler(d.handler)
}

// Settings reads the current widget state.
func (d *SortDialog) Settings() SortSettings {
	out := d.current
	if c, ok := d.column(d.sortRadio.Selected); ok {
		out.Sort = store.SortSpec{Column: c, Descending: d.orderRadio.Selected == orderDescending}
	}
	out.Grouping = nil
	if c, ok := d.column(d.groupSelect.Selected); ok {
		out.Grouping = &store.Grouping{Column: c, Reversed: d.reversed.Checked}
	}
	return out
}

func (d *SortDialog) accept() {
	if d.onAccept != nil {
		d.onAccept(d.Settings())
	}
}

// AcceptDialog applies the settings and closes the dialog.
func (d *SortDialog) AcceptDialog() {
	if d.closed {
		return
	}
	d.accept()
	d.release()
	d.dialog.Hide()
}

// CancelDialog closes the dialog without applying anything.
func (d *SortDialog) CancelDialog() {
	if d.closed {
		return
	}
	d.release()
	d.dialog.Hide()
}
