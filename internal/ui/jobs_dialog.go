package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"shellview/internal/jobs"
	"shellview/internal/keymanager"
)

// JobsDialog lists running and finished file operation jobs and lets
// the user cancel one.
type JobsDialog struct {
	manager     *jobs.Manager
	list        *widget.List
	bind        binding.StringList
	items       []jobs.JobSnapshot
	selectedIdx int
	selectedID  int64
	details     *widget.Label
	dialog      dialog.Dialog
	sink        *KeySink
	handler     keymanager.KeyHandler
	parent      fyne.Window
	km          *keymanager.KeyManager
	closed      bool
	debugPrint  func(format string, args ...interface{})
}

func NewJobsDialog(m *jobs.Manager, km *keymanager.KeyManager, debugPrint func(format string, args ...interface{})) *JobsDialog {
	jd := &JobsDialog{manager: m, km: km, debugPrint: debugPrint}
	jd.bind = binding.NewStringList()
	jd.list = widget.NewListWithData(jd.bind,
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(item binding.DataItem, obj fyne.CanvasObject) {
			s, _ := item.(binding.String).Get()
			if l, ok := obj.(*widget.Label); ok {
				l.SetText(s)
			}
		},
	)
	jd.details = widget.NewLabel("")
	jd.details.Wrapping = fyne.TextWrapWord
	jd.list.OnSelected = func(id widget.ListItemID) {
		jd.selectedIdx = id
		if id >= 0 && id < len(jd.items) {
			jd.selectedID = jd.items[id].ID
		}
		jd.updateDetails()
		if jd.parent != nil && jd.sink != nil {
			jd.parent.Canvas().Focus(jd.sink)
		}
	}
	return jd
}

func (jd *JobsDialog) ShowDialog(parent fyne.Window) {
	jd.parent = parent

	cancelBtn := widget.NewButton("Cancel Selected", jd.CancelSelected)
	closeBtn := widget.NewButton("Close", jd.CloseDialog)

	header := widget.NewLabel("File operations")
	header.TextStyle.Bold = true
	split := container.NewVSplit(jd.list, container.NewVScroll(jd.details))
	split.Offset = 0.7
	bottom := container.NewHBox(layout.NewSpacer(), cancelBtn, closeBtn)
	content := container.NewBorder(header, bottom, nil, nil, split)

	jd.manager.Subscribe(func() {
		fyne.Do(func() {
			if !jd.closed {
				jd.refresh()
			}
		})
	})
	jd.handler = keymanager.NewJobsDialogKeyHandler(jd)
	jd.km.PushHandler(jd.handler)
	jd.sink = NewKeySink(content, jd.km, WithTabCapture(true))
	jd.dialog = dialog.NewCustomWithoutButtons("Jobs", jd.sink, parent)
	jd.dialog.SetOnClosed(jd.release)
	jd.dialog.Resize(fyne.NewSize(720, 480))
	jd.dialog.Show()
	jd.refresh()
	parent.Canvas().Focus(jd.sink)
}

func (jd *JobsDialog) release() {
	if jd.closed {
		return
	}
	jd.closed = true
	jd.km.RemoveHandler(jd.handler)
}

func (jd *JobsDialog) refresh() {
	jd.items = jd.manager.List()
	lines := make([]string, len(jd.items))
	for i, it := range jd.items {
		when := it.EnqueuedAt
		if it.Status == jobs.StatusRunning && !it.StartedAt.IsZero() {
			when = it.StartedAt
		}
		lines[i] = fmt.Sprintf("[%s] %s %d/%d %s  (%s)", when.Format("15:04:05"), it.Kind, it.DoneOps, it.TotalOps, target(it), it.Status)
		if it.Status == jobs.StatusFailed {
			lines[i] += "  ERROR"
		}
	}
	_ = jd.bind.Set(lines)
	if jd.selectedIdx >= len(lines) {
		jd.selectedIdx = len(lines) - 1
	}
	if jd.selectedIdx >= 0 && len(lines) > 0 {
		jd.list.Select(jd.selectedIdx)
	}
	jd.updateDetails()
}

// target describes what a job works on.
func target(it jobs.JobSnapshot) string {
	if len(it.Ops) == 0 {
		return ""
	}
	op := it.Ops[0]
	var b strings.Builder
	b.WriteString(op.Source)
	if len(it.Ops) > 1 {
		fmt.Fprintf(&b, " (+%d)", len(it.Ops)-1)
	}
	switch {
	case op.Dest != "" && op.Name != "":
		b.WriteString(" -> " + op.Dest + "/" + op.Name)
	case op.Dest != "":
		b.WriteString(" -> " + op.Dest)
	case op.Name != "":
		b.WriteString(" -> " + op.Name)
	}
	return b.String()
}

func (jd *JobsDialog) updateDetails() {
	if jd.selectedIdx < 0 || jd.selectedIdx >= len(jd.items) {
		jd.details.SetText("")
		return
	}
	it := jd.items[jd.selectedIdx]
	b := &strings.Builder{}
	fmt.Fprintf(b, "Job #%d %s %s\nStatus: %s, %d/%d completed\n", it.ID, it.Kind, target(it), it.Status, it.DoneOps, it.TotalOps)
	if it.CurrentSource != "" && it.Status == jobs.StatusRunning {
		fmt.Fprintf(b, "Current: %s\n", it.CurrentSource)
	}
	if it.Status == jobs.StatusFailed {
		if len(it.Failures) > 0 {
			fmt.Fprintln(b, "Failures:")
			for _, f := range it.Failures {
				if f.TopSource != "" {
					fmt.Fprintf(b, "  - item: %s\n", f.TopSource)
				}
				if f.Path != "" {
					fmt.Fprintf(b, "    path: %s\n", f.Path)
				}
				if f.Error != "" {
					fmt.Fprintf(b, "    error: %s\n", f.Error)
				}
			}
		} else if it.Error != "" {
			fmt.Fprintf(b, "Error: %s\n", it.Error)
		}
	}
	jd.details.SetText(b.String())
}

// JobsDialogInterface implementation

func (jd *JobsDialog) MoveUp() { jd.selectRow(jd.selectedIdx - 1) }

func (jd *JobsDialog) MoveDown() { jd.selectRow(jd.selectedIdx + 1) }

func (jd *JobsDialog) MoveToTop() { jd.selectRow(0) }

func (jd *JobsDialog) MoveToBottom() { jd.selectRow(len(jd.items) - 1) }

func (jd *JobsDialog) selectRow(i int) {
	if i < 0 || i >= len(jd.items) {
		return
	}
	jd.list.Select(i)
	jd.list.ScrollTo(i)
}

func (jd *JobsDialog) CancelSelected() {
	if jd.selectedID == 0 {
		return
	}
	if jd.manager.Cancel(jd.selectedID) && jd.debugPrint != nil {
		jd.debugPrint("ui: job %d cancel requested", jd.selectedID)
	}
}

func (jd *JobsDialog) CloseDialog() {
	if jd.dialog != nil {
		jd.dialog.Hide()
	}
	jd.release()
}
