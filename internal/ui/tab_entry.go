package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// PathEntry is the location bar. It consumes Tab so focus does not
// wander off into the toolbar; Tab and Escape both hand focus back to
// the list, Escape also restoring the current location.
type PathEntry struct {
	widget.Entry
	current string
	onLeave func()
}

// NewPathEntry creates the entry. onSubmit receives the typed path;
// onLeave is called when the entry gives up focus by key.
func NewPathEntry(onSubmit func(path string), onLeave func()) *PathEntry {
	e := &PathEntry{onLeave: onLeave}
	e.ExtendBaseWidget(e)
	e.SetPlaceHolder("Location")
	e.OnSubmitted = onSubmit
	return e
}

// SetLocation shows path as the current location.
func (e *PathEntry) SetLocation(path string) {
	e.current = path
	e.SetText(path)
}

// AcceptsTab indicates this entry consumes Tab so focus will not move.
func (e *PathEntry) AcceptsTab() bool { return true }

// TypedKey intercepts Tab and Escape; everything else edits the text.
func (e *PathEntry) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyEscape:
		e.SetText(e.current)
		fallthrough
	case fyne.KeyTab:
		if e.onLeave != nil {
			e.onLeave()
		}
	default:
		e.Entry.TypedKey(ev)
	}
}
