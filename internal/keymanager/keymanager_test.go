package keymanager

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type fakeView struct {
	cursor   int
	rows     int
	selected map[int]bool
	calls    []string
	zoom     int
	typed    string
}

func newFakeView(rows int) *fakeView {
	return &fakeView{rows: rows, selected: map[int]bool{}}
}

func (v *fakeView) CursorRow() int         { return v.cursor }
func (v *fakeView) SetCursor(row int)      { v.cursor = row }
func (v *fakeView) RowCount() int          { return v.rows }
func (v *fakeView) ToggleSelected(row int) { v.selected[row] = !v.selected[row] }
func (v *fakeView) InvokeCursor()          { v.calls = append(v.calls, "invoke") }
func (v *fakeView) GoUp()                  { v.calls = append(v.calls, "up") }
func (v *fakeView) GoRoot()                { v.calls = append(v.calls, "root") }
func (v *fakeView) Refresh()               { v.calls = append(v.calls, "refresh") }
func (v *fakeView) RenameCursor()          { v.calls = append(v.calls, "rename") }
func (v *fakeView) CopySelection()         { v.calls = append(v.calls, "copy") }
func (v *fakeView) MoveSelection()         { v.calls = append(v.calls, "move") }
func (v *fakeView) NewFolder()             { v.calls = append(v.calls, "mkdir") }
func (v *fakeView) ToggleHidden()          { v.calls = append(v.calls, "hidden") }
func (v *fakeView) ZoomIcons(delta int)    { v.zoom += delta }
func (v *fakeView) ShowSortDialog()        { v.calls = append(v.calls, "sort") }
func (v *fakeView) ShowJobsDialog()        { v.calls = append(v.calls, "jobs") }
func (v *fakeView) TypeAhead(r rune)       { v.typed += string(r) }
func (v *fakeView) DeleteSelection(permanent bool) {
	if permanent {
		v.calls = append(v.calls, "delete!")
	} else {
		v.calls = append(v.calls, "delete")
	}
}

func key(name fyne.KeyName) *fyne.KeyEvent { return &fyne.KeyEvent{Name: name} }

func TestCursorMovement(t *testing.T) {
	testCases := []struct {
		name  string
		start int
		shift bool
		key   fyne.KeyName
		want  int
	}{
		{"down", 0, false, fyne.KeyDown, 1},
		{"up at top", 0, false, fyne.KeyUp, 0},
		{"down at bottom", 49, false, fyne.KeyDown, 49},
		{"shift down", 5, true, fyne.KeyDown, 25},
		{"shift down clamps", 40, true, fyne.KeyDown, 49},
		{"shift up clamps", 10, true, fyne.KeyUp, 0},
		{"page down", 0, false, fyne.KeyPageDown, 20},
		{"home", 30, false, fyne.KeyHome, 0},
		{"end", 3, false, fyne.KeyEnd, 49},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newFakeView(50)
			v.cursor = tc.start
			km := NewKeyManager(nil)
			km.PushHandler(NewListViewKeyHandler(v, nil))
			if tc.shift {
				km.HandleKeyDown(key(desktop.KeyShiftLeft))
			}
			km.HandleTypedKey(key(tc.key))
			if v.cursor != tc.want {
				t.Errorf("cursor = %d, want %d", v.cursor, tc.want)
			}
		})
	}
}

func TestEmptyListKeepsCursor(t *testing.T) {
	v := newFakeView(0)
	v.cursor = -1
	h := NewListViewKeyHandler(v, nil)
	h.OnTypedKey(key(fyne.KeyDown), ModifierState{})
	h.OnTypedKey(key(fyne.KeySpace), ModifierState{})
	if v.cursor != -1 || len(v.selected) != 0 {
		t.Errorf("cursor %d selected %v", v.cursor, v.selected)
	}
}

func TestCommands(t *testing.T) {
	v := newFakeView(10)
	km := NewKeyManager(nil)
	km.PushHandler(NewListViewKeyHandler(v, nil))

	km.HandleTypedKey(key(fyne.KeyReturn))
	km.HandleTypedKey(key(fyne.KeyBackspace))
	km.HandleTypedKey(key(fyne.KeyF2))
	km.HandleTypedKey(key(fyne.KeyF5))
	km.HandleTypedKey(key(fyne.KeyDelete))
	km.HandleKeyDown(key(desktop.KeyShiftRight))
	km.HandleTypedKey(key(fyne.KeyDelete))
	km.HandleTypedKey(key(fyne.KeyBackspace))
	km.HandleKeyUp(key(desktop.KeyShiftRight))

	km.HandleKeyDown(key(desktop.KeyControlLeft))
	for _, k := range []fyne.KeyName{fyne.KeyC, fyne.KeyX, fyne.KeyN, fyne.KeyH, fyne.KeyS, fyne.KeyJ, fyne.KeyEqual, fyne.KeyEqual, fyne.KeyMinus} {
		km.HandleKeyDown(key(k))
	}
	// typed keys are ignored while Ctrl is held
	km.HandleTypedKey(key(fyne.KeyF5))
	km.HandleKeyUp(key(desktop.KeyControlLeft))

	want := []string{"invoke", "up", "rename", "refresh", "delete", "delete!", "root", "copy", "move", "mkdir", "hidden", "sort", "jobs"}
	if len(v.calls) != len(want) {
		t.Fatalf("calls = %v", v.calls)
	}
	for i := range want {
		if v.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", v.calls, want)
		}
	}
	if v.zoom != 1 {
		t.Errorf("zoom = %d", v.zoom)
	}
}

func TestSpaceTogglesAndAdvances(t *testing.T) {
	v := newFakeView(3)
	h := NewListViewKeyHandler(v, nil)
	h.OnTypedKey(key(fyne.KeySpace), ModifierState{})
	h.OnTypedKey(key(fyne.KeySpace), ModifierState{})
	if !v.selected[0] || !v.selected[1] || v.cursor != 2 {
		t.Errorf("selected %v cursor %d", v.selected, v.cursor)
	}
}

type formDialog struct{ accepted, canceled int }

func (f *formDialog) AcceptDialog() { f.accepted++ }
func (f *formDialog) CancelDialog() { f.canceled++ }

func TestHandlerStack(t *testing.T) {
	v := newFakeView(10)
	km := NewKeyManager(nil)
	list := NewListViewKeyHandler(v, nil)
	km.PushHandler(list)

	dlg := &formDialog{}
	form := NewFormDialogKeyHandler("SortDialog", dlg)
	km.PushHandler(form)
	km.HandleTypedKey(key(fyne.KeyDown))
	km.HandleTypedKey(key(fyne.KeyReturn))
	if v.cursor != 0 || len(v.calls) != 0 {
		t.Error("events leaked to the list under a dialog")
	}
	if dlg.accepted != 1 {
		t.Errorf("accepted = %d", dlg.accepted)
	}
	if names := km.ListHandlers(); len(names) != 2 || names[1] != "SortDialog" {
		t.Errorf("handlers = %v", names)
	}

	canceled := 0
	busy := NewBusyKeyHandler(func() { canceled++ })
	km.PushHandler(busy)
	km.HandleTypedKey(key(fyne.KeyEscape))
	if canceled != 1 || dlg.canceled != 0 {
		t.Errorf("busy guard: canceled %d, dialog canceled %d", canceled, dlg.canceled)
	}

	if !km.RemoveHandler(form) || km.RemoveHandler(form) {
		t.Error("RemoveHandler should drop the dialog once")
	}
	if km.PopHandler() != busy || km.GetCurrentHandler() != list {
		t.Error("stack order broken")
	}
	km.PopHandler()
	if km.PopHandler() != nil || km.GetStackSize() != 0 {
		t.Error("pop on empty stack should return nil")
	}
	km.HandleTypedKey(key(fyne.KeyDown))
}

func TestModifierTracking(t *testing.T) {
	km := NewKeyManager(nil)
	km.HandleKeyDown(key(desktop.KeyShiftLeft))
	km.HandleKeyDown(key(desktop.KeyAltRight))
	if m := km.Modifiers(); !m.ShiftPressed || !m.AltPressed || m.CtrlPressed {
		t.Errorf("modifiers = %+v", m)
	}
	km.HandleKeyUp(key(desktop.KeyShiftLeft))
	if km.Modifiers().ShiftPressed {
		t.Error("shift still held")
	}
}

func TestTypedRunesGoToTypeAhead(t *testing.T) {
	v := newFakeView(5)
	km := NewKeyManager(nil)
	km.PushHandler(NewListViewKeyHandler(v, nil))
	km.HandleTypedRune('a')
	km.HandleTypedRune(' ')
	km.HandleTypedRune('b')
	km.HandleKeyDown(key(desktop.KeyControlLeft))
	km.HandleTypedRune('c')
	if v.typed != "ab" {
		t.Errorf("typed = %q", v.typed)
	}
}
