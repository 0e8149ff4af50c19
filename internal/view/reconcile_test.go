package view

import (
	"slices"
	"testing"

	"shellview/internal/shell"
)

func TestReconcilerCreate(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	rec := record(env.session)

	env.provider.add("/f/x.tmp", fakeEntry{})
	env.provider.add("/g/e.txt", fakeEntry{})
	env.provider.add("/f/d.txt", fakeEntry{size: 5})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/x.tmp"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/g/e.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/a.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/vanished.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})

	eventually(t, namesAre(env.session, "C", "a.txt", "b.txt", "d.txt"), "d.txt inserted")
	created := rec.updates(Created)
	if len(created) != 1 || created[0].Item.ID != "/f/d.txt" || created[0].Index != 3 {
		t.Fatalf("created events = %+v", created)
	}
	if env.host.itemCount() != 4 {
		t.Errorf("host count = %d", env.host.itemCount())
	}
	if err := env.session.store.Verify(); err != nil {
		t.Error(err)
	}
}

func TestReconcilerMkdirSortsFolderFirst(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	env.provider.add("/f/zz", fakeEntry{folder: true})
	env.send(shell.ChangeEvent{Kind: shell.EventMkdir, Path: "/f/zz"})
	eventually(t, namesAre(env.session, "C", "zz", "a.txt", "b.txt"), "zz inserted among folders")
}

func TestReconcilerDeleteReplayIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	rec := record(env.session)

	env.provider.remove("/f/a.txt")
	env.provider.add("/f/d.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventDelete, Path: "/f/a.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventDelete, Path: "/f/a.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventRmdir, Path: "/f/nothing"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})

	eventually(t, namesAre(env.session, "C", "b.txt", "d.txt"), "delete then create")
	deleted := rec.updates(Deleted)
	if len(deleted) != 1 || deleted[0].Index != -1 || deleted[0].Item.ID != "/f/a.txt" {
		t.Fatalf("deleted events = %+v", deleted)
	}
}

func TestReconcilerRenameOrphansValues(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	rec := record(s)
	s.values.TryAdd("/f/a.txt", shell.KeySize, int64(1500))

	env.provider.remove("/f/a.txt")
	env.provider.add("/f/z.txt", fakeEntry{size: 1500})
	env.send(shell.ChangeEvent{Kind: shell.EventRename, Path: "/f/a.txt", NewPath: "/f/z.txt"})

	eventually(t, namesAre(s, "C", "b.txt", "z.txt"), "rename applied")
	renamed := rec.updates(Renamed)
	if len(renamed) != 1 || renamed[0].Previous.ID != "/f/a.txt" || renamed[0].Item.ID != "/f/z.txt" || renamed[0].Index != 2 {
		t.Fatalf("renamed events = %+v", renamed)
	}
	if s.values.CountFor("/f/a.txt") != 1 {
		t.Error("values of the old identity should stay cached")
	}
	if s.values.CountFor("/f/z.txt") != 0 {
		t.Error("new identity must resolve its own values")
	}
	if len(rec.updates(Created)) != 0 {
		t.Error("plain rename must not fire Created")
	}
}

func TestReconcilerRenameWithMarker(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	rec := record(s)
	row := rowOf(t, s, "/f/b.txt")
	s.SetRefreshMarker(row)

	// a create never consumes the marker
	env.provider.add("/f/d.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})
	eventually(t, namesAre(s, "C", "a.txt", "b.txt", "d.txt"), "create applied")
	if s.RefreshMarker() != row {
		t.Fatalf("marker = %d after a create, want %d", s.RefreshMarker(), row)
	}

	env.provider.remove("/f/b.txt")
	env.provider.add("/f/a2.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventRename, Path: "/f/b.txt", NewPath: "/f/a2.txt"})

	eventually(t, namesAre(s, "C", "a.txt", "a2.txt", "d.txt"), "rename at marker")
	if created := rec.updates(Created); len(created) != 2 || created[1].Item.ID != "/f/a2.txt" {
		t.Fatalf("created events = %+v", created)
	}
	if len(rec.updates(Renamed)) != 0 {
		t.Error("marker rename must fire Created, not Renamed")
	}
	if s.RefreshMarker() != -1 {
		t.Error("marker not reset after rename")
	}
}

func TestReconcilerRenameOutOfFolder(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	env.provider.remove("/f/a.txt")
	env.provider.add("/g/a.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventRename, Path: "/f/a.txt", NewPath: "/g/a.txt"})
	eventually(t, namesAre(env.session, "C", "b.txt"), "moved item removed")
}

func TestReconcilerUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	rec := record(s)
	old, _ := s.store.Get("/f/a.txt")
	old.SetOverlayIndex(3)
	s.values.TryAdd("/f/a.txt", shell.KeySize, int64(1500))

	env.provider.add("/f/a.txt", fakeEntry{size: 99999})
	env.send(shell.ChangeEvent{Kind: shell.EventUpdate, Path: "/f/a.txt"})
	env.send(shell.ChangeEvent{Kind: shell.EventUpdate, Path: "/f/unknown.txt"})

	eventually(t, func() bool { return len(rec.updates(Updated)) == 1 }, "update applied")
	cur, _ := s.store.Get("/f/a.txt")
	if cur == old || cur.Size != 99999 {
		t.Fatalf("item not refreshed: size %d", cur.Size)
	}
	if cur.OverlayIndex() != shell.Unresolved {
		t.Error("resolved state should be reset")
	}
	if s.values.CountFor("/f/a.txt") != 0 {
		t.Error("cached values should be dropped")
	}
	if err := s.store.Verify(); err != nil {
		t.Error(err)
	}
}

func TestReconcilerDriveEvents(t *testing.T) {
	env := newTestEnv(t)
	env.provider.add("/mnt", fakeEntry{folder: true})
	env.provider.add("/mnt/usb", fakeEntry{folder: true})
	env.provider.addDrive("/mnt/usb", "USB Stick")
	env.navigate(t, "/f")

	// drive events are ignored outside the root
	env.provider.add("/f/d.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventDriveAdd, Path: "/mnt/usb"})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})
	eventually(t, namesAre(env.session, "C", "a.txt", "b.txt", "d.txt"), "create after drive event")

	env.navigate(t, rootID)
	if env.session.Len() != 0 {
		t.Fatalf("root = %v", names(env.session))
	}
	env.send(shell.ChangeEvent{Kind: shell.EventDriveAdd, Path: "/mnt/usb"})
	eventually(t, namesAre(env.session, "USB Stick"), "drive added")
	it, _ := env.session.Item(0)
	if it.PerceivedType != shell.PerceivedDrive || it.Kind != shell.KindVirtual || it.ParentPath != rootID {
		t.Errorf("drive item = %+v, want the root enumeration's drive entry", it)
	}
	env.send(shell.ChangeEvent{Kind: shell.EventDriveRemove, Path: "/mnt/usb"})
	eventually(t, func() bool { return env.session.Len() == 0 }, "drive removed")
}

func TestReconcilerStopsOnNavigate(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	old := env.watcher.last()
	env.provider.add("/g/x.txt", fakeEntry{})
	env.provider.add("/g/y.txt", fakeEntry{})
	env.navigate(t, "/g")

	old.events <- shell.ChangeEvent{Kind: shell.EventDelete, Path: "/g/x.txt"}
	env.provider.add("/g/z.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/g/z.txt"})
	eventually(t, namesAre(env.session, "x.txt", "y.txt", "z.txt"), "new source applied")
	if !old.closed.Load() {
		t.Error("old source not closed")
	}
}

func TestReconcilerMarkerWaitsForItsEvent(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	rec := record(s)

	row := rowOf(t, s, "/f/a.txt")
	j, err := s.Rename(row, "n.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Wait(); err != nil {
		t.Fatal(err)
	}

	// unrelated create and rename arrive before the rename's own event
	env.provider.add("/f/d.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})
	env.provider.remove("/f/b.txt")
	env.provider.add("/f/c.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventRename, Path: "/f/b.txt", NewPath: "/f/c.txt"})
	eventually(t, namesAre(s, "C", "a.txt", "c.txt", "d.txt"), "unrelated events applied")
	if s.RefreshMarker() != row {
		t.Fatalf("marker = %d after unrelated events, want %d", s.RefreshMarker(), row)
	}
	if renamed := rec.updates(Renamed); len(renamed) != 1 || renamed[0].Item.ID != "/f/c.txt" {
		t.Fatalf("renamed events = %+v", renamed)
	}

	env.provider.remove("/f/a.txt")
	env.provider.add("/f/n.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventRename, Path: "/f/a.txt", NewPath: "/f/n.txt"})
	eventually(t, namesAre(s, "C", "c.txt", "d.txt", "n.txt"), "rename at marker")
	if len(rec.updates(Renamed)) != 1 {
		t.Error("rename at the marker must not fire Renamed")
	}
	if created := rec.updates(Created); len(created) != 2 || created[1].Item.ID != "/f/n.txt" {
		t.Fatalf("created events = %+v", created)
	}
	if s.RefreshMarker() != -1 {
		t.Error("marker not consumed by its rename")
	}
}

func TestReconcilerNewFolderMarker(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session

	j, err := s.NewFolder("New")
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Wait(); err != nil {
		t.Fatal(err)
	}
	want := s.Len()

	env.provider.add("/f/d.txt", fakeEntry{})
	env.send(shell.ChangeEvent{Kind: shell.EventCreate, Path: "/f/d.txt"})
	eventually(t, namesAre(s, "C", "a.txt", "b.txt", "d.txt"), "unrelated create applied")
	if s.RefreshMarker() != want {
		t.Fatalf("marker = %d after unrelated create, want %d", s.RefreshMarker(), want)
	}

	env.provider.add("/f/New", fakeEntry{folder: true})
	env.send(shell.ChangeEvent{Kind: shell.EventMkdir, Path: "/f/New"})
	eventually(t, namesAre(s, "C", "New", "a.txt", "b.txt", "d.txt"), "new folder inserted")
	if s.RefreshMarker() != -1 {
		t.Error("marker not consumed by the new folder")
	}
}

func TestReconcilerUpdateRedrawsShiftedRows(t *testing.T) {
	env := newTestEnv(t)
	env.navigate(t, "/f")
	s := env.session
	s.SetSortColumn(shell.ColumnFor(shell.KeySize), false)
	if got := names(s); !slices.Equal(got, []string{"C", "b.txt", "a.txt"}) {
		t.Fatalf("order = %v", got)
	}
	before := env.host.fullRedraws()
	seen := len(env.host.redrawnRows())

	env.provider.add("/f/a.txt", fakeEntry{size: 1})
	env.send(shell.ChangeEvent{Kind: shell.EventUpdate, Path: "/f/a.txt"})
	eventually(t, namesAre(s, "C", "a.txt", "b.txt"), "a.txt moved up")
	if env.host.fullRedraws() != before {
		t.Error("one moved row should not redraw the whole list")
	}
	rows := env.host.redrawnRows()[seen:]
	if !slices.Contains(rows, 1) || !slices.Contains(rows, 2) || slices.Contains(rows, 0) {
		t.Errorf("redrawn rows = %v, want 1 and 2 only", rows)
	}
}
