package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"shellview/internal/constants"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

func dummyDebug(format string, args ...interface{}) {}

type fakeEntry struct {
	name  string
	size  int64
	mod   time.Time
	isDir bool
}

func (e fakeEntry) Name() string               { return e.name }
func (e fakeEntry) IsDir() bool                { return e.isDir }
func (e fakeEntry) Type() fs.FileMode          { return e.Mode().Type() }
func (e fakeEntry) Info() (fs.FileInfo, error) { return e, nil }
func (e fakeEntry) Size() int64                { return e.size }
func (e fakeEntry) ModTime() time.Time         { return e.mod }
func (e fakeEntry) Sys() any                   { return nil }
func (e fakeEntry) Mode() fs.FileMode {
	if e.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}

// fakeDir is a DirReader whose listing can be swapped between polls.
type fakeDir struct {
	mu      sync.Mutex
	entries []os.DirEntry
	err     error
}

func (d *fakeDir) ReadDir(string) ([]os.DirEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]os.DirEntry(nil), d.entries...), d.err
}

func (d *fakeDir) set(entries ...os.DirEntry) {
	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
}

// next waits for an event matching want, skipping others.
func next(t *testing.T, ch <-chan shell.ChangeEvent, want func(shell.ChangeEvent) bool) shell.ChangeEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed")
			}
			if want(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func kind(k shell.EventKind) func(shell.ChangeEvent) bool {
	return func(ev shell.ChangeEvent) bool { return ev.Kind == k }
}

func TestDetectChanges_AddedDeletedModified(t *testing.T) {
	t1 := time.Now().Add(-time.Hour)
	t2 := time.Now()
	dir := &fakeDir{}
	dir.set(
		fakeEntry{name: "a.txt", size: 10, mod: t1},
		fakeEntry{name: "b.txt", size: 5, mod: t1},
	)
	ps := NewPollingSource(dir, "/tmp", "/tmp", time.Hour, dummyDebug)
	defer ps.Close()

	current := map[string]snapshotEntry{
		"/tmp/a.txt": {size: 20, modified: t2},
		"/tmp/c.txt": {size: 1, modified: t2},
	}
	added, deleted, modified := ps.detectChanges(current)
	if len(added) != 1 || added[0] != "/tmp/c.txt" {
		t.Fatalf("expected 1 added c.txt, got %#v", added)
	}
	if len(deleted) != 1 || deleted[0] != "/tmp/b.txt" {
		t.Fatalf("expected 1 deleted b.txt, got %#v", deleted)
	}
	if len(modified) != 1 || modified[0] != "/tmp/a.txt" {
		t.Fatalf("expected 1 modified a.txt, got %#v", modified)
	}
}

func TestPollingSourceEmitsEvents(t *testing.T) {
	now := time.Now()
	dir := &fakeDir{}
	dir.set(fakeEntry{name: "keep.txt", mod: now}, fakeEntry{name: "old", isDir: true, mod: now})
	ps := NewPollingSource(dir, "/data", "/data", 10*time.Millisecond, dummyDebug)
	defer ps.Close()

	dir.set(
		fakeEntry{name: "keep.txt", size: 3, mod: now.Add(time.Second)},
		fakeEntry{name: "new.txt", mod: now},
		fakeEntry{name: "newdir", isDir: true, mod: now},
	)

	got := map[shell.EventKind]string{}
	for len(got) < 4 {
		ev := next(t, ps.Events(), func(shell.ChangeEvent) bool { return true })
		got[ev.Kind] = ev.Path
	}
	want := map[shell.EventKind]string{
		shell.EventRmdir:  filepath.Join("/data", "old"),
		shell.EventCreate: filepath.Join("/data", "new.txt"),
		shell.EventMkdir:  filepath.Join("/data", "newdir"),
		shell.EventUpdate: filepath.Join("/data", "keep.txt"),
	}
	for k, p := range want {
		if got[k] != p {
			t.Errorf("%v: got %q, want %q", k, got[k], p)
		}
	}
}

func TestPollingSourceSkipsFailedRound(t *testing.T) {
	dir := &fakeDir{}
	dir.set(fakeEntry{name: "a"})
	ps := NewPollingSource(dir, "/d", "/d", 10*time.Millisecond, dummyDebug)
	defer ps.Close()

	dir.mu.Lock()
	dir.err = errors.New("offline")
	dir.mu.Unlock()
	select {
	case ev := <-ps.Events():
		t.Fatalf("unexpected event %+v while listing fails", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollingSourceCloseIsIdempotent(t *testing.T) {
	ps := NewPollingSource(&fakeDir{}, "/d", "/d", time.Millisecond, dummyDebug)
	if err := ps.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ps.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ps.Events(); ok {
		t.Error("events should be closed")
	}
}

func TestDriveSource(t *testing.T) {
	var mu sync.Mutex
	drives := []fileinfo.Drive{{Path: "/", Label: "System"}}
	list := func() ([]fileinfo.Drive, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]fileinfo.Drive(nil), drives...), nil
	}
	ds := NewDriveSource(list, 10*time.Millisecond, dummyDebug)
	defer ds.Close()

	mu.Lock()
	drives = append(drives, fileinfo.Drive{Path: "/media/usb", Label: "usb"})
	mu.Unlock()
	ev := next(t, ds.Events(), kind(shell.EventDriveAdd))
	if ev.Path != fileinfo.CleanPath("/media/usb") {
		t.Errorf("added %q", ev.Path)
	}

	mu.Lock()
	drives = drives[:1]
	mu.Unlock()
	ev = next(t, ds.Events(), kind(shell.EventDriveRemove))
	if ev.Path != fileinfo.CleanPath("/media/usb") {
		t.Errorf("removed %q", ev.Path)
	}
}

func TestFSNotifySource(t *testing.T) {
	dir := t.TempDir()
	src, err := NewFSNotifySource(dir, dir, 100*time.Millisecond, dummyDebug)
	if err != nil {
		t.Fatalf("NewFSNotifySource: %v", err)
	}
	defer src.Close()

	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if ev := next(t, src.Events(), kind(shell.EventCreate)); ev.Path != file {
		t.Errorf("create path %q", ev.Path)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if ev := next(t, src.Events(), kind(shell.EventMkdir)); ev.Path != sub {
		t.Errorf("mkdir path %q", ev.Path)
	}

	renamed := filepath.Join(dir, "b.txt")
	if err := os.Rename(file, renamed); err != nil {
		t.Fatal(err)
	}
	ev := next(t, src.Events(), kind(shell.EventRename))
	if ev.Path != file || ev.NewPath != renamed {
		t.Errorf("rename = %+v", ev)
	}

	if err := os.Remove(renamed); err != nil {
		t.Fatal(err)
	}
	if ev := next(t, src.Events(), kind(shell.EventDelete)); ev.Path != renamed {
		t.Errorf("delete path %q", ev.Path)
	}
}

func TestFSNotifyUnpairedRenameIsDelete(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("moving out of the watched folder reports differently on windows")
	}
	dir := t.TempDir()
	outside := t.TempDir()
	file := filepath.Join(dir, "move.me")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFSNotifySource(dir, dir, 20*time.Millisecond, dummyDebug)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := os.Rename(file, filepath.Join(outside, "move.me")); err != nil {
		t.Fatal(err)
	}
	if ev := next(t, src.Events(), kind(shell.EventDelete)); ev.Path != file {
		t.Errorf("delete path %q", ev.Path)
	}
}

func TestFactorySelectsSource(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(time.Hour, 0)
	f.Drives = func() ([]fileinfo.Drive, error) { return nil, nil }

	root := shell.NewItem(constants.ComputerIdentity, constants.ComputerName, shell.KindVirtual, shell.FlagFolder)
	src, err := f.Watch(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if ps, ok := src.(*PollingSource); !ok || !ps.drives {
		t.Errorf("root should get a drive source, got %T", src)
	}
	src.Close()

	dir := t.TempDir()
	folder := shell.NewItem(shell.Identity(dir), filepath.Base(dir), shell.KindFileSystem, shell.FlagFolder)
	folder.ParsingPath = dir
	src, err = f.Watch(ctx, folder)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*FSNotifySource); !ok {
		t.Errorf("local folder should get fsnotify, got %T", src)
	}
	src.Close()

	missing := shell.NewItem("m", "m", shell.KindFileSystem, shell.FlagFolder)
	missing.ParsingPath = "smb://host"
	if _, err := f.Watch(ctx, missing); err == nil {
		t.Error("expected error for unresolvable folder")
	}
}
