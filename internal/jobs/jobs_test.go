package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func newTestService(t *testing.T) (*Service, *[]string) {
	t.Helper()
	var trashed []string
	s := NewService()
	s.trash = func(p string) error {
		trashed = append(trashed, p)
		return os.RemoveAll(p)
	}
	return s, &trashed
}

func TestServiceCopyTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	write(t, filepath.Join(src, "a.txt"), "alpha")
	write(t, filepath.Join(src, "nested", "b.txt"), "beta")
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatal(err)
	}

	s, _ := newTestService(t)
	err := s.Perform(context.Background(), shell.Batch{Ops: []shell.Op{{Kind: shell.OpCopy, Source: src, Dest: dest}}})
	if err != nil {
		t.Fatalf("Perform: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "src", "nested", "b.txt"))
	if err != nil || string(data) != "beta" {
		t.Fatalf("copied file = %q, %v", data, err)
	}
	if !exists(filepath.Join(src, "a.txt")) {
		t.Error("copy must keep the source")
	}
	if exists(filepath.Join(dest, "src", "a.txt.part")) {
		t.Error("temporary file left behind")
	}
}

func TestServiceMove(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	write(t, src, "x")
	dest := filepath.Join(root, "dest")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestService(t)
	if err := s.Perform(context.Background(), shell.Batch{Ops: []shell.Op{{Kind: shell.OpMove, Source: src, Dest: dest}}}); err != nil {
		t.Fatal(err)
	}
	if exists(src) || !exists(filepath.Join(dest, "file.txt")) {
		t.Error("move did not relocate the file")
	}
}

func TestServiceErrors(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.txt"), "a")
	write(t, filepath.Join(root, "b.txt"), "b")
	if err := os.Mkdir(filepath.Join(root, "dir"), 0755); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(root, "x.zip")
	write(t, archive, "")

	tests := []struct {
		name string
		op   shell.Op
		want error
	}{
		{"rename onto existing", shell.Op{Kind: shell.OpRename, Source: filepath.Join(root, "a.txt"), Name: "b.txt"}, apperrors.ErrAlreadyExists},
		{"rename missing", shell.Op{Kind: shell.OpRename, Source: filepath.Join(root, "zz.txt"), Name: "c.txt"}, apperrors.ErrPathNotFound},
		{"delete missing", shell.Op{Kind: shell.OpDelete, Source: filepath.Join(root, "zz.txt")}, apperrors.ErrPathNotFound},
		{"copy onto itself", shell.Op{Kind: shell.OpCopy, Source: filepath.Join(root, "a.txt"), Dest: root}, apperrors.ErrAlreadyExists},
		{"copy into own subfolder", shell.Op{Kind: shell.OpCopy, Source: filepath.Join(root, "dir"), Dest: filepath.Join(root, "dir")}, errIntoItself},
		{"new folder exists", shell.Op{Kind: shell.OpNewFolder, Dest: root, Name: "dir"}, apperrors.ErrAlreadyExists},
		{"new folder bad name", shell.Op{Kind: shell.OpNewFolder, Dest: root, Name: "a/b"}, errInvalidName},
		{"archive is read-only", shell.Op{Kind: shell.OpNewFolder, Dest: fileinfo.JoinArchivePath(archive, ""), Name: "n"}, apperrors.ErrAccessDenied},
	}
	s, _ := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Perform(context.Background(), shell.Batch{Ops: []shell.Op{tt.op}})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ae *apperrors.AppError
			if !errors.As(err, &ae) || ae.Type != apperrors.ErrorTypeFileOperation {
				t.Errorf("expected a file operation AppError, got %T", err)
			}
		})
	}
}

func TestServiceRenameCaseOnly(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "readme.txt")
	write(t, src, "x")
	s, _ := newTestService(t)
	if err := s.Perform(context.Background(), shell.Batch{Ops: []shell.Op{{Kind: shell.OpRename, Source: src, Name: "README.txt"}}}); err != nil {
		t.Fatalf("case-only rename: %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 || entries[0].Name() != "README.txt" {
		t.Errorf("entries = %v", entries)
	}
}

func TestServiceBatchStopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.txt"), "a")
	write(t, filepath.Join(root, "c.txt"), "c")

	s, trashed := newTestService(t)
	batch := shell.Batch{Ops: []shell.Op{
		{Kind: shell.OpDelete, Source: filepath.Join(root, "a.txt"), Recycle: true},
		{Kind: shell.OpDelete, Source: filepath.Join(root, "missing.txt")},
		{Kind: shell.OpDelete, Source: filepath.Join(root, "c.txt")},
	}}
	err := s.Perform(context.Background(), batch)
	if !errors.Is(err, apperrors.ErrPathNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(*trashed) != 1 {
		t.Errorf("recycled %v", *trashed)
	}
	if !exists(filepath.Join(root, "c.txt")) {
		t.Error("operations after the failure must not run")
	}
}

func TestServiceCanceled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newTestService(t)
	err := s.Perform(ctx, shell.Batch{Ops: []shell.Op{{Kind: shell.OpNewFolder, Dest: root, Name: "n"}}})
	if !errors.Is(err, apperrors.ErrCanceled) {
		t.Fatalf("err = %v", err)
	}
	if exists(filepath.Join(root, "n")) {
		t.Error("canceled batch must not run")
	}
}

// fakeService records operations and fails on the configured source.
type fakeService struct {
	mu     sync.Mutex
	ops    []shell.Op
	failOn string
	block  chan struct{}
}

func (f *fakeService) Perform(ctx context.Context, batch shell.Batch) error {
	for _, op := range batch.Ops {
		if f.block != nil {
			select {
			case <-f.block:
			case <-ctx.Done():
				return apperrors.NewFileOperationError(op.Kind.String(), op.Source, apperrors.ErrCanceled)
			}
		}
		f.mu.Lock()
		f.ops = append(f.ops, op)
		f.mu.Unlock()
		if op.Source == f.failOn {
			return apperrors.NewFileOperationError(op.Kind.String(), op.Source, os.ErrPermission)
		}
	}
	return nil
}

func TestManagerRunsJobs(t *testing.T) {
	svc := &fakeService{failOn: "/b"}
	m := NewManager(svc)
	var mu sync.Mutex
	notified := 0
	m.Subscribe(func() { mu.Lock(); notified++; mu.Unlock() })

	ok := m.Submit(context.Background(), shell.Batch{Ops: []shell.Op{{Kind: shell.OpDelete, Source: "/a"}}})
	if err := ok.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if snap := ok.Snapshot(); snap.Status != StatusCompleted || snap.DoneOps != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	bad := m.Submit(context.Background(), shell.Batch{Ops: []shell.Op{
		{Kind: shell.OpCopy, Source: "/b"},
		{Kind: shell.OpCopy, Source: "/c"},
	}})
	err := bad.Wait()
	if !apperrors.IsSecurity(err) {
		t.Fatalf("expected access denied, got %v", err)
	}
	snap := bad.Snapshot()
	if snap.Status != StatusFailed || len(snap.Failures) != 1 || snap.Failures[0].Path != "/b" {
		t.Errorf("snapshot = %+v", snap)
	}
	m.Wait()
	if len(svc.ops) != 2 {
		t.Errorf("ops run = %v", svc.ops)
	}
	if list := m.List(); len(list) != 2 || list[0].ID != bad.ID {
		t.Errorf("history = %+v", list)
	}
	mu.Lock()
	defer mu.Unlock()
	if notified == 0 {
		t.Error("subscribers not notified")
	}
}

func TestManagerCancel(t *testing.T) {
	svc := &fakeService{block: make(chan struct{})}
	m := NewManager(svc)
	j := m.Submit(context.Background(), shell.Batch{Ops: []shell.Op{{Kind: shell.OpMove, Source: "/a"}}})
	if !m.Cancel(j.ID) {
		t.Fatal("Cancel should find the running job")
	}
	if err := j.Wait(); !errors.Is(err, apperrors.ErrCanceled) {
		t.Fatalf("err = %v", err)
	}
	if j.Snapshot().Status != StatusCanceled {
		t.Errorf("status = %s", j.Snapshot().Status)
	}
	if m.Cancel(j.ID) {
		t.Error("finished job cannot be canceled")
	}
}
