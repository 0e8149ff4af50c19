package view

import (
	"context"
	"image"
	"iter"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "shellview/internal/errors"
	"shellview/internal/shell"
)

const rootID = "shell:computer"

type fakeEntry struct {
	folder      bool
	hidden      bool
	size        int64
	modified    time.Time
	perInstance bool
}

// fakeProvider serves items from an in-memory tree keyed by slash paths.
type fakeProvider struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	drives  map[string]string // mount path -> label
	enumErr error

	// block, when set before the session starts, makes every resolution
	// method wait until it is closed or the context ends.
	block chan struct{}

	classIcon image.Image
	fallback  image.Image
	instance  image.Image
	thumb     image.Image
	cached    map[shell.Identity]bool // thumbnails served in cache-only mode
	overlay   int
	shield    int

	iconCalls  atomic.Int32
	thumbCalls atomic.Int32
	propCalls  atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		entries:   make(map[string]fakeEntry),
		drives:    make(map[string]string),
		cached:    make(map[shell.Identity]bool),
		classIcon: image.NewRGBA(image.Rect(0, 0, 1, 1)),
		fallback:  image.NewRGBA(image.Rect(0, 0, 2, 2)),
		instance:  image.NewRGBA(image.Rect(0, 0, 3, 3)),
		thumb:     image.NewRGBA(image.Rect(0, 0, 4, 4)),
	}
}

func (p *fakeProvider) add(name string, e fakeEntry) {
	p.mu.Lock()
	p.entries[name] = e
	p.mu.Unlock()
}

func (p *fakeProvider) addDrive(mount, label string) {
	p.mu.Lock()
	p.drives[mount] = label
	p.mu.Unlock()
}

func (p *fakeProvider) remove(name string) {
	p.mu.Lock()
	delete(p.entries, name)
	p.mu.Unlock()
}

func (p *fakeProvider) makeItem(name string, e fakeEntry) *shell.ItemRef {
	var flags shell.Flags
	if e.folder {
		flags |= shell.FlagFolder
	}
	if e.hidden {
		flags |= shell.FlagHidden
	}
	it := shell.NewItem(shell.Identity(name), path.Base(name), shell.KindFileSystem, flags)
	it.ParsingPath = name
	it.ParentPath = path.Dir(name)
	it.Size = e.size
	it.Modified = e.modified
	if e.folder {
		it.PerceivedType = shell.PerceivedFolder
	} else {
		it.Extension = strings.ToLower(path.Ext(name))
		it.PerceivedType = shell.PerceivedText
	}
	if e.perInstance {
		it.IconType = shell.IconPerInstance
	}
	return it
}

func (p *fakeProvider) wait(ctx context.Context) error {
	if p.block == nil {
		return nil
	}
	select {
	case <-p.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakeProvider) Item(ctx context.Context, name string) (*shell.ItemRef, error) {
	if name == rootID {
		return p.Root(), nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[name]
	if !ok {
		return nil, apperrors.ErrPathNotFound
	}
	return p.makeItem(name, e), nil
}

func (p *fakeProvider) Identify(name string) shell.Identity {
	return shell.Identity(name)
}

func (p *fakeProvider) Enumerate(ctx context.Context, folder *shell.ItemRef) iter.Seq2[*shell.ItemRef, error] {
	return func(yield func(*shell.ItemRef, error) bool) {
		if p.enumErr != nil {
			yield(nil, p.enumErr)
			return
		}
		p.mu.Lock()
		var items []*shell.ItemRef
		for name, e := range p.entries {
			if name != folder.ParsingPath && path.Dir(name) == folder.ParsingPath {
				items = append(items, p.makeItem(name, e))
			}
		}
		p.mu.Unlock()
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

func (p *fakeProvider) Root() *shell.ItemRef {
	it := shell.NewItem(rootID, "Computer", shell.KindVirtual, shell.FlagFolder)
	it.ParsingPath = rootID
	it.ParentPath = rootID
	return it
}

func (p *fakeProvider) IsRoot(folder *shell.ItemRef) bool {
	return folder != nil && folder.ID == rootID
}

func (p *fakeProvider) DriveItem(ctx context.Context, name string) (*shell.ItemRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	label, ok := p.drives[name]
	if !ok {
		return nil, apperrors.ErrPathNotFound
	}
	it := shell.NewItem(shell.Identity(name), label, shell.KindVirtual, shell.FlagFolder)
	it.ParsingPath = name
	it.ParentPath = rootID
	it.PerceivedType = shell.PerceivedDrive
	return it, nil
}

func (p *fakeProvider) ClassIcon(item *shell.ItemRef, size int) image.Image { return p.classIcon }
func (p *fakeProvider) FallbackIcon(size int) image.Image                   { return p.fallback }

func (p *fakeProvider) Icon(ctx context.Context, item *shell.ItemRef, size int) (image.Image, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	p.iconCalls.Add(1)
	return p.instance, nil
}

func (p *fakeProvider) Thumbnail(ctx context.Context, item *shell.ItemRef, size int, mode shell.RetrievalMode) (image.Image, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if mode == shell.RetrieveCacheOnly {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.cached[item.ID] {
			return p.thumb, nil
		}
		return nil, nil
	}
	p.thumbCalls.Add(1)
	return p.thumb, nil
}

func (p *fakeProvider) Overlay(ctx context.Context, item *shell.ItemRef) (int, error) {
	if err := p.wait(ctx); err != nil {
		return shell.Unresolved, err
	}
	return p.overlay, nil
}

func (p *fakeProvider) Shield(ctx context.Context, item *shell.ItemRef) (int, error) {
	if err := p.wait(ctx); err != nil {
		return shell.Unresolved, err
	}
	return p.shield, nil
}

func (p *fakeProvider) Property(ctx context.Context, item *shell.ItemRef, key shell.PropertyKey) (any, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	p.propCalls.Add(1)
	switch key {
	case shell.KeySize:
		return item.Size, nil
	case shell.KeyDateModified:
		return item.Modified, nil
	case shell.KeyItemType:
		return "Text Document", nil
	}
	return nil, apperrors.ErrPathNotFound
}

// fakeHost records what the session asked it to redraw.
type fakeHost struct {
	mu        sync.Mutex
	count     int
	rows      []int
	redrawAll int
	visible   func(row int) bool
}

func (h *fakeHost) ItemCountChanged(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

func (h *fakeHost) RedrawRow(row int) {
	h.mu.Lock()
	h.rows = append(h.rows, row)
	h.mu.Unlock()
}

func (h *fakeHost) RedrawRange(from, to int) {
	for r := from; r <= to; r++ {
		h.RedrawRow(r)
	}
}

func (h *fakeHost) RedrawAll() {
	h.mu.Lock()
	h.redrawAll++
	h.mu.Unlock()
}

func (h *fakeHost) IsRowVisible(row int) bool {
	h.mu.Lock()
	fn := h.visible
	h.mu.Unlock()
	return fn == nil || fn(row)
}

func (h *fakeHost) setVisible(fn func(row int) bool) {
	h.mu.Lock()
	h.visible = fn
	h.mu.Unlock()
}

func (h *fakeHost) itemCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *fakeHost) redrawnRows() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.rows)
}

func (h *fakeHost) fullRedraws() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redrawAll
}

type fakeSource struct {
	folder *shell.ItemRef
	events chan shell.ChangeEvent
	closed atomic.Bool
}

func (s *fakeSource) Events() <-chan shell.ChangeEvent { return s.events }
func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeWatcher struct {
	mu      sync.Mutex
	sources []*fakeSource
	err     error
}

func (w *fakeWatcher) Watch(ctx context.Context, folder *shell.ItemRef) (shell.NotificationSource, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	src := &fakeSource{folder: folder, events: make(chan shell.ChangeEvent, 32)}
	w.sources = append(w.sources, src)
	return src, nil
}

func (w *fakeWatcher) last() *fakeSource {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.sources) == 0 {
		return nil
	}
	return w.sources[len(w.sources)-1]
}

type fakeFileOps struct {
	mu      sync.Mutex
	batches []shell.Batch
	err     error
}

func (f *fakeFileOps) Perform(ctx context.Context, b shell.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return f.err
}

func (f *fakeFileOps) ops() []shell.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shell.Op
	for _, b := range f.batches {
		out = append(out, b.Ops...)
	}
	return out
}

// eventRecorder collects session events.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func record(s *Session) *eventRecorder {
	r := &eventRecorder{}
	s.Subscribe(func(ev Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	return r
}

func (r *eventRecorder) updates(t UpdateType) []ItemUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ItemUpdate
	for _, ev := range r.events {
		if ev.Type == EventItemUpdated && ev.Update.Type == t {
			out = append(out, ev.Update)
		}
	}
	return out
}

func (r *eventRecorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type testEnv struct {
	provider *fakeProvider
	host     *fakeHost
	watcher  *fakeWatcher
	fileOps  *fakeFileOps
	launched chan string
	session  *Session
}

// newTestEnv builds a session over a provider holding /f with a folder C
// and the files a.txt (1500 bytes) and b.txt (10 bytes).
func newTestEnv(t *testing.T, configure ...func(*testEnv, *Settings)) *testEnv {
	t.Helper()
	env := &testEnv{
		provider: newFakeProvider(),
		host:     &fakeHost{},
		watcher:  &fakeWatcher{},
		fileOps:  &fakeFileOps{},
		launched: make(chan string, 4),
	}
	mod := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	env.provider.add("/", fakeEntry{folder: true})
	env.provider.add("/f", fakeEntry{folder: true})
	env.provider.add("/g", fakeEntry{folder: true})
	env.provider.add("/f/C", fakeEntry{folder: true, modified: mod})
	env.provider.add("/f/a.txt", fakeEntry{size: 1500, modified: mod})
	env.provider.add("/f/b.txt", fakeEntry{size: 10, modified: mod})

	settings := DefaultSettings()
	settings.ScrollResumeDelay = 10 * time.Millisecond
	for _, fn := range configure {
		fn(env, &settings)
	}
	s, err := NewSession(Options{
		Provider: env.provider,
		Host:     env.host,
		Watcher:  env.watcher,
		FileOps:  env.fileOps,
		Settings: settings,
		Launcher: func(p string) error {
			env.launched <- p
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() {
		if env.provider.block != nil {
			select {
			case <-env.provider.block:
			default:
				close(env.provider.block)
			}
		}
		s.Close()
	})
	env.session = s
	return env
}

func (env *testEnv) navigate(t *testing.T, p string) {
	t.Helper()
	if err := env.session.Navigate(context.Background(), p); err != nil {
		t.Fatalf("Navigate(%s): %v", p, err)
	}
}

func (env *testEnv) send(ev shell.ChangeEvent) {
	env.watcher.last().events <- ev
}

func names(s *Session) []string {
	var out []string
	for _, it := range s.Items() {
		out = append(out, it.DisplayName)
	}
	return out
}

func rowOf(t *testing.T, s *Session, id string) int {
	t.Helper()
	row, ok := s.IndexOf(shell.Identity(id))
	if !ok {
		t.Fatalf("%s not in store: %v", id, names(s))
	}
	return row
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func namesAre(s *Session, want ...string) func() bool {
	return func() bool { return slices.Equal(names(s), want) }
}

// park suspends the gate and lets kind's worker take a throwaway token,
// so it waits on the gate holding that token and later tokens stay
// queued.
func park(t *testing.T, s *Session, kind workerKind) {
	t.Helper()
	s.gate.Suspend()
	w := s.workers[kind]
	if !w.queue.TryEnqueue(Token{ID: "parked", Row: -1}) {
		t.Fatal("cannot park worker")
	}
	eventually(t, func() bool { return w.queue.Len() == 0 }, kind.String()+" worker parked")
}
