// Package view is the virtualized shell view: the item store of the
// current folder, the resolution workers filling in icons, thumbnails,
// badges and column values, the change reconciler, and the render driver
// the host list control calls for every visible row.
package view

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"shellview/internal/config"
	"shellview/internal/constants"
	"shellview/internal/fileinfo"
	"shellview/internal/gate"
	"shellview/internal/jobs"
	"shellview/internal/logging"
	"shellview/internal/shell"
	"shellview/internal/store"
	"shellview/internal/valuecache"
)

var errMissingCollaborator = errors.New("view: provider and host are required")

// Settings are the user-facing knobs of a session.
type Settings struct {
	IconSize           int
	ShowHidden         bool
	DateLayout         string
	Columns            []shell.Column
	Sort               store.SortSpec
	Grouping           *store.Grouping
	TempPatterns       []string
	ScrollResumeDelay  time.Duration
	Queues             config.QueueConfig
	IconCacheSize      int
	ThumbnailCacheSize int
}

// DefaultSettings returns the settings of the built-in configuration.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// SettingsFromConfig maps a loaded configuration onto session settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	col, desc := cfg.View.SortColumn()
	s := Settings{
		IconSize:           cfg.View.IconSize,
		ShowHidden:         cfg.View.ShowHidden,
		DateLayout:         cfg.View.DateLayout,
		Columns:            cfg.View.ColumnSet(),
		Sort:               store.SortSpec{Column: col, Descending: desc},
		TempPatterns:       slices.Clone(cfg.Filters.TempPatterns),
		ScrollResumeDelay:  cfg.Gate.ScrollResumeDelay,
		Queues:             cfg.Queues,
		IconCacheSize:      constants.InstanceIconCacheSize,
		ThumbnailCacheSize: constants.ThumbnailCacheSize,
	}
	if gc, ok := cfg.View.GroupColumn(); ok {
		s.Grouping = &store.Grouping{Column: gc, Reversed: cfg.View.GroupReversed}
	}
	return s
}

func (s *Settings) applyDefaults() {
	def := config.Default()
	if s.IconSize <= 0 {
		s.IconSize = constants.DefaultIconSize
	}
	if s.DateLayout == "" {
		s.DateLayout = constants.DefaultDateLayout
	}
	if len(s.Columns) == 0 {
		s.Columns = shell.DefaultColumns()
	}
	if s.Sort.Column.Title == "" {
		s.Sort = store.DefaultSort()
	}
	if s.TempPatterns == nil {
		s.TempPatterns = slices.Clone(constants.DefaultTempPatterns)
	}
	if s.Queues.Icon <= 0 {
		s.Queues.Icon = def.Queues.Icon
	}
	if s.Queues.Thumbnail <= 0 {
		s.Queues.Thumbnail = def.Queues.Thumbnail
	}
	if s.Queues.Overlay <= 0 {
		s.Queues.Overlay = def.Queues.Overlay
	}
	if s.Queues.Shield <= 0 {
		s.Queues.Shield = def.Queues.Shield
	}
	if s.Queues.Subitem <= 0 {
		s.Queues.Subitem = def.Queues.Subitem
	}
	if s.IconCacheSize <= 0 {
		s.IconCacheSize = constants.InstanceIconCacheSize
	}
	if s.ThumbnailCacheSize <= 0 {
		s.ThumbnailCacheSize = constants.ThumbnailCacheSize
	}
}

// Options wires a session to its collaborators.
type Options struct {
	Provider shell.Provider
	Host     shell.Host
	// Watcher is optional; without it the view never reconciles changes.
	Watcher shell.Watcher
	// FileOps defaults to jobs.NewService().
	FileOps  shell.FileOperationService
	Settings Settings
	Logger   *logging.Logger
	// Launcher opens non-folder items; defaults to fileinfo.Launch.
	Launcher func(path string) error
	// Debug receives debug output when -d flag is on.
	Debug func(format string, args ...interface{})
}

// cachedImage is a resolved icon or thumbnail at the size it was
// rendered for. A nil img records that nothing exists.
type cachedImage struct {
	img  image.Image
	size int
}

// Session owns one view: its store, caches, queues and workers.
type Session struct {
	provider shell.Provider
	host     shell.Host
	watcher  shell.Watcher
	launch   func(string) error
	log      *logging.Logger

	store  *store.Store
	values *valuecache.Cache
	gate   *gate.Gate
	jobs   *jobs.Manager

	icons  *lru.Cache[shell.Identity, cachedImage]
	thumbs *lru.Cache[shell.Identity, cachedImage]

	workers [workerCount]*worker

	settingsMu   sync.RWMutex
	showHidden   bool
	dateLayout   string
	columns      []shell.Column
	tempPatterns []string
	scrollDelay  time.Duration
	iconSize     atomic.Int32
	marker       refreshMarker

	navMu      sync.Mutex
	folder     atomic.Pointer[shell.ItemRef]
	stopSource func()

	sweepMu     sync.Mutex
	sweepCancel context.CancelFunc

	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	bg        sync.WaitGroup
	closeOnce sync.Once

	subMu       sync.Mutex
	subscribers []subscriber
	nextSub     int

	debugPrint func(format string, args ...interface{})
}

// NewSession creates a session and starts its workers. The session is
// empty until Navigate is called.
func NewSession(opts Options) (*Session, error) {
	if opts.Provider == nil || opts.Host == nil {
		return nil, errMissingCollaborator
	}
	settings := opts.Settings
	settings.applyDefaults()

	icons, err := lru.New[shell.Identity, cachedImage](settings.IconCacheSize)
	if err != nil {
		return nil, err
	}
	thumbs, err := lru.New[shell.Identity, cachedImage](settings.ThumbnailCacheSize)
	if err != nil {
		return nil, err
	}

	svc := opts.FileOps
	if svc == nil {
		svc = jobs.NewService()
	}
	launch := opts.Launcher
	if launch == nil {
		launch = fileinfo.Launch
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		provider:     opts.Provider,
		host:         opts.Host,
		watcher:      opts.Watcher,
		launch:       launch,
		log:          log.Component("view"),
		store:        store.New(),
		values:       valuecache.New(),
		gate:         gate.New(),
		jobs:         jobs.NewManager(svc),
		icons:        icons,
		thumbs:       thumbs,
		showHidden:   settings.ShowHidden,
		dateLayout:   settings.DateLayout,
		columns:      normalizeColumns(settings.Columns),
		tempPatterns: settings.TempPatterns,
		scrollDelay:  settings.ScrollResumeDelay,
		ctx:          ctx,
		cancel:       cancel,
		debugPrint:   opts.Debug,
	}
	s.iconSize.Store(int32(settings.IconSize))
	s.marker.clear()
	s.store.SetValueFunc(func(it *shell.ItemRef, key shell.PropertyKey) (any, bool) {
		return s.values.Get(it.ID, key)
	})
	s.store.SetSort(settings.Sort)
	if settings.Grouping != nil {
		s.store.SetGrouping(*settings.Grouping)
	}

	s.initWorkers(settings.Queues)
	s.group = new(errgroup.Group)
	for _, w := range s.workers {
		w := w
		s.group.Go(func() error { return s.runWorker(ctx, w) })
	}
	return s, nil
}

func (s *Session) dbg(format string, args ...interface{}) {
	if s.debugPrint != nil {
		s.debugPrint("view: "+format, args...)
	}
}

// Close stops the notification source, the workers and any running
// file operations, and waits for all of them.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.navMu.Lock()
		s.stopSourceLocked()
		s.navMu.Unlock()
		s.stopSweep()
		s.cancel()
		for _, w := range s.workers {
			w.queue.Close()
		}
		err = s.group.Wait()
		s.bg.Wait()
		s.jobs.Wait()
		s.dbg("closed")
	})
	return err
}

// Folder returns the folder being shown, or nil before the first
// navigation.
func (s *Session) Folder() *shell.ItemRef {
	return s.folder.Load()
}

// Len returns the number of rows.
func (s *Session) Len() int {
	return s.store.Len()
}

// Item returns the item at row.
func (s *Session) Item(row int) (*shell.ItemRef, bool) {
	return s.store.At(row)
}

// Items returns the rows in display order.
func (s *Session) Items() []*shell.ItemRef {
	return s.store.Snapshot()
}

// IndexOf returns the row of an identity.
func (s *Session) IndexOf(id shell.Identity) (int, bool) {
	return s.store.IndexOf(id)
}

// Jobs returns the file operation manager.
func (s *Session) Jobs() *jobs.Manager {
	return s.jobs
}

// IconSize returns the current icon size in pixels.
func (s *Session) IconSize() int {
	return int(s.iconSize.Load())
}

// ShowHidden reports whether hidden items are listed.
func (s *Session) ShowHidden() bool {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.showHidden
}

// SetShowHidden changes the hidden filter and reloads the folder.
func (s *Session) SetShowHidden(ctx context.Context, show bool) error {
	s.settingsMu.Lock()
	changed := s.showHidden != show
	s.showHidden = show
	s.settingsMu.Unlock()
	if !changed || s.Folder() == nil {
		return nil
	}
	return s.Refresh(ctx)
}

// Columns returns the visible columns. Column 0 is always Name.
func (s *Session) Columns() []shell.Column {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return slices.Clone(s.columns)
}

// SetColumns replaces the column set. Name is kept as the first column
// and duplicates are dropped.
func (s *Session) SetColumns(cols []shell.Column) {
	s.settingsMu.Lock()
	s.columns = normalizeColumns(cols)
	s.settingsMu.Unlock()
	s.host.RedrawAll()
}

func normalizeColumns(cols []shell.Column) []shell.Column {
	out := []shell.Column{shell.ColumnFor(shell.KeyName)}
	seen := map[shell.PropertyKey]bool{shell.KeyName: true}
	for _, c := range cols {
		if seen[c.Key] {
			if c.Key == shell.KeyName {
				out[0] = c
			}
			continue
		}
		seen[c.Key] = true
		out = append(out, c)
	}
	return out
}

// refreshMarker is the row a pending rename or create started from the
// view should land at. With an expected identity only the event for that
// identity consumes it; a bare marker is consumed by the next rename.
type refreshMarker struct {
	mu  sync.Mutex
	row int
	id  shell.Identity
	seq uint64
}

func (m *refreshMarker) set(row int, id shell.Identity) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if row < 0 {
		m.row, m.id = -1, ""
		return m.seq
	}
	m.row, m.id = row, id
	return m.seq
}

func (m *refreshMarker) get() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.row
}

func (m *refreshMarker) clear() {
	m.set(-1, "")
}

// take returns the row and resets the marker when the event for id may
// consume it, else -1.
func (m *refreshMarker) take(id shell.Identity, rename bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.row < 0:
		return -1
	case m.id == "" && !rename:
		return -1
	case m.id != "" && m.id != id:
		return -1
	}
	row := m.row
	m.row, m.id = -1, ""
	return row
}

// release clears the marker if it is still the one set as seq.
func (m *refreshMarker) release(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq == seq {
		m.row, m.id = -1, ""
	}
}

// SetRefreshMarker records the row the next rename should land at. A
// negative row clears it.
func (s *Session) SetRefreshMarker(row int) {
	s.marker.set(row, "")
}

// RefreshMarker returns the pending marker, or -1.
func (s *Session) RefreshMarker() int {
	return s.marker.get()
}

func (s *Session) dateFormat() string {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.dateLayout
}

// rowOf returns the row of item if the store still holds this exact
// item. Workers call it before writing results back.
func (s *Session) rowOf(item *shell.ItemRef) (int, bool) {
	row, ok := s.store.IndexOf(item.ID)
	if !ok {
		return -1, false
	}
	cur, ok := s.store.At(row)
	if !ok || cur != item {
		return -1, false
	}
	return row, true
}

// locate finds the item a token refers to. The row is only a hint; the
// identity decides.
func (s *Session) locate(tok Token) (int, *shell.ItemRef, bool) {
	if it, ok := s.store.At(tok.Row); ok && it.ID == tok.ID {
		return tok.Row, it, true
	}
	row, ok := s.store.IndexOf(tok.ID)
	if !ok {
		return -1, nil, false
	}
	it, ok := s.store.At(row)
	if !ok || it.ID != tok.ID {
		return -1, nil, false
	}
	return row, it, true
}
