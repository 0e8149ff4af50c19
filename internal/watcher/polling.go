package watcher

import (
	"os"
	"sort"
	"sync"
	"time"

	"shellview/internal/constants"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

// DirReader is the listing surface a PollingSource needs.
type DirReader interface {
	ReadDir(path string) ([]os.DirEntry, error)
}

// snapshotEntry is what a poll remembers about one child.
type snapshotEntry struct {
	size     int64
	modified time.Time
	isDir    bool
}

// PollingSource detects changes by diffing periodic snapshots. It serves
// folders without native change notifications (SMB, archives) and the
// mount list of the Computer root.
type PollingSource struct {
	interval time.Duration
	scan     func() (map[string]snapshotEntry, error)
	drives   bool

	mu            sync.RWMutex // protects previousFiles
	previousFiles map[string]snapshotEntry

	events    chan shell.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	debugPrint func(format string, args ...interface{})
}

// NewPollingSource polls native (a folder of r) and reports children by
// their display path under display.
func NewPollingSource(r DirReader, native, display string, interval time.Duration, debugPrint func(format string, args ...interface{})) *PollingSource {
	scan := func() (map[string]snapshotEntry, error) {
		entries, err := r.ReadDir(native)
		if err != nil {
			return nil, err
		}
		current := make(map[string]snapshotEntry, len(entries))
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			current[fileinfo.JoinPath(display, entry.Name())] = snapshotEntry{
				size:     info.Size(),
				modified: info.ModTime(),
				isDir:    entry.IsDir(),
			}
		}
		return current, nil
	}
	return newPollingSource(scan, false, interval, debugPrint)
}

// NewDriveSource polls the mounted volumes and reports DriveAdd and
// DriveRemove events.
func NewDriveSource(list func() ([]fileinfo.Drive, error), interval time.Duration, debugPrint func(format string, args ...interface{})) *PollingSource {
	scan := func() (map[string]snapshotEntry, error) {
		drives, err := list()
		if err != nil {
			return nil, err
		}
		current := make(map[string]snapshotEntry, len(drives))
		for _, d := range drives {
			current[fileinfo.CleanPath(d.Path)] = snapshotEntry{isDir: true}
		}
		return current, nil
	}
	return newPollingSource(scan, true, interval, debugPrint)
}

func newPollingSource(scan func() (map[string]snapshotEntry, error), drives bool, interval time.Duration, debugPrint func(format string, args ...interface{})) *PollingSource {
	if interval <= 0 {
		interval = constants.WatcherInterval
	}
	ps := &PollingSource{
		interval:      interval,
		scan:          scan,
		drives:        drives,
		previousFiles: make(map[string]snapshotEntry),
		events:        make(chan shell.ChangeEvent, bufferSize),
		done:          make(chan struct{}),
		debugPrint:    debugPrint,
	}
	// initial snapshot
	if current, err := scan(); err == nil {
		ps.previousFiles = current
	} else {
		ps.dbg("initial snapshot: %v", err)
	}
	ps.wg.Add(1)
	go ps.run()
	return ps
}

func (ps *PollingSource) dbg(format string, args ...interface{}) {
	if ps.debugPrint != nil {
		ps.debugPrint("watcher: "+format, args...)
	}
}

// Events returns the change channel. It is closed by Close.
func (ps *PollingSource) Events() <-chan shell.ChangeEvent {
	return ps.events
}

// Close stops polling. It is safe to call more than once.
func (ps *PollingSource) Close() error {
	ps.closeOnce.Do(func() {
		close(ps.done)
		ps.wg.Wait()
		close(ps.events)
	})
	return nil
}

func (ps *PollingSource) run() {
	defer ps.wg.Done()
	ticker := time.NewTicker(ps.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !ps.checkForChanges() {
				return
			}
		case <-ps.done:
			return
		}
	}
}

// checkForChanges takes a snapshot and emits the difference. It returns
// false once the source is closed.
func (ps *PollingSource) checkForChanges() bool {
	current, err := ps.scan()
	if err != nil {
		// skip this round
		ps.dbg("poll: %v", err)
		return true
	}
	added, deleted, modified := ps.detectChanges(current)
	ps.mu.Lock()
	previous := ps.previousFiles
	ps.previousFiles = current
	ps.mu.Unlock()

	if len(added) == 0 && len(deleted) == 0 && len(modified) == 0 {
		return true
	}
	ps.dbg("changes: %d added, %d deleted, %d modified", len(added), len(deleted), len(modified))
	for _, p := range deleted {
		if !ps.send(shell.ChangeEvent{Kind: ps.removeKind(previous[p]), Path: p}) {
			return false
		}
	}
	for _, p := range added {
		if !ps.send(shell.ChangeEvent{Kind: ps.addKind(current[p]), Path: p}) {
			return false
		}
	}
	for _, p := range modified {
		if !ps.send(shell.ChangeEvent{Kind: shell.EventUpdate, Path: p}) {
			return false
		}
	}
	return true
}

func (ps *PollingSource) addKind(e snapshotEntry) shell.EventKind {
	switch {
	case ps.drives:
		return shell.EventDriveAdd
	case e.isDir:
		return shell.EventMkdir
	default:
		return shell.EventCreate
	}
}

func (ps *PollingSource) removeKind(e snapshotEntry) shell.EventKind {
	switch {
	case ps.drives:
		return shell.EventDriveRemove
	case e.isDir:
		return shell.EventRmdir
	default:
		return shell.EventDelete
	}
}

func (ps *PollingSource) send(ev shell.ChangeEvent) bool {
	select {
	case ps.events <- ev:
		return true
	case <-ps.done:
		return false
	}
}

// detectChanges compares current and previous states to find differences
func (ps *PollingSource) detectChanges(current map[string]snapshotEntry) (added, deleted, modified []string) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for path, entry := range current {
		prev, exists := ps.previousFiles[path]
		if !exists {
			added = append(added, path)
		} else if !entry.modified.Equal(prev.modified) || entry.size != prev.size {
			modified = append(modified, path)
		}
	}
	for path := range ps.previousFiles {
		if _, exists := current[path]; !exists {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(added)
	sort.Strings(deleted)
	sort.Strings(modified)
	return added, deleted, modified
}
