package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

// FSNotifySource reports changes of one local folder using fsnotify.
// A Rename followed by a Create inside the rename window becomes one
// rename event; an unpaired Rename becomes a delete.
type FSNotifySource struct {
	w            *fsnotify.Watcher
	native       string
	display      string
	renameWindow time.Duration

	events    chan shell.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	debugPrint func(format string, args ...interface{})
}

// NewFSNotifySource watches the host folder native, reporting children
// by their display path under display.
func NewFSNotifySource(native, display string, renameWindow time.Duration, debugPrint func(format string, args ...interface{})) (*FSNotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.NewWatcherError("watch", native, "cannot create watcher", err)
	}
	if err := w.Add(native); err != nil {
		w.Close()
		return nil, apperrors.NewWatcherError("watch", native, "cannot watch folder", err)
	}
	if renameWindow <= 0 {
		renameWindow = 100 * time.Millisecond
	}
	s := &FSNotifySource{
		w:            w,
		native:       filepath.Clean(native),
		display:      display,
		renameWindow: renameWindow,
		events:       make(chan shell.ChangeEvent, bufferSize),
		done:         make(chan struct{}),
		debugPrint:   debugPrint,
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *FSNotifySource) dbg(format string, args ...interface{}) {
	if s.debugPrint != nil {
		s.debugPrint("watcher: "+format, args...)
	}
}

// Events returns the change channel. It is closed by Close.
func (s *FSNotifySource) Events() <-chan shell.ChangeEvent {
	return s.events
}

// Close stops watching. It is safe to call more than once.
func (s *FSNotifySource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.w.Close()
		s.wg.Wait()
		close(s.events)
	})
	return err
}

func (s *FSNotifySource) run() {
	defer s.wg.Done()

	var (
		pendingOld string
		renameC    <-chan time.Time
		timer      *time.Timer
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		renameC = nil
		pendingOld = ""
	}
	defer stopTimer()

	for {
		select {
		case <-s.done:
			return

		case <-renameC:
			// no matching create: the item left the folder
			old := pendingOld
			stopTimer()
			if !s.send(shell.ChangeEvent{Kind: shell.EventDelete, Path: old}) {
				return
			}

		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			s.dbg("fsnotify error on %s: %v", s.native, err)

		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == s.native || filepath.Dir(ev.Name) != s.native {
				continue
			}
			path := fileinfo.JoinPath(s.display, filepath.Base(ev.Name))

			switch {
			case ev.Has(fsnotify.Rename):
				if pendingOld != "" {
					old := pendingOld
					stopTimer()
					if !s.send(shell.ChangeEvent{Kind: shell.EventDelete, Path: old}) {
						return
					}
				}
				pendingOld = path
				timer = time.NewTimer(s.renameWindow)
				renameC = timer.C

			case ev.Has(fsnotify.Create):
				isDir := false
				if fi, err := os.Stat(ev.Name); err == nil {
					isDir = fi.IsDir()
				}
				var out shell.ChangeEvent
				switch {
				case pendingOld != "" && isDir:
					out = shell.ChangeEvent{Kind: shell.EventRenameFolder, Path: pendingOld, NewPath: path}
				case pendingOld != "":
					out = shell.ChangeEvent{Kind: shell.EventRename, Path: pendingOld, NewPath: path}
				case isDir:
					out = shell.ChangeEvent{Kind: shell.EventMkdir, Path: path}
				default:
					out = shell.ChangeEvent{Kind: shell.EventCreate, Path: path}
				}
				stopTimer()
				if !s.send(out) {
					return
				}

			case ev.Has(fsnotify.Remove):
				if !s.send(shell.ChangeEvent{Kind: shell.EventDelete, Path: path}) {
					return
				}

			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
				if !s.send(shell.ChangeEvent{Kind: shell.EventUpdate, Path: path}) {
					return
				}
			}
		}
	}
}

func (s *FSNotifySource) send(ev shell.ChangeEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}
