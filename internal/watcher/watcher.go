// Package watcher provides change notification sources for the shell
// view: fsnotify for local folders, snapshot polling for everything else
// and a mount list poller for the Computer root.
package watcher

import (
	"context"
	"time"

	"shellview/internal/constants"
	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

const bufferSize = constants.WatcherBufferSize

// Factory creates the notification source suited to a folder.
type Factory struct {
	Interval     time.Duration
	RenameWindow time.Duration
	Drives       func() ([]fileinfo.Drive, error)

	debugPrint func(format string, args ...interface{})
}

var _ shell.Watcher = (*Factory)(nil)

// NewFactory returns a factory using the given poll interval and rename
// pairing window. Zero values fall back to the defaults.
func NewFactory(interval, renameWindow time.Duration) *Factory {
	if interval <= 0 {
		interval = constants.WatcherInterval
	}
	if renameWindow <= 0 {
		renameWindow = constants.WatcherRenameWindow
	}
	return &Factory{Interval: interval, RenameWindow: renameWindow, Drives: fileinfo.ListDrives}
}

// SetDebug sets the debug print function.
func (f *Factory) SetDebug(debugFunc func(format string, args ...interface{})) {
	f.debugPrint = debugFunc
}

func (f *Factory) dbg(format string, args ...interface{}) {
	if f.debugPrint != nil {
		f.debugPrint("watcher: "+format, args...)
	}
}

// Watch registers a source for folder.
func (f *Factory) Watch(ctx context.Context, folder *shell.ItemRef) (shell.NotificationSource, error) {
	if folder == nil {
		return nil, apperrors.NewWatcherError("watch", "", "no folder", apperrors.ErrPathNotFound)
	}
	if folder.ID == constants.ComputerIdentity {
		f.dbg("drive source for %s", folder.ID)
		return NewDriveSource(f.Drives, f.Interval, f.debugPrint), nil
	}
	path := folder.ParsingPath
	if !folder.IsFolder() && fileinfo.IsArchive(folder.DisplayName) {
		path = fileinfo.JoinArchivePath(path, "")
	}
	vfs, parsed, err := fileinfo.ResolveReadContext(ctx, path)
	if err != nil {
		return nil, apperrors.NewWatcherError("watch", path, "cannot resolve folder", err)
	}
	if vfs.Capabilities().Watch && parsed.Provider == "local" {
		src, err := NewFSNotifySource(parsed.Native, fileinfo.CleanPath(parsed.Display), f.RenameWindow, f.debugPrint)
		if err == nil {
			f.dbg("fsnotify source for %s", path)
			return src, nil
		}
		f.dbg("fsnotify unavailable for %s, polling: %v", path, err)
	}
	f.dbg("polling source for %s", path)
	return NewPollingSource(vfs, parsed.Native, fileinfo.CleanPath(parsed.Display), f.Interval, f.debugPrint), nil
}
