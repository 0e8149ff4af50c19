package shell

import (
	"context"
	"image"
	"iter"
)

// RetrievalMode selects how much work a thumbnail lookup may do.
type RetrievalMode int

const (
	// RetrieveDefault may read the source and render a new thumbnail.
	RetrieveDefault RetrievalMode = iota
	// RetrieveCacheOnly answers from already rendered thumbnails only.
	RetrieveCacheOnly
)

// Provider resolves namespace items and their display values.
//
// ClassIcon, FallbackIcon and Identify must be cheap and must not touch
// the disk or network; the render path calls them synchronously.
type Provider interface {
	Item(ctx context.Context, path string) (*ItemRef, error)
	Identify(path string) Identity
	Enumerate(ctx context.Context, folder *ItemRef) iter.Seq2[*ItemRef, error]
	Root() *ItemRef
	IsRoot(folder *ItemRef) bool
	DriveItem(ctx context.Context, path string) (*ItemRef, error)

	ClassIcon(item *ItemRef, size int) image.Image
	FallbackIcon(size int) image.Image
	Icon(ctx context.Context, item *ItemRef, size int) (image.Image, error)
	Thumbnail(ctx context.Context, item *ItemRef, size int, mode RetrievalMode) (image.Image, error)
	Overlay(ctx context.Context, item *ItemRef) (int, error)
	Shield(ctx context.Context, item *ItemRef) (int, error)
	Property(ctx context.Context, item *ItemRef, key PropertyKey) (any, error)
}

// OpKind is one file operation.
type OpKind int

const (
	OpCopy OpKind = iota
	OpMove
	OpDelete
	OpRename
	OpNewFolder
)

func (k OpKind) String() string {
	switch k {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	case OpNewFolder:
		return "newfolder"
	default:
		return "unknown"
	}
}

// Op is a single request inside a batch. Dest is the destination folder
// for copy and move, and the parent folder for NewFolder. Name is the
// new name for rename and NewFolder.
type Op struct {
	Kind    OpKind
	Source  string
	Dest    string
	Name    string
	Recycle bool
}

// Batch is executed in order and abandoned on the first failure.
type Batch struct {
	Ops []Op
}

// FileOperationService executes file operation batches. Authorization
// failures match errors.ErrAccessDenied; other failures match
// ErrPathNotFound, ErrAlreadyExists or carry the raw I/O error.
type FileOperationService interface {
	Perform(ctx context.Context, batch Batch) error
}

// Host is the owner-data list control showing the store.
// Implementations marshal redraws onto their UI thread.
type Host interface {
	ItemCountChanged(n int)
	RedrawRow(row int)
	RedrawRange(from, to int)
	RedrawAll()
	IsRowVisible(row int) bool
}

// EventKind classifies a namespace change.
type EventKind int

const (
	EventCreate EventKind = iota
	EventMkdir
	EventDelete
	EventRmdir
	EventRename
	EventRenameFolder
	EventUpdate
	EventDriveAdd
	EventDriveRemove
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventMkdir:
		return "mkdir"
	case EventDelete:
		return "delete"
	case EventRmdir:
		return "rmdir"
	case EventRename:
		return "rename"
	case EventRenameFolder:
		return "renamefolder"
	case EventUpdate:
		return "update"
	case EventDriveAdd:
		return "driveadd"
	case EventDriveRemove:
		return "driveremove"
	default:
		return "unknown"
	}
}

// ChangeEvent carries one or two paths. NewPath is set for renames.
type ChangeEvent struct {
	Kind    EventKind
	Path    string
	NewPath string
}

// NotificationSource delivers change events for one folder.
type NotificationSource interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Watcher registers a notification source for a folder.
type Watcher interface {
	Watch(ctx context.Context, folder *ItemRef) (NotificationSource, error)
}
