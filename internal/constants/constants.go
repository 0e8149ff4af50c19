package constants

import "time"

// Application constants
const (
	ApplicationName  = "shellview"
	ApplicationTitle = "Shell View"
)

// UI constants
const (
	// Window dimensions
	DefaultWindowWidth  = 900
	DefaultWindowHeight = 600

	// Icon sizes. Anything above SmallIconSize is drawn as a thumbnail.
	SmallIconSize   = 16
	MediumIconSize  = 48
	LargeIconSize   = 256
	DefaultIconSize = SmallIconSize
)

// Work queue capacities per resolution worker
const (
	IconQueueCapacity      = 3000
	ThumbnailQueueCapacity = 5000
	OverlayQueueCapacity   = 3000
	ShieldQueueCapacity    = 3000
	SubitemQueueCapacity   = 5000
)

// Visibility gate
const (
	ScrollResumeDelay = 200 * time.Millisecond
)

// Directory watcher constants
const (
	WatcherInterval     = 2 * time.Second
	WatcherBufferSize   = 64
	WatcherRenameWindow = 100 * time.Millisecond
)

// Cache sizes for decoded images held per session
const (
	InstanceIconCacheSize = 2048
	ThumbnailCacheSize    = 1024
)

// Thumbnail disk cache
const (
	ThumbnailDiskMaxBytes = 256 << 20
	ThumbnailDiskMaxFiles = 20000
	ThumbnailJPEGQuality  = 85
)

// File size constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
)

// Overlay badge indexes
const (
	OverlayNone     = 0
	OverlayLink     = 1
	OverlayShared   = 2
	OverlayReadOnly = 3
)

// Shield badge states
const (
	ShieldNone     = 0
	ShieldElevated = 1
)

// Unresolved marks a badge that has not been looked up yet.
const Unresolved = -1

// File system constants
const (
	RootPath          = "/"
	ComputerIdentity  = "shell:computer"
	ComputerName      = "Computer"
	ArchiveSeparator  = "!/"
	DefaultDateLayout = "2006-01-02 15:04"
)

// Configuration constants
const (
	ConfigFileName   = "config.yaml"
	DefaultSortOrder = "asc"
)

// DefaultTempPatterns are names the change reconciler never inserts.
var DefaultTempPatterns = []string{"*.tmp", "*.part", "~$*"}

// ShieldExtensions lists the executable-like extensions that can carry
// an elevation badge.
var ShieldExtensions = []string{".exe", ".com", ".bat"}
