// Package shell holds the shell view's data model and the interfaces of
// its collaborators: the item provider, the file operation service, the
// host list control and the change notification source.
package shell

import (
	"sync/atomic"
	"time"
)

// Identity is the stable key of a namespace item within a session.
type Identity string

// Kind tags how an item is backed.
type Kind int

const (
	KindFileSystem Kind = iota
	KindVirtual
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindFileSystem:
		return "filesystem"
	case KindVirtual:
		return "virtual"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Flags are the static attributes resolved at creation.
type Flags uint8

const (
	FlagFolder Flags = 1 << iota
	FlagHidden
	FlagLink
	FlagNetwork
)

// IconType says whether the item's icon depends only on its class
// (extension or folder) or has to be extracted per item.
type IconType int

const (
	IconPerClass IconType = iota
	IconPerInstance
)

// Unresolved is the badge value before a worker looked it up.
const Unresolved = -1

// ItemRef is a handle to one namespace entry. Static fields are set by
// the provider and never change; resolved state is written concurrently
// by workers and the render driver.
type ItemRef struct {
	ID            Identity
	ParsingPath   string // empty for purely virtual items
	ParentPath    string
	DisplayName   string
	Extension     string // lower case with dot
	Kind          Kind
	Flags         Flags
	Size          int64
	Modified      time.Time
	PerceivedType PerceivedType
	IconType      IconType

	iconLoaded  atomic.Bool
	thumbLoaded atomic.Bool
	overlay     atomic.Int32
	shield      atomic.Int32
	displayed   atomic.Bool
}

// NewItem returns an item with unresolved badges.
func NewItem(id Identity, name string, kind Kind, flags Flags) *ItemRef {
	it := &ItemRef{ID: id, DisplayName: name, Kind: kind, Flags: flags}
	it.ResetResolved()
	return it
}

// ResetResolved forgets every resolved value.
func (it *ItemRef) ResetResolved() {
	it.iconLoaded.Store(false)
	it.thumbLoaded.Store(false)
	it.overlay.Store(Unresolved)
	it.shield.Store(Unresolved)
}

func (it *ItemRef) IsFolder() bool      { return it.Flags&FlagFolder != 0 }
func (it *ItemRef) IsHidden() bool      { return it.Flags&FlagHidden != 0 }
func (it *ItemRef) IsLink() bool        { return it.Flags&FlagLink != 0 }
func (it *ItemRef) IsNetworkPath() bool { return it.Flags&FlagNetwork != 0 }

func (it *ItemRef) IconLoaded() bool          { return it.iconLoaded.Load() }
func (it *ItemRef) SetIconLoaded(v bool)      { it.iconLoaded.Store(v) }
func (it *ItemRef) ThumbnailLoaded() bool     { return it.thumbLoaded.Load() }
func (it *ItemRef) SetThumbnailLoaded(v bool) { it.thumbLoaded.Store(v) }

// OverlayIndex is -1 while unresolved, 0 for none.
func (it *ItemRef) OverlayIndex() int     { return int(it.overlay.Load()) }
func (it *ItemRef) SetOverlayIndex(v int) { it.overlay.Store(int32(v)) }

// ShieldState is -1 while unresolved, 0 for none.
func (it *ItemRef) ShieldState() int     { return int(it.shield.Load()) }
func (it *ItemRef) SetShieldState(v int) { it.shield.Store(int32(v)) }

// InitialisedForDisplay reports whether the item was painted once.
func (it *ItemRef) InitialisedForDisplay() bool { return it.displayed.Load() }

// MarkDisplayed flips InitialisedForDisplay and reports whether this
// call made the false->true transition.
func (it *ItemRef) MarkDisplayed() bool {
	return it.displayed.CompareAndSwap(false, true)
}

// Clone copies the static fields into a fresh item with unresolved state.
func (it *ItemRef) Clone() *ItemRef {
	c := &ItemRef{
		ID:            it.ID,
		ParsingPath:   it.ParsingPath,
		ParentPath:    it.ParentPath,
		DisplayName:   it.DisplayName,
		Extension:     it.Extension,
		Kind:          it.Kind,
		Flags:         it.Flags,
		Size:          it.Size,
		Modified:      it.Modified,
		PerceivedType: it.PerceivedType,
		IconType:      it.IconType,
	}
	c.ResetResolved()
	return c
}
