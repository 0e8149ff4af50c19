package fileinfo

import (
	"io"
	"os"
	"path/filepath"
)

// Capabilities describes what a VFS can do cheaply.
type Capabilities struct {
	FastList bool // ReadDir does not go over the network
	Watch    bool // change notifications are available (fsnotify)
}

// VFS is the minimal file system surface the provider needs. Paths are
// provider-native: host paths for LocalFS, share-relative paths for
// SMBFS and archive-relative paths for ArchiveFS.
type VFS interface {
	ReadDir(path string) ([]os.DirEntry, error)
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	Capabilities() Capabilities
	Join(elem ...string) string
	Base(p string) string
	Open(path string) (io.ReadCloser, error)
}

// LocalFS implements VFS using the host OS.
type LocalFS struct{}

func (LocalFS) ReadDir(path string) ([]os.DirEntry, error) { return os.ReadDir(path) }
func (LocalFS) Stat(path string) (os.FileInfo, error)      { return os.Stat(path) }
func (LocalFS) Lstat(path string) (os.FileInfo, error)     { return os.Lstat(path) }
func (LocalFS) Capabilities() Capabilities                 { return Capabilities{FastList: true, Watch: true} }
func (LocalFS) Join(elem ...string) string                 { return filepath.Join(elem...) }
func (LocalFS) Base(p string) string                       { return filepath.Base(p) }
func (LocalFS) Open(path string) (io.ReadCloser, error)    { return os.Open(path) }
