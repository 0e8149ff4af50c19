package fileinfo

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/mholt/archives"
)

// archiveExtensions are names browsed as virtual folders.
var archiveExtensions = []string{
	".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2",
	".tar.xz", ".txz", ".tar.zst", ".7z", ".rar",
}

// IsArchive reports whether name looks like a browsable archive.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ArchiveFS is a read-only VFS over the contents of an archive file.
// Native paths are slash separated and relative to the archive root.
type ArchiveFS struct {
	archive string
	fsys    fs.FS
}

// NewArchiveFS opens archivePath (a local file) for browsing.
func NewArchiveFS(ctx context.Context, archivePath string) (*ArchiveFS, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, err
	}
	return &ArchiveFS{archive: archivePath, fsys: fsys}, nil
}

func archiveName(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

func (a *ArchiveFS) ReadDir(p string) ([]os.DirEntry, error) {
	return fs.ReadDir(a.fsys, archiveName(p))
}

func (a *ArchiveFS) Stat(p string) (os.FileInfo, error) {
	return fs.Stat(a.fsys, archiveName(p))
}

func (a *ArchiveFS) Lstat(p string) (os.FileInfo, error) { return a.Stat(p) }

func (a *ArchiveFS) Capabilities() Capabilities { return Capabilities{FastList: true, Watch: false} }

func (a *ArchiveFS) Join(elem ...string) string { return path.Join(elem...) }

func (a *ArchiveFS) Base(p string) string { return path.Base(archiveName(p)) }

func (a *ArchiveFS) Open(p string) (io.ReadCloser, error) {
	return a.fsys.Open(archiveName(p))
}

// Archive returns the host path of the archive file.
func (a *ArchiveFS) Archive() string { return a.archive }
