package fileinfo

import (
	"path"
	"path/filepath"
	"strings"

	"shellview/internal/constants"
)

// IsSMBDisplay reports whether the path is a canonical smb display path (smb://...).
func IsSMBDisplay(p string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(p)), "smb://")
}

// IsComputer reports whether p names the Computer root.
func IsComputer(p string) bool {
	return p == constants.ComputerIdentity
}

// JoinPath joins a display folder path and a child name.
func JoinPath(base, name string) string {
	if archive, inner, ok := SplitArchivePath(base); ok {
		return JoinArchivePath(archive, path.Join(inner, name))
	}
	if IsSMBDisplay(base) {
		return strings.TrimRight(base, "/") + "/" + name
	}
	return filepath.Join(base, name)
}

// ParentPath returns the parent folder of a display path.
//   - smb://host/share is its own parent.
//   - The parent of an archive root is the folder holding the archive.
func ParentPath(p string) string {
	if IsComputer(p) {
		return p
	}
	if archive, inner, ok := SplitArchivePath(p); ok {
		if inner == "" {
			return filepath.Dir(archive)
		}
		parent := path.Dir(inner)
		if parent == "." {
			parent = ""
		}
		return JoinArchivePath(archive, parent)
	}
	if !IsSMBDisplay(p) {
		return filepath.Dir(p)
	}
	parts := strings.Split(strings.TrimPrefix(p, "smb://"), "/")
	if len(parts) <= 2 {
		return p
	}
	return "smb://" + strings.Join(parts[:len(parts)-1], "/")
}

// BaseName returns the last path segment analogous to filepath.Base.
func BaseName(p string) string {
	if IsComputer(p) {
		return constants.ComputerName
	}
	if archive, inner, ok := SplitArchivePath(p); ok {
		if inner == "" {
			return filepath.Base(archive)
		}
		return path.Base(inner)
	}
	if !IsSMBDisplay(p) {
		return filepath.Base(p)
	}
	_, last := path.Split(strings.TrimSuffix(strings.TrimPrefix(p, "smb://"), "/"))
	return last
}

// CleanPath normalizes a display path without touching the disk. It is
// the basis of item identity.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	switch {
	case p == "" || IsComputer(p):
		return p
	case IsSMBDisplay(p):
		return strings.TrimRight(canonicalizeSMB(p), "/")
	case strings.HasPrefix(p, "//"):
		return strings.TrimRight(canonicalizeSMB(p), "/")
	}
	if archive, inner, ok := SplitArchivePath(p); ok {
		if inner != "" {
			inner = path.Clean(inner)
		}
		return JoinArchivePath(filepath.Clean(archive), inner)
	}
	return filepath.Clean(p)
}
