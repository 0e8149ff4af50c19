package fileinfo

import (
	"path/filepath"
	"sort"
)

// Drive is one entry of the Computer root.
type Drive struct {
	Path    string
	Label   string
	Network bool
}

// ListDrives returns the mounted volumes, sorted by path.
func ListDrives() ([]Drive, error) {
	drives, err := platformDrives()
	if err != nil {
		return nil, err
	}
	sort.Slice(drives, func(i, j int) bool { return drives[i].Path < drives[j].Path })
	return drives, nil
}

func driveLabel(mountPoint string) string {
	if mountPoint == "/" {
		return "File System"
	}
	return filepath.Base(mountPoint)
}
