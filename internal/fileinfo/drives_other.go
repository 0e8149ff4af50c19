//go:build !linux && !windows

package fileinfo

import (
	"os"
	"path/filepath"
)

func platformDrives() ([]Drive, error) {
	drives := []Drive{{Path: "/", Label: driveLabel("/")}}
	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		return drives, nil
	}
	for _, e := range entries {
		p := filepath.Join("/Volumes", e.Name())
		if target, err := os.Readlink(p); err == nil && target == "/" {
			continue
		}
		drives = append(drives, Drive{Path: p, Label: e.Name()})
	}
	return drives, nil
}
