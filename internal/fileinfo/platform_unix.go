//go:build !windows

package fileinfo

import (
	"os"
	"time"
)

// IsWindowsHidden always returns false on non-Windows systems
func IsWindowsHidden(path string) bool {
	return false
}

// creationTime is not portable across Unix file systems.
func creationTime(fi os.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}

// needsElevation reports set-user-ID or set-group-ID executables.
func needsElevation(name string, fi os.FileInfo) bool {
	return fi.Mode()&(os.ModeSetuid|os.ModeSetgid) != 0
}
