//go:build windows

package fileinfo

import (
	"os"
	"strings"
	"syscall"
	"time"
)

const fileAttributeHidden = 0x02

// IsWindowsHidden checks if a file has the Windows hidden attribute
func IsWindowsHidden(path string) bool {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(pathPtr)
	if err != nil {
		return false
	}
	return attrs&fileAttributeHidden != 0
}

func creationTime(fi os.FileInfo) (time.Time, bool) {
	d, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, d.CreationTime.Nanoseconds()), true
}

// installerHints are the name fragments Windows uses to detect installers
// that request elevation without a manifest.
var installerHints = []string{"setup", "install", "update", "uninst", "patch"}

func needsElevation(name string, fi os.FileInfo) bool {
	lower := strings.ToLower(name)
	for _, h := range installerHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
