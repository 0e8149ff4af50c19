//go:build windows

package fileinfo

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	modKernel32       = syscall.NewLazyDLL("kernel32.dll")
	procGetDriveTypeW = modKernel32.NewProc("GetDriveTypeW")
)

const driveRemote = 4

func platformDrives() ([]Drive, error) {
	var drives []Drive
	for c := 'A'; c <= 'Z'; c++ {
		root := string(c) + `:\`
		if _, err := os.Stat(root); err != nil {
			continue
		}
		p, _ := syscall.UTF16PtrFromString(root)
		t, _, _ := procGetDriveTypeW.Call(uintptr(unsafe.Pointer(p)))
		drives = append(drives, Drive{Path: root, Label: string(c) + ":", Network: t == driveRemote})
	}
	return drives, nil
}
