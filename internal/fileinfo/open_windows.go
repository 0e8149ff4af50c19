//go:build windows

package fileinfo

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

var (
	shell32        = syscall.NewLazyDLL("shell32.dll")
	procShellExecW = shell32.NewProc("ShellExecuteW")
)

// Launch opens the given path with the associated application via
// ShellExecuteW and the "open" verb. smb:// paths are converted to UNC.
func Launch(p string) error {
	_, parsed, err := ResolveRead(p)
	if err != nil {
		return err
	}
	if parsed.Scheme == SchemeArchive {
		return errors.New("cannot launch a file inside an archive")
	}
	lpOperation, _ := syscall.UTF16PtrFromString("open")
	lpFile, _ := syscall.UTF16PtrFromString(parsed.Native)

	const swShowNormal = 1
	ret, _, callErr := procShellExecW.Call(
		0,
		uintptr(unsafe.Pointer(lpOperation)),
		uintptr(unsafe.Pointer(lpFile)),
		0,
		0,
		swShowNormal,
	)
	if ret <= 32 {
		return fmt.Errorf("ShellExecuteW failed, code=%d err=%v", ret, callErr)
	}
	return nil
}
