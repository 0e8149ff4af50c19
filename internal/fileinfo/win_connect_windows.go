//go:build windows

package fileinfo

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	apperrors "shellview/internal/errors"
)

const (
	resourceTypeDisk = 0x00000001
	connectTemporary = 0x00000004
)

// netResource mirrors NETRESOURCEW.
type netResource struct {
	scope       uint32
	kind        uint32
	displayType uint32
	usage       uint32
	localName   *uint16
	remoteName  *uint16
	comment     *uint16
	provider    *uint16
}

var procAddConnection = windows.NewLazySystemDLL("mpr.dll").NewProc("WNetAddConnection2W")

// connectShare opens a temporary session to \\host\share. Existing
// sessions are never torn down.
func connectShare(host, share string, c Credentials) error {
	user := c.Username
	if c.Domain != "" {
		user = c.Domain + `\` + user
	}
	remote, err := windows.UTF16PtrFromString(`\\` + host + `\` + share)
	if err != nil {
		return err
	}
	userPtr, err := windows.UTF16PtrFromString(user)
	if err != nil {
		return err
	}
	passPtr, err := windows.UTF16PtrFromString(c.Password)
	if err != nil {
		return err
	}
	nr := netResource{kind: resourceTypeDisk, remoteName: remote}
	ret, _, _ := procAddConnection.Call(
		uintptr(unsafe.Pointer(&nr)),
		uintptr(unsafe.Pointer(passPtr)),
		uintptr(unsafe.Pointer(userPtr)),
		connectTemporary,
	)
	if ret != 0 {
		return windows.Errno(ret)
	}
	return nil
}

func isWinAccessError(err error) bool {
	return errors.Is(err, windows.ERROR_ACCESS_DENIED) || errors.Is(err, windows.ERROR_LOGON_FAILURE)
}

// ensureWindowsConnection connects the share behind a UNC path with
// credentials from the chain and caches them on success.
func ensureWindowsConnection(p Parsed, native string) error {
	host, share := p.Host, p.Share
	if host == "" || share == "" {
		up := parseUNC(native)
		host, share = up.Host, up.Share
	}
	if host == "" || share == "" {
		return apperrors.NewProviderError("connect", native, "not a UNC path", apperrors.ErrPathNotFound)
	}
	creds := getCredentials(host, share, "")
	if creds.empty() {
		return apperrors.NewProviderError("connect", native, "no credentials", apperrors.ErrAccessDenied)
	}
	if err := connectShare(host, share, creds); err != nil {
		if isWinAccessError(err) {
			return apperrors.NewProviderError("connect", native, "login failed", fmt.Errorf("%w: %w", apperrors.ErrAccessDenied, err))
		}
		return err
	}
	rememberCredentials(host, share, creds)
	return nil
}

// IsWindowsCredentialConflict reports ERROR_SESSION_CREDENTIAL_CONFLICT,
// a session to the host already open under other credentials.
func IsWindowsCredentialConflict(err error) bool {
	return errors.Is(err, windows.ERROR_SESSION_CREDENTIAL_CONFLICT)
}
