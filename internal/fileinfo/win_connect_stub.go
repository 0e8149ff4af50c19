//go:build !windows

package fileinfo

import "errors"

var errNoShareConnect = errors.New("share connections need Windows")

func isWinAccessError(error) bool                  { return false }
func ensureWindowsConnection(Parsed, string) error { return errNoShareConnect }

// IsWindowsCredentialConflict reports ERROR_SESSION_CREDENTIAL_CONFLICT.
func IsWindowsCredentialConflict(error) bool { return false }
