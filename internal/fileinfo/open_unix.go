//go:build !windows

package fileinfo

import (
	"errors"
	"os/exec"
)

// Launch opens the given path with the system default application.
func Launch(p string) error {
	target := p
	if _, parsed, err := ResolveRead(p); err == nil {
		switch {
		case parsed.Scheme == SchemeSMB && parsed.Provider == "local" && parsed.Native != "":
			target = parsed.Native
		case parsed.Scheme == SchemeArchive:
			return errors.New("cannot launch a file inside an archive")
		}
	}
	candidates := [][]string{
		{"xdg-open", target},
		{"gio", "open", target},
		{"open", target},
		{"kde-open", target},
	}
	var lastErr error
	for _, args := range candidates {
		path, lookErr := exec.LookPath(args[0])
		if lookErr != nil {
			continue
		}
		if err := exec.Command(path, args[1:]...).Start(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no suitable opener found (xdg-open/gio/open)")
	}
	return lastErr
}
