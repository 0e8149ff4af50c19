//go:build !windows

package jobs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// trashDir is the freedesktop.org home trash.
func trashDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// moveToTrash moves path into the home trash and writes its .trashinfo
// record. Items on other volumes are copied, then removed.
func moveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	trash, err := trashDir()
	if err != nil {
		return err
	}
	files := filepath.Join(trash, "files")
	info := filepath.Join(trash, "info")
	if err := os.MkdirAll(files, 0700); err != nil {
		return err
	}
	if err := os.MkdirAll(info, 0700); err != nil {
		return err
	}

	// reserve a unique name through the info file
	base := filepath.Base(abs)
	name := base
	var infoFile *os.File
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(info, name+".trashinfo"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			infoFile = f
			break
		}
		if !os.IsExist(err) {
			return err
		}
		name = base + "." + strconv.Itoa(i)
	}
	record := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(), time.Now().Format("2006-01-02T15:04:05"))
	_, werr := infoFile.WriteString(record)
	if cerr := infoFile.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(infoFile.Name())
		return werr
	}

	dst := filepath.Join(files, name)
	if err := os.Rename(abs, dst); err == nil {
		return nil
	}
	// cross-device: copy into a staging folder on the trash volume
	staging, err := os.MkdirTemp(trash, ".incoming")
	if err != nil {
		os.Remove(infoFile.Name())
		return err
	}
	defer os.RemoveAll(staging)
	if err := copyOrMovePath(context.Background(), true, abs, staging); err != nil {
		os.Remove(infoFile.Name())
		return err
	}
	return os.Rename(filepath.Join(staging, base), dst)
}
