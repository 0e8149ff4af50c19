package fileinfo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestIsWindowsHiddenWithNonExistentPath(t *testing.T) {
	if IsWindowsHidden("/non/existent/path/file.txt") {
		t.Error("IsWindowsHidden should return false for non-existent paths")
	}
}

func TestNeedsElevation(t *testing.T) {
	dir := t.TempDir()
	name := "tool.exe"
	if runtime.GOOS == "windows" {
		name = "setup.exe"
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(p, 0755|os.ModeSetuid); err != nil {
			t.Skipf("cannot set setuid bit: %v", err)
		}
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && fi.Mode()&os.ModeSetuid == 0 {
		t.Skip("file system dropped the setuid bit")
	}
	if !needsElevation(name, fi) {
		t.Errorf("%s should need elevation", name)
	}
}
