package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
	"shellview/internal/shell"
)

var (
	errReadOnly      = fmt.Errorf("%w: location is read-only", apperrors.ErrAccessDenied)
	errUnsupported   = errors.New("location does not support file operations")
	errInvalidName   = errors.New("invalid name")
	errIntoItself    = errors.New("destination is inside the source folder")
	errUnknownOpKind = errors.New("unknown operation")
)

// Service performs file operation batches on host paths. SMB shares are
// writable when mounted on the host; archives are read-only.
type Service struct {
	trash func(path string) error
}

var _ shell.FileOperationService = (*Service)(nil)

// NewService returns a service moving recycled items to the platform
// trash.
func NewService() *Service {
	return &Service{trash: moveToTrash}
}

// Perform runs the operations in order and stops at the first failure.
// Errors are *apperrors.AppError values classified against the
// ErrAccessDenied, ErrPathNotFound, ErrAlreadyExists and ErrCanceled
// sentinels.
func (s *Service) Perform(ctx context.Context, batch shell.Batch) error {
	for _, op := range batch.Ops {
		if err := ctx.Err(); err != nil {
			return apperrors.NewFileOperationError(op.Kind.String(), op.Source, apperrors.ErrCanceled)
		}
		if err := s.perform(ctx, op); err != nil {
			return apperrors.NewFileOperationError(op.Kind.String(), pathOf(op, err), err)
		}
	}
	return nil
}

func pathOf(op shell.Op, err error) string {
	if p := failingPath(err); p != "" {
		return p
	}
	return op.Source
}

func (s *Service) perform(ctx context.Context, op shell.Op) error {
	switch op.Kind {
	case shell.OpCopy, shell.OpMove:
		src, err := nativePath(ctx, op.Source)
		if err != nil {
			return err
		}
		destDir, err := nativePath(ctx, op.Dest)
		if err != nil {
			return err
		}
		return copyOrMove(ctx, op.Kind == shell.OpMove, src, destDir)
	case shell.OpDelete:
		src, err := nativePath(ctx, op.Source)
		if err != nil {
			return err
		}
		return s.remove(src, op.Recycle)
	case shell.OpRename:
		src, err := nativePath(ctx, op.Source)
		if err != nil {
			return err
		}
		return rename(src, op.Name)
	case shell.OpNewFolder:
		parent, err := nativePath(ctx, op.Dest)
		if err != nil {
			return err
		}
		if !validName(op.Name) {
			return wrapPath(op.Name, errInvalidName)
		}
		dst := filepath.Join(parent, op.Name)
		dbg("mkdir %s", dst)
		return wrapPath(dst, os.Mkdir(dst, 0755))
	default:
		return errUnknownOpKind
	}
}

// nativePath resolves a display path to a writable host path.
func nativePath(ctx context.Context, display string) (string, error) {
	if _, _, ok := fileinfo.SplitArchivePath(display); ok {
		return "", wrapPath(display, errReadOnly)
	}
	_, parsed, err := fileinfo.ResolveReadContext(ctx, display)
	if err != nil {
		return "", wrapPath(display, err)
	}
	if parsed.Provider != "local" {
		return "", wrapPath(display, errUnsupported)
	}
	return parsed.Native, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func (s *Service) remove(src string, recycle bool) error {
	if _, err := os.Lstat(src); err != nil {
		return wrapPath(src, err)
	}
	if recycle {
		dbg("recycle %s", src)
		return wrapPath(src, s.trash(src))
	}
	dbg("remove %s", src)
	return wrapPath(src, os.RemoveAll(src))
}

// rename refuses to replace an existing item. A case-only rename of the
// same file is allowed.
func rename(src, name string) error {
	if !validName(name) {
		return wrapPath(name, errInvalidName)
	}
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return wrapPath(src, err)
	}
	dst := filepath.Join(filepath.Dir(src), name)
	if dstInfo, err := os.Lstat(dst); err == nil && !os.SameFile(srcInfo, dstInfo) {
		return wrapPath(dst, os.ErrExist)
	}
	dbg("rename %s -> %s", src, dst)
	return wrapPath(dst, os.Rename(src, dst))
}

// copyOrMove copies or moves src into destDir. Moves on the same volume
// are a rename.
func copyOrMove(ctx context.Context, move bool, src, destDir string) error {
	if _, err := os.Lstat(src); err != nil {
		return wrapPath(src, err)
	}
	dst := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Lstat(dst); err == nil {
		return wrapPath(dst, os.ErrExist)
	}
	if rel, err := filepath.Rel(src, destDir); err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return wrapPath(destDir, errIntoItself)
	}
	if move {
		if err := os.Rename(src, dst); err == nil {
			dbg("moved %s -> %s", src, dst)
			return nil
		}
	}
	return copyOrMovePath(ctx, move, src, destDir)
}

// --- copying primitives ---

func canceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// copyOrMovePath copies or moves a path (file or directory).
func copyOrMovePath(ctx context.Context, move bool, src string, destDir string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return wrapPath(src, err)
	}
	base := filepath.Base(src)
	dst := filepath.Join(destDir, base)

	if fi.IsDir() {
		dbg("mkdir %s (mode=%v)", dst, fi.Mode())
		if err := ensureDir(dst, fi.Mode()); err != nil {
			return wrapPath(dst, err)
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return wrapPath(src, err)
		}
		for _, e := range entries {
			if canceled(ctx) {
				return apperrors.ErrCanceled
			}
			if err := copyOrMovePath(ctx, move, filepath.Join(src, e.Name()), dst); err != nil {
				return err
			}
		}
		if move {
			if canceled(ctx) {
				return apperrors.ErrCanceled
			}
			// remove empty dir after moving children
			dbg("rmdir %s", src)
			if err := os.Remove(src); err != nil {
				return wrapPath(src, err)
			}
		}
		return nil
	}

	// handle symlink as symlink
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return wrapPath(src, err)
		}
		dbg("symlink %s -> %s", dst, target)
		if err := os.Symlink(target, dst); err != nil {
			return wrapPath(dst, err)
		}
		if move {
			if err := os.Remove(src); err != nil {
				return wrapPath(src, err)
			}
		}
		return nil
	}

	// regular file
	dbg("file %s -> %s", src, dst)
	if err := copyFileWithCancel(ctx, src, dst, fi.Mode()); err != nil {
		return err
	}
	if move {
		if canceled(ctx) {
			return apperrors.ErrCanceled
		}
		if err := os.Remove(src); err != nil {
			return wrapPath(src, err)
		}
	}
	return nil
}

func ensureDir(path string, mode os.FileMode) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	// best-effort to set mode
	_ = os.Chmod(path, mode.Perm())
	return nil
}

func copyFileWithCancel(ctx context.Context, src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return wrapPath(dst, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return wrapPath(src, err)
	}
	defer in.Close()
	// create temp file then rename for atomic-ish replace
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return wrapPath(tmp, err)
	}
	buf := make([]byte, 1<<20) // 1 MiB
	for {
		if canceled(ctx) {
			out.Close()
			os.Remove(tmp)
			return apperrors.ErrCanceled
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(tmp)
				return wrapPath(tmp, werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			os.Remove(tmp)
			return wrapPath(src, rerr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return wrapPath(tmp, err)
	}
	if err := os.Chmod(tmp, mode.Perm()); err != nil {
		os.Remove(tmp)
		return wrapPath(tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return wrapPath(dst, err)
	}
	return nil
}

// --- error wrapping helpers ---

type opError struct {
	Path string
	Err  error
}

func (e opError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e opError) Unwrap() error { return e.Err }
func wrapPath(p string, err error) error {
	if err == nil {
		return nil
	}
	return opError{Path: p, Err: err}
}

func failingPath(err error) string {
	var oe opError
	if errors.As(err, &oe) {
		return oe.Path
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return ae.Path
	}
	return ""
}
