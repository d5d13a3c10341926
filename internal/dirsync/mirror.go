package dirsync

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// copyBufferSize is the buffer used for file copies.
const copyBufferSize = 1 << 20

// Mirror replaces dst with a copy of src filtered by ex. An existing dst is
// removed first, so no stale entries from a previous mirror survive.
//
// On failure the state of dst is undefined and the whole operation must be
// treated as failed.
func Mirror(src, dst string, ex exclude.Set) error {
	logger := logging.GetLogger("dirsync")
	done := logging.LogOperationStart(logger, "mirror")
	defer done()

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "source directory %s does not exist", src)
		}
		return errors.Wrapf(err, errors.ErrFilesystem, "stat %s", src)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "source %s is not a directory", src)
	}
	if within(dst, src) {
		return errors.Newf(errors.ErrInvalidInput, "destination %s is inside source %s", dst, src)
	}
	if within(src, dst) {
		return errors.Newf(errors.ErrInvalidInput, "source %s is inside destination %s", src, dst)
	}

	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "remove %s", dst)
	}

	logger.Debug().
		Str("src", src).
		Str("dst", dst).
		Strs("exclude", ex.Patterns()).
		Msg("Mirroring directory")

	if err := copyTree(src, dst, ex); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "mirror %s to %s", src, dst)
	}
	return nil
}

func copyTree(src, dst string, ex exclude.Set) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	kept := toSet(ex.Filter(src, entryNames(entries)))

	for _, entry := range entries {
		if _, ok := kept[entry.Name()]; !ok {
			continue
		}
		s := filepath.Join(src, entry.Name())
		d := filepath.Join(dst, entry.Name())

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			err = copySymlink(s, d)
		case entry.IsDir():
			err = copyTree(s, d, ex)
		case entry.Type().IsRegular():
			err = copyFile(s, d)
		default:
			err = &fs.PathError{Op: "copy", Path: s, Err: fs.ErrInvalid}
		}
		if err != nil {
			return err
		}
	}

	// Directory metadata last, after children may have bumped the mtime.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	return os.Symlink(target, dst)
}

// copyFile copies contents, permission bits and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	absPath, err1 := filepath.Abs(path)
	absRoot, err2 := filepath.Abs(root)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func entryNames(entries []fs.DirEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
