package dirsync

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
)

// compareChunkSize is the read size used when comparing file contents.
const compareChunkSize = 32 * 1024

// Differ reports whether the trees rooted at a and b on the OS filesystem
// differ once ex has been applied to both sides.
func Differ(a, b string, ex exclude.Set) (bool, error) {
	return DifferFs(afero.NewOsFs(), a, b, ex)
}

// DifferFs is Differ on fsys. It stops at the first difference found.
//
// Per directory level of a it checks, in order: the directory exists in b,
// the filtered sets of non-directory names are equal, each shared entry has
// the same content (size first, then chunked bytes), and then recurses. A
// final pass walks b and reports any directory absent from a.
//
// Symbolic links are leaves: two links are equal when their targets are.
// Links are only recognised on filesystems that can lstat.
func DifferFs(fsys afero.Fs, a, b string, ex exclude.Set) (bool, error) {
	info, err := fsys.Stat(a)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Newf(errors.ErrNotFound, "directory %s does not exist", a)
		}
		return false, errors.Wrapf(err, errors.ErrFilesystem, "stat %s", a)
	}
	if !info.IsDir() {
		return false, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", a)
	}

	t := tree{fs: fsys, ex: ex}
	differ, err := t.compareLevel(a, b, ".")
	if err != nil || differ {
		return differ, wrapFS(err, a, b)
	}

	differ, err = t.extraDirectories(a, b, ".")
	return differ, wrapFS(err, a, b)
}

func wrapFS(err error, a, b string) error {
	return errors.Wrapf(err, errors.ErrFilesystem, "compare %s with %s", a, b)
}

// tree walks a filesystem applying one exclusion set.
type tree struct {
	fs afero.Fs
	ex exclude.Set
}

func (t tree) compareLevel(a, b, rel string) (bool, error) {
	dirA := filepath.Join(a, rel)
	dirB := filepath.Join(b, rel)

	if !t.isDir(dirB) {
		return true, nil
	}

	subdirsA, filesA, err := t.listLevel(dirA)
	if err != nil {
		return false, err
	}
	_, filesB, err := t.listLevel(dirB)
	if err != nil {
		return false, err
	}

	if !sameNames(filesA, filesB) {
		return true, nil
	}

	for _, name := range filesA {
		differ, err := t.entriesDiffer(filepath.Join(dirA, name), filepath.Join(dirB, name))
		if err != nil || differ {
			return differ, err
		}
	}

	for _, name := range subdirsA {
		differ, err := t.compareLevel(a, b, filepath.Join(rel, name))
		if err != nil || differ {
			return differ, err
		}
	}
	return false, nil
}

// extraDirectories walks b and reports a directory with no counterpart in a.
func (t tree) extraDirectories(a, b, rel string) (bool, error) {
	subdirsB, _, err := t.listLevel(filepath.Join(b, rel))
	if err != nil {
		return false, err
	}
	for _, name := range subdirsB {
		childRel := filepath.Join(rel, name)
		if !t.isDir(filepath.Join(a, childRel)) {
			return true, nil
		}
		differ, err := t.extraDirectories(a, b, childRel)
		if err != nil || differ {
			return differ, err
		}
	}
	return false, nil
}

// listLevel returns the filtered entries of dir split into real directories
// and everything else (regular files, symlinks).
func (t tree) listLevel(dir string) (dirs, files []string, err error) {
	infos, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return nil, nil, err
	}
	dirFlag := make(map[string]bool, len(infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
		dirFlag[info.Name()] = info.IsDir()
	}
	for _, name := range t.ex.Filter(dir, names) {
		if dirFlag[name] {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	return dirs, files, nil
}

func (t tree) isDir(path string) bool {
	info, err := lstat(t.fs, path)
	return err == nil && info.IsDir()
}

func (t tree) entriesDiffer(p1, p2 string) (bool, error) {
	i1, err := lstat(t.fs, p1)
	if err != nil {
		return false, err
	}
	i2, err := lstat(t.fs, p2)
	if err != nil {
		return false, err
	}

	link1 := i1.Mode()&os.ModeSymlink != 0
	link2 := i2.Mode()&os.ModeSymlink != 0
	if link1 || link2 {
		if link1 != link2 {
			return true, nil
		}
		t1, err := readLink(t.fs, p1)
		if err != nil {
			return false, err
		}
		t2, err := readLink(t.fs, p2)
		if err != nil {
			return false, err
		}
		return t1 != t2, nil
	}

	if i1.Size() != i2.Size() {
		return true, nil
	}
	return t.filesDiffer(p1, p2)
}

// filesDiffer compares two files of equal size chunk by chunk and returns on
// the first mismatching chunk.
func (t tree) filesDiffer(p1, p2 string) (bool, error) {
	f1, err := t.fs.Open(p1)
	if err != nil {
		return false, err
	}
	defer f1.Close()

	f2, err := t.fs.Open(p2)
	if err != nil {
		return false, err
	}
	defer f2.Close()

	b1 := make([]byte, compareChunkSize)
	b2 := make([]byte, compareChunkSize)
	for {
		n1, err1 := io.ReadFull(f1, b1)
		n2, err2 := io.ReadFull(f2, b2)
		if n1 != n2 || !bytes.Equal(b1[:n1], b2[:n2]) {
			return true, nil
		}
		if err1 == nil && err2 == nil {
			continue
		}
		eof1 := err1 == io.EOF || err1 == io.ErrUnexpectedEOF
		eof2 := err2 == io.EOF || err2 == io.ErrUnexpectedEOF
		switch {
		case eof1 && eof2:
			return false, nil
		case err1 != nil && !eof1:
			return false, err1
		case err2 != nil && !eof2:
			return false, err2
		default:
			return true, nil
		}
	}
}

func sameNames(x, y []string) bool {
	if len(x) != len(y) {
		return false
	}
	set := toSet(x)
	for _, n := range y {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

// lstat uses the filesystem's Lstat when it has one and Stat otherwise.
func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}

// readLink returns a link's target. Filesystems without link support only
// reach here through the OS backend.
func readLink(fsys afero.Fs, path string) (string, error) {
	if r, ok := fsys.(interface {
		ReadlinkIfPossible(string) (string, error)
	}); ok {
		return r.ReadlinkIfPossible(path)
	}
	if _, ok := fsys.(*afero.OsFs); ok {
		return os.Readlink(path)
	}
	return "", &os.PathError{Op: "readlink", Path: path, Err: os.ErrInvalid}
}
