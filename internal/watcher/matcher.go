package watcher

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
)

// ignored reports whether path, or any directory between the root and path,
// matches the exclusion set. Exclusions are name based per level, so every
// component is checked.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ex.Match(part) {
			return true
		}
	}
	return false
}

// addTree watches dir and every non-excluded directory below it. fsnotify
// is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Removed between the event and the walk.
			if path != dir {
				return nil
			}
			return errors.Wrapf(err, errors.ErrFilesystem, "walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrFilesystem, "watch %s", path)
		}
		return nil
	})
}
