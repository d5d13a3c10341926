package dirsync

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// Prune deletes every entry below root on the OS filesystem whose base name
// matches ex. See PruneFs.
func Prune(root string, ex exclude.Set, keep ...string) ([]string, error) {
	return PruneFs(afero.NewOsFs(), root, ex, keep...)
}

// PruneFs deletes every entry below root on fsys whose base name matches ex
// and returns the removed paths relative to root, deepest first.
//
// Traversal is bottom-up: the children of a directory are handled before the
// directory itself is matched. Paths in keep (relative to root) are neither
// removed nor descended into. root itself is never removed.
func PruneFs(fsys afero.Fs, root string, ex exclude.Set, keep ...string) ([]string, error) {
	if ex.Len() == 0 {
		return nil, nil
	}
	t := tree{fs: fsys, ex: ex}
	if !t.isDir(root) {
		return nil, errors.Newf(errors.ErrNotFound, "install directory %s does not exist", root)
	}

	kept := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		kept[filepath.Clean(k)] = struct{}{}
	}

	var removed []string
	if err := t.pruneLevel(root, ".", kept, &removed); err != nil {
		return removed, errors.Wrapf(err, errors.ErrFilesystem, "prune %s", root)
	}

	if len(removed) > 0 {
		logger := logging.GetLogger("dirsync")
		logger.Info().
			Str("root", root).
			Int("removed", len(removed)).
			Msg("Pruned excluded entries")
	}
	return removed, nil
}

func (t tree) pruneLevel(root, rel string, keep map[string]struct{}, removed *[]string) error {
	dir := filepath.Join(root, rel)
	infos, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
		childRel := filepath.Join(rel, info.Name())
		if _, ok := keep[childRel]; ok {
			continue
		}
		if info.IsDir() {
			if err := t.pruneLevel(root, childRel, keep, removed); err != nil {
				return err
			}
		}
	}

	for _, name := range t.ex.Ignored(dir, names) {
		childRel := filepath.Join(rel, name)
		if _, ok := keep[childRel]; ok {
			continue
		}
		if err := t.fs.RemoveAll(filepath.Join(dir, name)); err != nil {
			return err
		}
		*removed = append(*removed, childRel)
	}
	return nil
}
