package installer

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

// UninstallResult describes what Uninstall removed. Messages are meant for
// the user, in order.
type UninstallResult struct {
	Found       bool
	Removed     []string
	RootRemoved bool
	Messages    []string
}

// Uninstall removes the wrapper and install directory of name. Nothing
// installed under that name is not an error. When the install root is left
// empty it is removed too.
func (in *Installer) Uninstall(name string) (*UninstallResult, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	l, err := in.acquire(name)
	if err != nil {
		return nil, err
	}
	defer in.release(l)

	res := &UninstallResult{}

	wrapperPath := wrapper.Path(in.binDir, name)
	removed, err := wrapper.Remove(in.binDir, name)
	if err != nil {
		return nil, err
	}
	if removed {
		res.Found = true
		res.Removed = append(res.Removed, wrapperPath)
		res.Messages = append(res.Messages, "deleting "+wrapperPath)
	}

	installDir := in.InstallDir(name)
	if _, err := os.Lstat(installDir); err == nil {
		if err := os.RemoveAll(installDir); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "remove %s", installDir)
		}
		res.Found = true
		res.Removed = append(res.Removed, installDir)
		res.Messages = append(res.Messages, "deleting "+installDir)
	}

	if !res.Found {
		res.Messages = append(res.Messages, "program not found")
	}

	if empty, err := isEmptyDir(in.root); err == nil && empty {
		if err := os.Remove(in.root); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "remove empty install root %s", in.root)
		}
		res.RootRemoved = true
		res.Messages = append(res.Messages, fmt.Sprintf("no programs left in %s, deleting", in.root))
	}

	in.record(name, func(r Registry) error {
		return r.DeleteInstall(name)
	})
	in.logger.Info().
		Str("package", name).
		Bool("found", res.Found).
		Bool("root_removed", res.RootRemoved).
		Msg("Uninstalled")
	return res, nil
}

func isEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
