// Package shell writes the PATH entry for the wrapper directory into the
// user's shell profile.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
)

// Marker tags the block appended to a profile so it is only added once.
const Marker = "# dumbinstall bin"

// ProfileFor returns the config file EnsurePathEntry edits for the login
// shell named by shellPath, and whether it is a fish config.
func ProfileFor(shellPath, home string) (string, bool) {
	switch filepath.Base(shellPath) {
	case "zsh":
		return filepath.Join(home, ".zprofile"), false
	case "bash":
		return filepath.Join(home, ".bash_profile"), false
	case "fish":
		return filepath.Join(home, ".config", "fish", "conf.d", "dumbinstall.fish"), true
	default:
		return filepath.Join(home, ".profile"), false
	}
}

// EnsurePathEntry checks whether dir is on PATH and, if not, appends the
// export line to the appropriate shell config file.
// Returns (added bool, configFile string, err error).
// added=false means it was already on PATH or already configured.
func EnsurePathEntry(dir string) (added bool, configFile string, err error) {
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if filepath.Clean(entry) == filepath.Clean(dir) {
			return false, "", nil
		}
	}

	home, err := homedir.Dir()
	if err != nil {
		return false, "", errors.Wrap(err, errors.ErrFilesystem, "cannot determine home directory")
	}

	configPath, isFish := ProfileFor(os.Getenv("SHELL"), home)

	// fish conf.d may not exist yet
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return false, "", errors.Wrapf(err, errors.ErrFilesystem, "cannot create config directory %s", filepath.Dir(configPath))
	}

	if existing, readErr := os.ReadFile(configPath); readErr == nil {
		if strings.Contains(string(existing), Marker) {
			return false, configPath, nil
		}
	}

	var line string
	if isFish {
		line = fmt.Sprintf("\n%s\nfish_add_path %s\n", Marker, dir)
	} else {
		line = fmt.Sprintf("\n%s\nexport PATH=%q:$PATH\n", Marker, dir)
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, "", errors.Wrapf(err, errors.ErrFilesystem, "cannot open config file %s", configPath)
	}
	defer f.Close()

	if _, err := fmt.Fprint(f, line); err != nil {
		return false, "", errors.Wrapf(err, errors.ErrFilesystem, "cannot write to config file %s", configPath)
	}

	return true, configPath, nil
}
