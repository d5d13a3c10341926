// Package config loads the per-project build descriptor and the tool's own
// layered settings.
package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// BuildFileName is the descriptor every installable project carries at its
// root.
const BuildFileName = "dumb_build.toml"

// Build is the [build] table of a project descriptor.
type Build struct {
	ExecutableName        string   `toml:"executable_name"`
	Command               string   `toml:"command"`
	Excluded              []string `toml:"excluded"`
	RemoteInstallExcluded []string `toml:"remote_install_excluded"`
	LocalInstallExcluded  []string `toml:"local_install_excluded"`
}

type buildFile struct {
	Build *Build `toml:"build"`
}

// LoadBuild reads and validates the descriptor in projectDir. Every failure
// is an ErrConfiguration.
func LoadBuild(projectDir string) (*Build, error) {
	path := filepath.Join(projectDir, BuildFileName)
	logger := logging.GetLogger("config").With().Str("path", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrConfiguration, "%s not found in %s", BuildFileName, projectDir)
		}
		return nil, errors.Wrapf(err, errors.ErrConfiguration, "failed to read %s", path)
	}

	b, err := ParseBuild(data)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("executable", b.ExecutableName).
		Int("excluded", len(b.Excluded)).
		Msg("Loaded build descriptor")
	return b, nil
}

// ParseBuild decodes and validates descriptor content.
func ParseBuild(data []byte) (*Build, error) {
	var f buildFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfiguration, "failed to parse %s", BuildFileName)
	}
	if f.Build == nil {
		return nil, errors.Newf(errors.ErrConfiguration, "missing [build] section in %s", BuildFileName)
	}
	if err := f.Build.Validate(); err != nil {
		return nil, err
	}
	return f.Build, nil
}

// Validate checks the required fields. The executable name becomes both a
// directory under the install root and a file in the bin directory, so it
// must be a plain file name.
func (b *Build) Validate() error {
	if strings.TrimSpace(b.ExecutableName) == "" {
		return errors.New(errors.ErrConfiguration, "missing 'executable_name' in [build]")
	}
	if strings.TrimSpace(b.Command) == "" {
		return errors.New(errors.ErrConfiguration, "missing 'command' in [build]")
	}
	if strings.ContainsAny(b.ExecutableName, `/\`) || strings.HasPrefix(b.ExecutableName, ".") {
		return errors.Newf(errors.ErrConfiguration,
			"invalid executable_name %q: must be a plain name not starting with '.'", b.ExecutableName)
	}
	return nil
}

// LocalExclusions is the exclusion set for installs mirrored from a local
// directory.
func (b *Build) LocalExclusions() exclude.Set {
	return exclude.Union(b.Excluded, b.LocalInstallExcluded)
}

// RemoteExclusions is the exclusion set for installs cloned from a remote.
func (b *Build) RemoteExclusions() exclude.Set {
	return exclude.Union(b.Excluded, b.RemoteInstallExcluded)
}
