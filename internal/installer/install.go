package installer

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/blackwell-systems/dumbinstall/internal/config"
	"github.com/blackwell-systems/dumbinstall/internal/dirsync"
	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/store"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

// InstallResult describes a completed install.
type InstallResult struct {
	Name        string
	Channel     provenance.Channel
	Source      string
	InstallDir  string
	WrapperPath string
}

// Install installs the project named by locator. An existing local
// directory is mirrored; anything else (or any locator when remote is true)
// is cloned. Reinstalling an existing package replaces it.
func (in *Installer) Install(locator string, remote bool) (*InstallResult, error) {
	done := logging.LogOperationStart(in.logger, "install")
	defer done()

	if !remote {
		path, err := homedir.Expand(locator)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "expand %s", locator)
		}
		if isDir(path) {
			return in.installLocal(path)
		}
		if !looksRemote(locator) {
			return nil, errors.Newf(errors.ErrNotFound, "source path %s does not exist", path)
		}
	}
	return in.installRemote(locator)
}

// looksRemote matches URLs, scp-style addresses and owner/repo identifiers.
func looksRemote(locator string) bool {
	if strings.Contains(locator, "://") {
		return true
	}
	if at, colon := strings.Index(locator, "@"), strings.Index(locator, ":"); at > 0 && colon > at {
		return true
	}
	if strings.HasPrefix(locator, ".") || strings.HasPrefix(locator, "/") || strings.HasPrefix(locator, "~") {
		return false
	}
	parts := strings.Split(locator, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

func (in *Installer) installLocal(path string) (*InstallResult, error) {
	src, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "resolve %s", path)
	}

	build, err := config.LoadBuild(src)
	if err != nil {
		return nil, err
	}
	name := build.ExecutableName

	l, err := in.acquire(name)
	if err != nil {
		return nil, err
	}
	defer in.release(l)

	installDir := in.InstallDir(name)
	in.logger.Info().Str("source", src).Str("dest", installDir).Msg("Installing from local path")

	if err := os.MkdirAll(in.root, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "create install root %s", in.root)
	}
	if err := dirsync.Mirror(src, installDir, build.LocalExclusions().With(provenance.FileName)); err != nil {
		return nil, err
	}
	if err := in.prov.Write(provenance.LocalInstall{SourcePath: src}, installDir); err != nil {
		return nil, err
	}
	wrapperPath, err := wrapper.Write(in.binDir, name, installDir, build.Command)
	if err != nil {
		return nil, err
	}

	res := &InstallResult{
		Name:        name,
		Channel:     provenance.ChannelLocal,
		Source:      src,
		InstallDir:  installDir,
		WrapperPath: wrapperPath,
	}
	in.recordInstall(res)
	return res, nil
}

func (in *Installer) installRemote(locator string) (*InstallResult, error) {
	if !in.git.IsAvailable() {
		return nil, errors.New(errors.ErrRemoteTool, "git is not installed or not available in PATH")
	}
	if err := os.MkdirAll(in.root, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "create install root %s", in.root)
	}

	// The package name is only known once the descriptor has been read from
	// the clone, so clone into a hidden staging directory first.
	staging, err := os.MkdirTemp(in.root, ".staging-")
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "create staging directory in %s", in.root)
	}
	defer os.RemoveAll(staging)

	in.logger.Info().Str("locator", locator).Str("staging", staging).Msg("Installing from remote")
	if res := in.git.Clone(locator, staging); !res.Success {
		return nil, res.Err()
	}

	build, err := config.LoadBuild(staging)
	if err != nil {
		return nil, err
	}
	name := build.ExecutableName

	l, err := in.acquire(name)
	if err != nil {
		return nil, err
	}
	defer in.release(l)

	installDir := in.InstallDir(name)
	if err := os.RemoveAll(installDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "remove previous install %s", installDir)
	}
	if err := os.Rename(staging, installDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "move clone to %s", installDir)
	}

	if err := pruneRemote(installDir, build); err != nil {
		return nil, err
	}
	if err := in.prov.Write(provenance.RemoteInstall{}, installDir); err != nil {
		return nil, err
	}
	wrapperPath, err := wrapper.Write(in.binDir, name, installDir, build.Command)
	if err != nil {
		return nil, err
	}

	res := &InstallResult{
		Name:        name,
		Channel:     provenance.ChannelRemote,
		Source:      in.git.ResolveURL(locator),
		InstallDir:  installDir,
		WrapperPath: wrapperPath,
	}
	in.recordInstall(res)
	return res, nil
}

func (in *Installer) recordInstall(res *InstallResult) {
	now := time.Now().UTC()
	in.record(res.Name, func(r Registry) error {
		return r.UpsertInstall(&store.Install{
			Name:        res.Name,
			Channel:     string(res.Channel),
			Source:      res.Source,
			InstallDir:  res.InstallDir,
			WrapperPath: res.WrapperPath,
			InstalledAt: now,
			UpdatedAt:   now,
		})
	})
	in.logger.Info().
		Str("package", res.Name).
		Str("channel", string(res.Channel)).
		Str("dir", res.InstallDir).
		Msg("Installed")
}
