// Package installer implements the install, update, update-all, uninstall
// and list workflows on top of the sync, provenance and git layers.
//
// A package named N lives in <InstallRoot>/N with its wrapper at
// <BinDir>/N. The provenance file inside the install directory decides how
// the package is refreshed. Every mutating workflow holds the package's
// advisory lock for its whole duration.
package installer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/gitrepo"
	"github.com/blackwell-systems/dumbinstall/internal/lock"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/store"
)

// Status is the per-package outcome of an update.
type Status string

const (
	StatusUpToDate Status = "already up to date"
	StatusUpdated  Status = "updated"
)

// RemoteClient is the subset of *gitrepo.Client the workflows use.
type RemoteClient interface {
	IsAvailable() bool
	ResolveURL(locator string) string
	Clone(locator, dest string) gitrepo.Result
	UpdateAtPath(path string) gitrepo.Result
}

// Registry records installs for display. It is never authoritative.
type Registry interface {
	UpsertInstall(in *store.Install) error
	TouchInstall(name string, at time.Time) error
	GetInstall(name string) (*store.Install, error)
	DeleteInstall(name string) error
}

// Options configures an Installer.
type Options struct {
	InstallRoot string
	BinDir      string
	LockDir     string

	Git        RemoteClient
	Provenance *provenance.Store

	// Registry may be nil.
	Registry Registry

	// Progress, when set, is called by UpdateAll before each package.
	Progress func(name string)
}

// Installer runs the package workflows.
type Installer struct {
	root     string
	binDir   string
	lockDir  string
	git      RemoteClient
	prov     *provenance.Store
	registry Registry
	progress func(name string)
	logger   zerolog.Logger
}

// New returns an Installer. A nil Provenance store uses the real filesystem
// and a nil Git client shells out to git with the default host.
func New(opts Options) *Installer {
	in := &Installer{
		root:     opts.InstallRoot,
		binDir:   opts.BinDir,
		lockDir:  opts.LockDir,
		git:      opts.Git,
		prov:     opts.Provenance,
		registry: opts.Registry,
		progress: opts.Progress,
		logger:   logging.GetLogger("installer"),
	}
	if in.git == nil {
		in.git = gitrepo.New(gitrepo.DefaultHost)
	}
	if in.prov == nil {
		in.prov = provenance.NewOSStore()
	}
	if in.lockDir == "" {
		in.lockDir = filepath.Join(os.TempDir(), "dumbinstall-locks")
	}
	return in
}

// InstallRoot returns the directory holding installed packages.
func (in *Installer) InstallRoot() string { return in.root }

// BinDir returns the wrapper directory.
func (in *Installer) BinDir() string { return in.binDir }

// InstallDir returns the install directory for name.
func (in *Installer) InstallDir(name string) string {
	return filepath.Join(in.root, name)
}

// Installed returns the names of the package directories in the install
// root, sorted. Hidden entries such as staging directories are skipped. A
// missing root means nothing is installed.
func (in *Installer) Installed() ([]string, error) {
	entries, err := os.ReadDir(in.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "read install root %s", in.root)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// validName rejects names that would escape the install root or bin dir.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return errors.Newf(errors.ErrInvalidInput, "invalid program name %q", name)
	}
	return nil
}

func (in *Installer) acquire(name string) (*lock.Lock, error) {
	return lock.Acquire(in.lockDir, name)
}

func (in *Installer) release(l *lock.Lock) {
	if err := l.Release(); err != nil {
		in.logger.Warn().Err(err).Msg("Failed to release lock")
	}
}

// record applies fn to the registry. Registry failures are logged only.
func (in *Installer) record(name string, fn func(Registry) error) {
	if in.registry == nil {
		return
	}
	if err := fn(in.registry); err != nil {
		in.logger.Warn().Err(err).Str("package", name).Msg("Failed to update install registry")
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
