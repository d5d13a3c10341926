// Package provenance records, inside each installed package directory, how
// the package was installed and therefore how it is refreshed.
package provenance

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
)

// FileName is the metadata file written at the root of every install
// directory. Update logic depends on it; the name must never change.
const FileName = ".dumb_install.json"

// Channel names the two ways a package can be installed.
type Channel string

const (
	ChannelRemote Channel = "git"
	ChannelLocal  Channel = "local"
)

// Provenance is either RemoteInstall or LocalInstall.
type Provenance interface {
	Channel() Channel
	isProvenance()
}

// RemoteInstall is a package cloned from a remote repository. It is refreshed
// through the repository checkout itself and never has a source path.
type RemoteInstall struct{}

func (RemoteInstall) Channel() Channel { return ChannelRemote }
func (RemoteInstall) isProvenance()    {}

// LocalInstall is a package mirrored from a local directory.
type LocalInstall struct {
	// SourcePath may be empty when an older record carried no path.
	SourcePath string
}

func (LocalInstall) Channel() Channel { return ChannelLocal }
func (LocalInstall) isProvenance()    {}

// ResolveSource returns the directory to resync from. A missing, relative or
// vanished path is a NotFound error.
func (l LocalInstall) ResolveSource() (string, error) {
	if l.SourcePath == "" {
		return "", errors.New(errors.ErrNotFound, "no source path recorded for local install")
	}
	if !filepath.IsAbs(l.SourcePath) {
		return "", errors.Newf(errors.ErrNotFound, "recorded source path %q is not absolute", l.SourcePath)
	}
	info, err := os.Stat(l.SourcePath)
	if err != nil || !info.IsDir() {
		return "", errors.Newf(errors.ErrNotFound, "source path %s no longer exists", l.SourcePath)
	}
	return l.SourcePath, nil
}

// record is the on-disk shape.
type record struct {
	IsGitInstall bool    `json:"is_git_install"`
	SourcePath   *string `json:"source_path"`
}

func toRecord(p Provenance) record {
	switch v := p.(type) {
	case LocalInstall:
		r := record{IsGitInstall: false}
		if v.SourcePath != "" {
			path := v.SourcePath
			r.SourcePath = &path
		}
		return r
	default:
		return record{IsGitInstall: true}
	}
}

func fromRecord(r record) Provenance {
	if r.IsGitInstall {
		return RemoteInstall{}
	}
	if r.SourcePath == nil {
		return LocalInstall{}
	}
	return LocalInstall{SourcePath: *r.SourcePath}
}

// Store reads and writes provenance files.
type Store struct {
	fs afero.Fs
}

// NewStore returns a Store backed by fs.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOSStore returns a Store on the real filesystem.
func NewOSStore() *Store {
	return NewStore(afero.NewOsFs())
}

// Path returns the metadata file path for installDir.
func Path(installDir string) string {
	return filepath.Join(installDir, FileName)
}

// Write replaces the record for installDir. The file is written to a
// temporary name and renamed so readers see either the old or the new
// record, never a mix.
func (s *Store) Write(p Provenance, installDir string) error {
	if p == nil {
		return errors.New(errors.ErrInvalidInput, "provenance must not be nil")
	}
	data, err := json.Marshal(toRecord(p))
	if err != nil {
		return errors.Wrap(err, errors.ErrMetadataInvalid, "encode provenance")
	}

	if err := s.fs.MkdirAll(installDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "create %s", installDir)
	}

	path := Path(installDir)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "write %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFilesystem, "replace %s", path)
	}
	return nil
}

// Read loads the record for installDir. A missing file is a NotFound error:
// a package without provenance cannot be updated automatically.
func (s *Store) Read(installDir string) (Provenance, error) {
	path := Path(installDir)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "metadata file not found at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "read %s", path)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, errors.ErrMetadataInvalid, "parse %s", path)
	}
	return fromRecord(r), nil
}
