package installer

import (
	"io/fs"
	"path/filepath"

	"github.com/blackwell-systems/dumbinstall/internal/gitrepo"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/store"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

// Entry is one installed package as shown by List.
type Entry struct {
	Name       string
	InstallDir string
	Wrapper    string

	// Provenance is nil when ProvenanceErr is set.
	Provenance    provenance.Provenance
	ProvenanceErr error

	// Revision is branch@commit and Origin the origin URL of a remote
	// checkout. Both are empty for local installs.
	Revision  string
	Origin    string
	SizeBytes int64

	// Record is the registry row, nil when unknown.
	Record *store.Install
}

// List describes every package in the install root. Per-package problems
// are reported on the entry rather than failing the listing.
func (in *Installer) List() ([]Entry, error) {
	names, err := in.Installed()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		dir := in.InstallDir(name)
		e := Entry{
			Name:       name,
			InstallDir: dir,
			Wrapper:    wrapper.Path(in.binDir, name),
			SizeBytes:  dirSize(dir),
			Record:     in.registryInstall(name),
		}

		e.Provenance, e.ProvenanceErr = in.prov.Read(dir)
		if _, ok := e.Provenance.(provenance.RemoteInstall); ok {
			if rev, err := gitrepo.Describe(dir); err == nil {
				e.Revision = rev.String()
				e.Origin = rev.Origin
			} else {
				in.logger.Debug().Err(err).Str("package", name).Msg("Could not describe checkout")
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// registryInstall fetches the registry row for name, or nil.
func (in *Installer) registryInstall(name string) *store.Install {
	if in.registry == nil {
		return nil
	}
	row, err := in.registry.GetInstall(name)
	if err != nil {
		in.logger.Debug().Err(err).Str("package", name).Msg("No registry entry")
		return nil
	}
	return row
}

// dirSize sums the sizes of regular files below dir. Unreadable entries are
// skipped.
func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
