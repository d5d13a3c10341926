package installer

import (
	"os"
	"time"

	"github.com/blackwell-systems/dumbinstall/internal/config"
	"github.com/blackwell-systems/dumbinstall/internal/dirsync"
	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

// UpdateOutcome is one package's result within UpdateAll.
type UpdateOutcome struct {
	Name   string
	Status Status
	Err    error
}

// Update refreshes the installed package name according to its provenance.
// A package whose provenance file is missing cannot be updated.
func (in *Installer) Update(name string) (Status, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	done := logging.LogOperationStart(in.logger, "update")
	defer done()

	installDir := in.InstallDir(name)
	if !isDir(installDir) {
		return "", errors.Newf(errors.ErrNotFound, "program %s not found in %s", name, in.root)
	}

	l, err := in.acquire(name)
	if err != nil {
		return "", err
	}
	defer in.release(l)

	p, err := in.prov.Read(installDir)
	if err != nil {
		return "", err
	}

	var status Status
	switch p := p.(type) {
	case provenance.LocalInstall:
		status, err = in.updateLocal(name, installDir, p)
	case provenance.RemoteInstall:
		status, err = in.updateRemote(name, installDir)
	default:
		err = errors.Newf(errors.ErrMetadataInvalid, "unknown provenance for %s", name)
	}
	if err != nil {
		return "", err
	}

	in.logger.Info().Str("package", name).Str("status", string(status)).Msg("Update finished")
	if status == StatusUpdated {
		in.record(name, func(r Registry) error {
			return r.TouchInstall(name, time.Now())
		})
	}
	return status, nil
}

// UpdateAll updates every installed package. A failure is recorded in that
// package's outcome and the remaining packages are still attempted.
func (in *Installer) UpdateAll() ([]UpdateOutcome, error) {
	names, err := in.Installed()
	if err != nil {
		return nil, err
	}

	outcomes := make([]UpdateOutcome, 0, len(names))
	for _, name := range names {
		if in.progress != nil {
			in.progress(name)
		}
		status, err := in.Update(name)
		if err != nil {
			in.logger.Warn().
				Err(err).
				Str("package", name).
				Str("code", string(errors.GetErrorCode(err))).
				Msg("Update failed")
		}
		outcomes = append(outcomes, UpdateOutcome{Name: name, Status: status, Err: err})
	}
	return outcomes, nil
}

// updateLocal resyncs from the recorded source directory. The install
// directory is only rewritten when the filtered trees differ.
func (in *Installer) updateLocal(name, installDir string, p provenance.LocalInstall) (Status, error) {
	src, err := p.ResolveSource()
	if err != nil {
		return "", err
	}
	build, err := loadBuildFor(name, src)
	if err != nil {
		return "", err
	}

	ex := build.LocalExclusions().With(provenance.FileName)
	differ, err := dirsync.Differ(src, installDir, ex)
	if err != nil {
		return "", err
	}

	if !differ {
		refreshed, err := in.refreshWrapper(name, installDir, build.Command)
		if err != nil {
			return "", err
		}
		if refreshed {
			return StatusUpdated, nil
		}
		return StatusUpToDate, nil
	}

	if err := dirsync.Mirror(src, installDir, ex); err != nil {
		return "", err
	}
	if err := in.prov.Write(provenance.LocalInstall{SourcePath: src}, installDir); err != nil {
		return "", err
	}
	if _, err := wrapper.Write(in.binDir, name, installDir, build.Command); err != nil {
		return "", err
	}
	return StatusUpdated, nil
}

// updateRemote pulls the checkout to its remote tip and re-applies the
// current remote exclusions, which the reset may have undone.
func (in *Installer) updateRemote(name, installDir string) (Status, error) {
	res := in.git.UpdateAtPath(installDir)
	if !res.UpToDate() {
		// Once the reset has run, git clean has removed the untracked
		// provenance file, even if a later step failed.
		werr := in.prov.Write(provenance.RemoteInstall{}, installDir)
		if !res.Success {
			return "", res.Err()
		}
		if werr != nil {
			return "", werr
		}
	}

	build, err := loadBuildFor(name, installDir)
	if err != nil {
		return "", err
	}
	if err := pruneRemote(installDir, build); err != nil {
		return "", err
	}

	if res.UpToDate() {
		if _, err := in.refreshWrapper(name, installDir, build.Command); err != nil {
			return "", err
		}
		return StatusUpToDate, nil
	}

	if _, err := wrapper.Write(in.binDir, name, installDir, build.Command); err != nil {
		return "", err
	}
	return StatusUpdated, nil
}

// pruneRemote applies the remote exclusions to a checkout. The repository,
// the provenance record and the descriptor are kept whatever the patterns
// say: later updates need all three.
func pruneRemote(installDir string, build *config.Build) error {
	_, err := dirsync.Prune(installDir, build.RemoteExclusions(),
		".git", provenance.FileName, config.BuildFileName)
	return err
}

// loadBuildFor loads the descriptor in dir and checks it still names the
// installed package. Renaming requires uninstall and a fresh install.
func loadBuildFor(name, dir string) (*config.Build, error) {
	build, err := config.LoadBuild(dir)
	if err != nil {
		return nil, err
	}
	if build.ExecutableName != name {
		return nil, errors.Newf(errors.ErrConfiguration,
			"executable_name changed from %q to %q: uninstall and install again", name, build.ExecutableName)
	}
	return build, nil
}

// refreshWrapper rewrites the wrapper only when it is missing or stale and
// reports whether it did.
func (in *Installer) refreshWrapper(name, installDir, command string) (bool, error) {
	want := wrapper.Render(installDir, command)
	if got, err := os.ReadFile(wrapper.Path(in.binDir, name)); err == nil && string(got) == want {
		return false, nil
	}
	if _, err := wrapper.Write(in.binDir, name, installDir, command); err != nil {
		return false, err
	}
	in.logger.Info().Str("package", name).Msg("Rewrote stale wrapper")
	return true, nil
}
