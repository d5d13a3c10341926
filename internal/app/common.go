package app

import (
	"os"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/gitrepo"
	"github.com/blackwell-systems/dumbinstall/internal/installer"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
	"github.com/blackwell-systems/dumbinstall/internal/store"
)

// geteuid is swapped in tests.
var geteuid = os.Geteuid

// requireRoot fails mutating commands when the settings ask for root and
// the process does not have it.
func requireRoot() error {
	if !settings.RequireRoot || geteuid() == 0 {
		return nil
	}
	return errors.New(errors.ErrConfiguration,
		"this command must be run as root (use --user for a per-user install)")
}

// openRegistry opens the install registry. The registry is informational,
// so a failure is logged and nil returned.
func openRegistry() *store.Store {
	st, err := store.Open(settings.RegistryPath)
	if err != nil {
		logger := logging.GetLogger("cli")
		logger.Warn().Err(err).Str("path", settings.RegistryPath).Msg("Install registry unavailable")
		return nil
	}
	return st
}

// newInstaller builds an Installer from the loaded settings. The returned
// func closes the registry.
func newInstaller(progress func(string)) (*installer.Installer, func()) {
	opts := installer.Options{
		InstallRoot: settings.InstallRoot,
		BinDir:      settings.BinDir,
		LockDir:     settings.LockDir,
		Git:         gitrepo.New(settings.GitHost),
		Progress:    progress,
	}

	st := openRegistry()
	if st == nil {
		return installer.New(opts), func() {}
	}
	opts.Registry = st
	return installer.New(opts), func() { st.Close() }
}
