package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/gitrepo"
	"github.com/blackwell-systems/dumbinstall/internal/shell"
	"github.com/blackwell-systems/dumbinstall/internal/store"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

var (
	doctorFixPath bool

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues and check system health",
		Long: `Runs diagnostic checks on your dumbinstall setup.

Checks:
  • git is installed
  • Privileges match the configured layout
  • Install root and bin directory are writable
  • Bin directory is on PATH
  • Install registry is accessible`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFixPath, "fix-path", false, "add the bin directory to your shell profile")
}

// doctorReport counts findings while printing them.
type doctorReport struct {
	out      io.Writer
	critical int
	warnings int
}

func (r *doctorReport) ok(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "✓ "+format+"\n", args...)
}

func (r *doctorReport) warn(action, format string, args ...interface{}) {
	r.warnings++
	fmt.Fprintf(r.out, "⚠ "+format+"\n", args...)
	if action != "" {
		fmt.Fprintf(r.out, "  Action: %s\n", action)
	}
}

func (r *doctorReport) fail(action, format string, args ...interface{}) {
	r.critical++
	fmt.Fprintf(r.out, "✗ "+format+"\n", args...)
	if action != "" {
		fmt.Fprintf(r.out, "  Action: %s\n", action)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	r := &doctorReport{out: cmd.OutOrStdout()}
	fmt.Fprintln(r.out, "Running dumbinstall diagnostics...")
	fmt.Fprintln(r.out)

	if gitrepo.New(settings.GitHost).IsAvailable() {
		r.ok("git found")
	} else {
		r.warn("install git to install from repositories", "git is not installed or not available in PATH")
	}

	if err := requireRoot(); err != nil {
		r.warn("run as root, or pass --user", "not running as root but the settings require it")
	} else {
		r.ok("privileges match the %s layout", layoutName())
	}

	checkWritable(r, "install root", settings.InstallRoot)
	checkWritable(r, "bin directory", settings.BinDir)

	if ok, reason := wrapper.IsOnPath(settings.BinDir); ok {
		r.ok("bin directory on PATH: %s", settings.BinDir)
	} else if doctorFixPath {
		added, profile, err := shell.EnsurePathEntry(settings.BinDir)
		switch {
		case err != nil:
			r.fail("", "could not update shell profile: %v", err)
		case added:
			r.ok("added %s to PATH in %s (restart your shell)", settings.BinDir, profile)
		default:
			r.warn("restart your shell", "%s already sets PATH but this shell has not picked it up", profile)
		}
	} else {
		r.warn("run 'dumbinstall doctor --fix-path', or "+reason, "bin directory not on PATH")
	}

	checkRegistry(r)

	fmt.Fprintln(r.out)
	if r.critical == 0 && r.warnings == 0 {
		fmt.Fprintln(r.out, "✓ All checks passed!")
		return nil
	}
	if r.critical > 0 {
		fmt.Fprintf(r.out, "Found %d critical issue(s) and %d warning(s).\n", r.critical, r.warnings)
		return errors.New(errors.ErrConfiguration, "diagnostics failed")
	}
	fmt.Fprintf(r.out, "Found %d warning(s). dumbinstall works but is not fully configured.\n", r.warnings)
	return nil
}

func layoutName() string {
	if userMode {
		return "per-user"
	}
	return "system"
}

// checkWritable probes dir, or its closest existing parent when dir does
// not exist yet, by creating and removing a temp file.
func checkWritable(r *doctorReport, label, dir string) {
	probe := dir
	for {
		if info, err := os.Stat(probe); err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			r.fail("", "%s %s has no existing parent", label, dir)
			return
		}
		probe = parent
	}

	f, err := os.CreateTemp(probe, ".dumbinstall-probe-")
	if err != nil {
		r.fail("check permissions or pass --user", "%s not writable: %s", label, probe)
		return
	}
	f.Close()
	os.Remove(f.Name())

	if probe == dir {
		r.ok("%s writable: %s", label, dir)
	} else {
		r.ok("%s can be created: %s", label, dir)
	}
}

func checkRegistry(r *doctorReport) {
	st, err := store.Open(settings.RegistryPath)
	if err != nil {
		r.warn("check permissions on "+filepath.Dir(settings.RegistryPath), "install registry unavailable: %v", err)
		return
	}
	defer st.Close()

	installs, err := st.ListInstalls()
	if err != nil {
		r.warn("", "cannot read install registry: %v", err)
		return
	}
	r.ok("install registry: %s (%d programs recorded)", settings.RegistryPath, len(installs))

	// The install root is authoritative; stale rows are only reported.
	for _, in := range installs {
		if _, err := os.Stat(in.InstallDir); os.IsNotExist(err) {
			r.warn("reinstall it, or run 'dumbinstall uninstall "+in.Name+"' to forget it",
				"registry lists %s but %s is gone", in.Name, in.InstallDir)
		}
	}
}
