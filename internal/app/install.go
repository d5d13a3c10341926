package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/output"
	"github.com/blackwell-systems/dumbinstall/internal/wrapper"
)

var (
	installGit bool

	installCmd = &cobra.Command{
		Use:   "install [locator]",
		Short: "Install a project from a directory or a git repository",
		Long: `Install the project named by LOCATOR (default: the current directory).

A locator that is an existing directory is copied into the install root,
honoring the 'excluded' and 'local_install_excluded' patterns of its
dumb_build.toml. Anything else is cloned: full URLs and scp-style addresses
are used as given, owner/repo is resolved against the configured git host.

Reinstalling a program replaces the previous copy.`,
		Example: `  # Install the project in the current directory
  dumbinstall install

  # Install from a path
  dumbinstall install ~/src/app

  # Install from GitHub
  dumbinstall install owner/repo

  # Clone even though a matching directory exists
  dumbinstall install --git owner/repo`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInstall,
	}
)

func init() {
	installCmd.Flags().BoolVar(&installGit, "git", false, "treat the locator as a git repository")
}

func runInstall(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	locator := "."
	if len(args) == 1 {
		locator = args[0]
	}

	inst, closeRegistry := newInstaller(nil)
	defer closeRegistry()

	spinner := output.NewSpinner(fmt.Sprintf("Installing %s", locator))
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	res, err := inst.Install(locator, installGit)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ %s ready", res.Name))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installed '%s' from %s\n", res.Name, res.Source)
	fmt.Fprintf(out, "Project location: %s\n", res.InstallDir)
	fmt.Fprintf(out, "Executable: %s\n", res.WrapperPath)

	if ok, reason := wrapper.IsOnPath(inst.BinDir()); !ok {
		fmt.Fprintf(out, "\nNote: %s\n", reason)
		fmt.Fprintln(out, "  Run 'dumbinstall doctor --fix-path' to add it to your shell profile.")
	}
	return nil
}
