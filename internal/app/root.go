package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/config"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

var (
	verbosity    int
	userMode     bool
	configPath   string
	exeUninstall string

	// settings is resolved once per invocation in PersistentPreRunE.
	settings *config.Settings

	// RootCmd is the root command for dumbinstall
	RootCmd = &cobra.Command{
		Use:   "dumbinstall",
		Short: "Install and keep in sync programs built from project directories",
		Long: `dumbinstall copies a project (a local directory or a git repository) into a
managed install root and puts a small wrapper script for it on your PATH.

Every project carries a dumb_build.toml naming its executable and the command
the wrapper runs. dumbinstall remembers where each program came from, so
'update' resyncs local installs from their source directory and pulls remote
installs from their repository.

Examples:
  # Install the project in the current directory
  dumbinstall install

  # Install from GitHub
  dumbinstall install owner/repo

  # Refresh everything
  dumbinstall update --all

  # Remove a program
  dumbinstall uninstall app`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exeUninstall != "" {
				return runUninstall(cmd, []string{exeUninstall})
			}
			return cmd.Help()
		},
	}
)

func init() {
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	RootCmd.PersistentFlags().BoolVar(&userMode, "user", false, "use the per-user layout (~/.local) instead of the system one")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default: $XDG_CONFIG_HOME/dumbinstall/config.toml)")
	RootCmd.Flags().StringVarP(&exeUninstall, "exe-uninstall", "E", "", "uninstall the named program (same as 'uninstall NAME')")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(uninstallCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	logging.SetupLogger(verbosity)
	logging.LogCommand(logging.GetLogger("cli"), cmd.CommandPath(), args)

	s, err := config.LoadSettings(config.LoadOptions{
		ConfigFile: configPath,
		User:       userMode,
	})
	if err != nil {
		return err
	}
	settings = s
	return nil
}
