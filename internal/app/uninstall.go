package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <name>",
	Aliases: []string{"remove"},
	Short:   "Remove an installed program and its wrapper",
	Long: `Remove the wrapper script and install directory of NAME.

Uninstalling a program that is not installed only reports "program not
found". When the last program is removed the install root is deleted too.`,
	Example: `  dumbinstall uninstall app
  dumbinstall -E app`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	inst, closeRegistry := newInstaller(nil)
	defer closeRegistry()

	res, err := inst.Uninstall(args[0])
	if err != nil {
		return err
	}
	for _, msg := range res.Messages {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return nil
}
