package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/installer"
	"github.com/blackwell-systems/dumbinstall/internal/output"
)

var (
	updateAll bool

	updateCmd = &cobra.Command{
		Use:   "update [names...]",
		Short: "Bring installed programs up to date with their source",
		Long: `Update the named programs, or every installed program with --all.

Local installs are compared with their source directory and only copied
again when something changed. Remote installs are fetched and hard-reset to
the tip of their branch; local edits inside the install directory are lost.

A failure in one program does not stop the others from being updated.`,
		Example: `  dumbinstall update app
  dumbinstall update app tool
  dumbinstall update --all`,
		RunE: runUpdate,
	}
)

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "update every installed program")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if updateAll && len(args) > 0 {
		return errors.New(errors.ErrInvalidInput, "pass program names or --all, not both")
	}
	if !updateAll && len(args) == 0 {
		return errors.New(errors.ErrInvalidInput, "no program named: pass program names or --all")
	}
	if err := requireRoot(); err != nil {
		return err
	}

	var outcomes []installer.UpdateOutcome
	if updateAll {
		var progress *output.ProgressBar
		inst, closeRegistry := newInstaller(func(name string) { progress.Step(name) })
		defer closeRegistry()

		names, err := inst.Installed()
		if err != nil {
			return err
		}
		progress = output.NewProgress(len(names))
		progress.SetWriter(cmd.ErrOrStderr())

		outcomes, err = inst.UpdateAll()
		progress.Finish()
		if err != nil {
			return err
		}
	} else {
		inst, closeRegistry := newInstaller(nil)
		defer closeRegistry()
		for _, name := range args {
			status, err := inst.Update(name)
			outcomes = append(outcomes, installer.UpdateOutcome{Name: name, Status: status, Err: err})
		}
	}

	// A single named program reports its error directly.
	if len(args) == 1 && outcomes[0].Err != nil {
		return outcomes[0].Err
	}

	rows := make([]output.UpdateRow, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
		rows = append(rows, output.UpdateRow{Name: o.Name, Status: string(o.Status), Err: o.Err})
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderUpdateResults(rows))

	if failed > 0 {
		return errors.Newf(errors.ErrUnknown, "%d of %d update(s) failed", failed, len(outcomes))
	}
	return nil
}
