package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/installer"
	"github.com/blackwell-systems/dumbinstall/internal/output"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed programs",
	Long: `List every program in the install root with where it was installed from,
its size on disk and when it was last updated. Remote installs also show the
checked out branch and commit.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	inst, closeRegistry := newInstaller(nil)
	defer closeRegistry()

	entries, err := inst.List()
	if err != nil {
		return err
	}

	rows := make([]output.InstallRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, installRow(e))
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderInstallTable(rows))
	return nil
}

// installRow flattens an entry for display. The provenance file wins over
// the registry for where a program came from.
func installRow(e installer.Entry) output.InstallRow {
	row := output.InstallRow{
		Name:      e.Name,
		Revision:  e.Revision,
		SizeBytes: e.SizeBytes,
	}
	if e.Record != nil {
		row.Source = e.Record.Source
		row.UpdatedAt = e.Record.UpdatedAt
	}

	switch p := e.Provenance.(type) {
	case provenance.LocalInstall:
		row.Channel = string(p.Channel())
		row.Source = p.SourcePath
	case provenance.RemoteInstall:
		row.Channel = string(p.Channel())
		if row.Source == "" {
			row.Source = e.Origin
		}
		if row.Source == "" {
			row.Source = "git"
		}
	default:
		if e.ProvenanceErr != nil {
			row.Problem = e.ProvenanceErr.Error()
		}
	}
	return row
}
