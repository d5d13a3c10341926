package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dumbinstall/internal/config"
	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
	"github.com/blackwell-systems/dumbinstall/internal/installer"
	"github.com/blackwell-systems/dumbinstall/internal/provenance"
	"github.com/blackwell-systems/dumbinstall/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch <name>",
		Short: "Keep a local install in sync while you edit its source",
		Long: `Watch the source directory of a locally installed program and update the
install whenever files change. Bursts of changes are collected into a single
update. Excluded files are ignored.

Only programs installed from a local directory can be watched.

Watch modes:
  • Foreground (default): Run in the current terminal, Ctrl+C to stop
  • Daemon: Run as a background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground
  dumbinstall watch app

  # Run as background daemon
  dumbinstall watch app --daemon

  # Stop the daemon
  dumbinstall watch app --stop`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: $XDG_STATE_HOME/dumbinstall/watch-NAME.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: $XDG_STATE_HOME/dumbinstall/watch-NAME.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	name := args[0]
	pidFile, logFile := watchPaths(name)
	out := cmd.OutOrStdout()

	if watchStop {
		running, err := watcher.IsDaemonRunning(pidFile)
		if err != nil {
			return err
		}
		if !running {
			fmt.Fprintf(out, "No watch daemon running for %s\n", name)
			return nil
		}
		if err := watcher.StopDaemon(pidFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Stopped watching %s\n", name)
		return nil
	}

	if err := requireRoot(); err != nil {
		return err
	}

	inst, closeRegistry := newInstaller(nil)
	defer closeRegistry()

	src, ex, err := watchSource(inst, name)
	if err != nil {
		return err
	}

	if watchDaemon {
		childArgs := []string{"watch", name, "--daemon-child", "--pid-file", pidFile}
		childArgs = append(childArgs, passthroughFlags()...)
		pid, err := watcher.StartDaemon(pidFile, logFile, childArgs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Watching %s in the background (PID %d)\n", src, pid)
		fmt.Fprintf(out, "  PID file: %s\n", pidFile)
		fmt.Fprintf(out, "  Log file: %s\n", logFile)
		fmt.Fprintf(out, "\nTo stop: dumbinstall watch %s --stop\n", name)
		return nil
	}

	w, err := watcher.New(src, ex, func() error {
		status, err := inst.Update(name)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
			return err
		}
		if status == installer.StatusUpdated {
			fmt.Fprintf(out, "%s: %s\n", name, status)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if watchDaemonChild {
		return w.RunUntilSignal(context.Background(), pidFile)
	}

	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)...\n", src)
	return w.RunUntilSignal(cmd.Context(), "")
}

// watchSource resolves the source directory and exclusion set of a local
// install.
func watchSource(inst *installer.Installer, name string) (string, exclude.Set, error) {
	p, err := provenance.NewOSStore().Read(inst.InstallDir(name))
	if err != nil {
		return "", exclude.Set{}, err
	}
	local, ok := p.(provenance.LocalInstall)
	if !ok {
		return "", exclude.Set{}, errors.Newf(errors.ErrInvalidInput,
			"%s was installed from a git repository: only local installs can be watched", name)
	}
	src, err := local.ResolveSource()
	if err != nil {
		return "", exclude.Set{}, err
	}
	build, err := config.LoadBuild(src)
	if err != nil {
		return "", exclude.Set{}, err
	}
	return src, build.LocalExclusions().With(provenance.FileName), nil
}

func watchPaths(name string) (pidFile, logFile string) {
	pidFile, logFile = watchPIDFile, watchLogFile
	if pidFile == "" {
		pidFile = filepath.Join(config.StateDir(), "watch-"+name+".pid")
	}
	if logFile == "" {
		logFile = filepath.Join(config.StateDir(), "watch-"+name+".log")
	}
	return pidFile, logFile
}

// passthroughFlags repeats the global flags for the daemon child so it
// resolves the same settings.
func passthroughFlags() []string {
	var flags []string
	if userMode {
		flags = append(flags, "--user")
	}
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err == nil {
			flags = append(flags, "--config", abs)
		}
	}
	for i := 0; i < verbosity; i++ {
		flags = append(flags, "-v")
	}
	return flags
}
