package watcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// StartDaemon re-executes the current binary with args in a new session,
// writes the child's PID to pidFile and appends its output to logFile.
func StartDaemon(pidFile, logFile string, args ...string) (int, error) {
	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		return 0, err
	}
	if running {
		return 0, errors.Newf(errors.ErrLocked, "watch daemon already running (PID file: %s)", pidFile)
	}

	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "create %s", filepath.Dir(pidFile))
	}
	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "open daemon log %s", logFile)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrFilesystem, "locate executable")
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(err, errors.ErrFilesystem, "start daemon process")
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		cmd.Process.Kill()
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "write PID file %s", pidFile)
	}
	if err := cmd.Process.Release(); err != nil {
		return 0, errors.Wrap(err, errors.ErrFilesystem, "release daemon process")
	}
	return pid, nil
}

// RunUntilSignal starts w and blocks until SIGTERM, SIGINT or ctx is done,
// then stops it. A non-empty pidFile is removed on the way out.
func (w *Watcher) RunUntilSignal(ctx context.Context, pidFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := w.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger := logging.GetLogger("watcher")
	logger.Info().Str("source", w.root).Msg("Shutting down watcher")

	if err := w.Stop(); err != nil {
		return err
	}
	if pidFile != "" {
		if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFilesystem, "remove PID file %s", pidFile)
		}
	}
	return nil
}

// StopDaemon sends SIGTERM to the process recorded in pidFile.
func StopDaemon(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, errors.ErrNotFound, "find process %d", pid)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "send SIGTERM to process %d", pid)
	}
	return nil
}

// IsDaemonRunning reports whether the process in pidFile is alive. A stale
// PID file is removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrNotFound) || errors.IsErrorCode(err, errors.ErrMetadataInvalid) {
			return false, nil
		}
		return false, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidFile)
		return false, nil
	}
	return true, nil
}

func readPID(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Newf(errors.ErrNotFound, "watch daemon not running (no PID file at %s)", pidFile)
		}
		return 0, errors.Wrapf(err, errors.ErrFilesystem, "read PID file %s", pidFile)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.Newf(errors.ErrMetadataInvalid, "invalid PID in %s", pidFile)
	}
	return pid, nil
}
