package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
)

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watch.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for missing PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watch.pid")
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_WithDeadProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watch.pid")
	if err := os.WriteFile(pidFile, []byte("999999999\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for dead process")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watch.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil for invalid PID", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for invalid PID")
	}
}

func TestStopDaemon_NotRunning(t *testing.T) {
	err := StopDaemon(filepath.Join(t.TempDir(), "watch.pid"))
	if !errors.IsErrorCode(err, errors.ErrNotFound) {
		t.Errorf("StopDaemon() error = %v, want NOT_FOUND", err)
	}
}

func TestStopDaemon_InvalidPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "watch.pid")
	if err := os.WriteFile(pidFile, []byte("invalid\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	if err := StopDaemon(pidFile); err == nil {
		t.Error("StopDaemon() expected error for invalid PID, got nil")
	}
}

func TestStartDaemon_AlreadyRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "watch.pid")
	logFile := filepath.Join(tmpDir, "watch.log")

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	_, err := StartDaemon(pidFile, logFile, "watch", "app", "--daemon-child")
	if !errors.IsErrorCode(err, errors.ErrLocked) {
		t.Errorf("StartDaemon() error = %v, want LOCKED", err)
	}
}

func TestStartDaemon_InvalidLogFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "watch.pid")
	logFile := filepath.Join(tmpDir, "nonexistent", "watch.log")

	if _, err := StartDaemon(pidFile, logFile, "watch"); err == nil {
		t.Error("StartDaemon() expected error for invalid log file path, got nil")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file written although the daemon never started")
	}
}

func TestRunUntilSignal_ContextCancel(t *testing.T) {
	src := t.TempDir()
	pidFile := filepath.Join(t.TempDir(), "watch.pid")
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	w, err := New(src, exclude.New(), func() error { return nil }, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := w.RunUntilSignal(ctx, pidFile); err != nil {
		t.Fatalf("RunUntilSignal() error = %v", err)
	}
	if runs, _ := w.Runs(); runs != 1 {
		t.Errorf("callback ran %d times, want 1 initial sync", runs)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file not removed on shutdown")
	}
}
