// Package lock provides the advisory per-package lock held while a package's
// install directory is being mutated.
//
// The lock is a file <dir>/<name>.lock holding the owner's PID, linked into
// place only once the PID is written. A lock whose owner is no longer running
// is stale and is taken over. Callers must Release on every exit path.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// Lock is a held package lock.
type Lock struct {
	path string
}

// Path returns the lock file for name in dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".lock")
}

// Acquire takes the lock for name. A lock held by a live process yields an
// ErrLocked error.
func Acquire(dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "create lock dir %s", dir)
	}
	path := Path(dir, name)

	// Two attempts: the second follows removal of a stale lock.
	for attempt := 0; attempt < 2; attempt++ {
		err := place(dir, path)
		if err == nil {
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "create lock file %s", path)
		}

		pid, alive := holder(path)
		if alive {
			return nil, errors.Newf(errors.ErrLocked,
				"%s is locked by process %d (lock file: %s)", name, pid, path).
				WithDetail("pid", pid)
		}

		logger := logging.GetLogger("lock")
		logger.Warn().
			Str("path", path).
			Int("pid", pid).
			Msg("Removing stale lock")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "remove stale lock %s", path)
		}
	}
	return nil, errors.Newf(errors.ErrLocked, "could not acquire lock %s", path)
}

// place writes the PID to a temp file in dir and hard-links it to path, so
// the lock file never exists without its PID. The link fails with an
// IsExist error when path is already taken.
func place(dir, path string) error {
	tmp, err := os.CreateTemp(dir, ".lock-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = fmt.Fprintf(tmp, "%d\n", os.Getpid())
	if err == nil {
		err = tmp.Chmod(0644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Link(tmp.Name(), path)
}

// Release removes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFilesystem, "remove lock %s", path)
	}
	return nil
}

// holder reads the PID in the lock file and reports whether that process is
// still running. An unreadable or malformed file counts as stale.
func holder(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	// Signal 0 probes for existence. EPERM means the process exists but
	// belongs to someone else.
	err = process.Signal(syscall.Signal(0))
	if err == nil || err == syscall.EPERM {
		return pid, true
	}
	return pid, false
}
