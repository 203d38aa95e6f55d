// Package pid guards against two daemon instances driving the same
// chromatograph hardware at once.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dalphys/chromatographd/internal/errors"
)

const pidFile = "chromatographd.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Active reports whether a live process currently holds the PID file.
// A missing, unreadable, or stale file counts as inactive.
func Active() bool {
	bytes, err := os.ReadFile(path())
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(string(bytes))
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

// Write writes the current process ID to a PID file. It fails with
// ErrAlreadyRunning if another live process holds the file; a stale
// file from a dead process is overwritten.
func Write() error {
	if Active() {
		return errors.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	if _, err := os.Stat(path()); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path()); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}

	return nil
}
