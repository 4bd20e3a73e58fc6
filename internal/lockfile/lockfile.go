// Package lockfile guards the serve socket with an exclusive flock so two
// servers cannot bind the same store directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("lock already held by another process")

// Lock represents a held lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire attempts to take an exclusive lock on path, creating the file if
// needed. Returns ErrLocked if another process holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("cannot lock file: %w", err)
	}

	// PID written for debugging only; the flock is the actual guard.
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Sync()

	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Close releases the lock. Closing the file descriptor releases the flock.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
