// Package filelock writes output files atomically under an advisory lock so
// two promptpack processes never interleave or truncate each other's output.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to a target path to name its lock file
const LockSuffix = ".lock"

// FileLock is an exclusive advisory lock on a lock file
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock returns an unlocked lock on path
func NewFileLock(path string) *FileLock {
	return &FileLock{flock: flock.New(path), path: path}
}

// Path returns the lock file path
func (fl *FileLock) Path() string { return fl.path }

// Lock blocks until the lock is held
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("filelock: lock %s: %w", fl.path, err)
	}
	return nil
}

// TryLock reports whether the lock was acquired without blocking
func (fl *FileLock) TryLock() (bool, error) {
	ok, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("filelock: try lock %s: %w", fl.path, err)
	}
	return ok, nil
}

func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("filelock: unlock %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite replaces path with data through a temp file in the same
// directory and a rename. On failure the previous content is untouched.
func AtomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filelock: create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("filelock: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("filelock: write %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("filelock: sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filelock: close %s: %w", tmpPath, err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("filelock: chmod %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("filelock: rename to %s: %w", path, err)
	}
	return nil
}

// LockAndWrite holds path+LockSuffix while atomically writing path. When
// another process holds the lock, waiting (if set) is called with the lock
// path before blocking.
func LockAndWrite(path string, data []byte, waiting func(lockPath string)) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filelock: create directory %s: %w", dir, err)
	}
	lock := NewFileLock(path + LockSuffix)
	ok, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !ok {
		if waiting != nil {
			waiting(lock.Path())
		}
		if err := lock.Lock(); err != nil {
			return err
		}
	}
	defer lock.Unlock()

	return AtomicWrite(path, data)
}
