// Package filelock provides the process-wide instance lock and the
// temp-file-then-rename primitives used to publish files without ever exposing
// a partially written file under its final name.
package filelock

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// TempSuffix marks staging files created by WriteTemp. Watchers ignore names
// ending in it so in-progress copies are never picked up as candidates.
const TempSuffix = ".janitor-part"

// ErrLocked is returned when another process holds the instance lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock wraps a flock file lock for coordinating access across processes.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file is created on first use.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// InstanceLock guards a state directory so that only one janitor process
// mutates destination directories at a time.
type InstanceLock struct {
	lock    *FileLock
	pidPath string
}

// AcquireInstance takes the instance lock in dir without blocking and records
// the current pid next to it. Returns ErrLocked if another process holds it.
func AcquireInstance(dir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	lock := NewFileLock(filepath.Join(dir, "janitor.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		holder := ""
		if data, err := os.ReadFile(filepath.Join(dir, "janitor.pid")); err == nil {
			holder = " (pid " + string(data) + ")"
		}
		return nil, fmt.Errorf("%s%s: %w", lock.Path(), holder, ErrLocked)
	}

	il := &InstanceLock{lock: lock, pidPath: filepath.Join(dir, "janitor.pid")}
	if err := AtomicWrite(il.pidPath, []byte(strconv.Itoa(os.Getpid()))); err != nil {
		lock.Unlock()
		return nil, err
	}
	return il, nil
}

// Release removes the pid file and releases the lock.
func (il *InstanceLock) Release() error {
	os.Remove(il.pidPath)
	return il.lock.Unlock()
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
// Readers never see partial writes; if the operation fails the original file
// (if any) is unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	staged, err := WriteTemp(dir, filepath.Base(path), bytes.NewReader(data), 0644, time.Time{})
	if err != nil {
		return err
	}

	if err := os.Rename(staged.Path, path); err != nil {
		os.Remove(staged.Path)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// Staged describes a fully written, synced temp file waiting to be published.
type Staged struct {
	Path    string
	Written int64
}

// Discard removes the staged file. Safe to call after a successful publish.
func (s *Staged) Discard() {
	if s != nil && s.Path != "" {
		os.Remove(s.Path)
	}
}

// WriteTemp streams r into a hidden temp file in dir named after base, syncs
// it, applies mode and (if non-zero) mtime, and returns it closed. The temp
// file lives in the destination directory so the final rename stays on one
// filesystem. On any error the temp file is removed.
func WriteTemp(dir, base string, r io.Reader, mode os.FileMode, mtime time.Time) (*Staged, error) {
	tempFile, err := os.CreateTemp(dir, "."+base+".*"+TempSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tempPath := tempFile.Name()

	// Ensure temp file is cleaned up on error
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	written, err := io.Copy(tempFile, r)
	if err != nil {
		return nil, fmt.Errorf("failed to write temp file %s: %w", tempPath, err)
	}

	if err := tempFile.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync temp file %s: %w", tempPath, err)
	}

	if err := tempFile.Chmod(mode.Perm()); err != nil {
		return nil, fmt.Errorf("failed to set permissions on %s: %w", tempPath, err)
	}

	// Close before Chtimes; closing may bump the modification time.
	if err := tempFile.Close(); err != nil {
		tempFile = nil
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to close temp file %s: %w", tempPath, err)
	}
	tempFile = nil

	if !mtime.IsZero() {
		if err := os.Chtimes(tempPath, mtime, mtime); err != nil {
			os.Remove(tempPath)
			return nil, fmt.Errorf("failed to set timestamps on %s: %w", tempPath, err)
		}
	}

	return &Staged{Path: tempPath, Written: written}, nil
}

// IsTemp reports whether name looks like a staging file from WriteTemp.
func IsTemp(name string) bool {
	base := filepath.Base(name)
	return len(base) > len(TempSuffix) && base[0] == '.' && base[len(base)-len(TempSuffix):] == TempSuffix
}
