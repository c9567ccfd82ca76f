package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// ErrDestinationExists is returned when a no-replace publish finds the final
// name taken, i.e. something claimed it after conflict resolution.
var ErrDestinationExists = errors.New("destination already exists")

// isCrossDevice reports whether err is the rename failure for paths on
// different filesystems.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// linkRename publishes oldpath at newpath without replacing an existing entry,
// using a hard link followed by removal of the old name. A crash between the
// two steps leaves both names pointing at the same data, never neither.
func linkRename(oldpath, newpath string) error {
	err := os.Link(oldpath, newpath)
	switch {
	case err == nil:
		if err := os.Remove(oldpath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("published %s but failed to remove %s: %w", newpath, oldpath, err)
		}
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s: %w", newpath, ErrDestinationExists)
	case isCrossDevice(err):
		return err
	}

	// Filesystems without hard links: probe and rename. Callers hold the
	// destination directory lock, so only foreign processes can race here.
	if _, statErr := os.Lstat(newpath); statErr == nil {
		return fmt.Errorf("%s: %w", newpath, ErrDestinationExists)
	}
	return os.Rename(oldpath, newpath)
}
