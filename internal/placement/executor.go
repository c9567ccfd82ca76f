package placement

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harrison/janitor/internal/filelock"
	"github.com/harrison/janitor/internal/models"
)

// Result describes what an execution did.
type Result int

const (
	// Done means the action was performed.
	Done Result = iota
	// AlreadySatisfied means the filesystem was already in the requested state.
	AlreadySatisfied
)

// String returns a human-readable representation of the result.
func (r Result) String() string {
	if r == AlreadySatisfied {
		return "already satisfied"
	}
	return "done"
}

// Executor performs move, copy and delete actions so that a failure at any
// point leaves either the untouched source or a complete destination, never a
// truncated file under the final name.
type Executor struct {
	rename          func(oldpath, newpath string) error
	renameNoReplace func(oldpath, newpath string) error
	open            func(name string) (io.ReadCloser, error)
}

// NewExecutor creates an executor operating on the real filesystem.
func NewExecutor() *Executor {
	return &Executor{
		rename:          os.Rename,
		renameNoReplace: renameNoReplace,
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// Execute performs d.Action for d.Source. replace selects whether an existing
// entry at d.Destination may be atomically replaced (overwrite policy); when
// false a taken destination yields ErrDestinationExists.
func (e *Executor) Execute(d models.Decision, replace bool) (Result, error) {
	switch d.Action {
	case models.ActionDelete:
		return e.delete(d.Source)
	case models.ActionMove:
		if d.Destination == "" {
			return Done, fmt.Errorf("move of %s has no destination", d.Source)
		}
		return e.move(d, replace)
	case models.ActionCopy:
		if d.Destination == "" {
			return Done, fmt.Errorf("copy of %s has no destination", d.Source)
		}
		return e.copy(d, replace)
	default:
		return Done, fmt.Errorf("unsupported action %q", d.Action)
	}
}

func (e *Executor) delete(src string) (Result, error) {
	err := os.Remove(src)
	if err == nil {
		return Done, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return AlreadySatisfied, nil
	}
	return Done, fmt.Errorf("failed to delete %s: %w", src, err)
}

func (e *Executor) move(d models.Decision, replace bool) (Result, error) {
	srcInfo, err := os.Lstat(d.Source)
	if errors.Is(err, fs.ErrNotExist) {
		if e.destinationHolds(d.Destination, d.Expected) {
			return AlreadySatisfied, nil
		}
		return Done, fmt.Errorf("source %s vanished before move: %w", d.Source, err)
	}
	if err != nil {
		return Done, fmt.Errorf("failed to stat source %s: %w", d.Source, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return Done, fmt.Errorf("source %s is not a regular file", d.Source)
	}

	if err := ensureDir(filepath.Dir(d.Destination)); err != nil {
		return Done, err
	}

	// Same volume: a single atomic rename.
	err = e.publish(d.Source, d.Destination, replace)
	if err == nil {
		return Done, nil
	}
	if !isCrossDevice(err) {
		return Done, fmt.Errorf("failed to move %s to %s: %w", d.Source, d.Destination, err)
	}

	// Cross volume: copy to a temp name, verify, publish, then drop the source.
	staged, err := e.stage(d.Source, d.Destination, srcInfo)
	if err != nil {
		return Done, err
	}
	if err := e.publish(staged.Path, d.Destination, replace); err != nil {
		staged.Discard()
		return Done, fmt.Errorf("failed to publish %s: %w", d.Destination, err)
	}
	if err := os.Remove(d.Source); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Done, fmt.Errorf("copied %s to %s but failed to remove source: %w", d.Source, d.Destination, err)
	}
	return Done, nil
}

func (e *Executor) copy(d models.Decision, replace bool) (Result, error) {
	srcInfo, err := os.Lstat(d.Source)
	if err != nil {
		return Done, fmt.Errorf("failed to stat source %s: %w", d.Source, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return Done, fmt.Errorf("source %s is not a regular file", d.Source)
	}

	// Size and mtime cannot prove two files equal, so an overwrite always
	// copies.
	sample := models.SampleOf(srcInfo, srcInfo.ModTime())
	if !replace && e.destinationHolds(d.Destination, &sample) {
		return AlreadySatisfied, nil
	}

	if err := ensureDir(filepath.Dir(d.Destination)); err != nil {
		return Done, err
	}

	staged, err := e.stage(d.Source, d.Destination, srcInfo)
	if err != nil {
		return Done, err
	}
	if err := e.publish(staged.Path, d.Destination, replace); err != nil {
		staged.Discard()
		return Done, fmt.Errorf("failed to publish %s: %w", d.Destination, err)
	}
	return Done, nil
}

// stage copies src into a temp file next to dst and verifies the copy is
// complete and the source did not change while it was read.
func (e *Executor) stage(src, dst string, srcInfo os.FileInfo) (*filelock.Staged, error) {
	in, err := e.open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer in.Close()

	staged, err := filelock.WriteTemp(filepath.Dir(dst), filepath.Base(dst), in, srcInfo.Mode(), srcInfo.ModTime())
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", src, err)
	}

	if staged.Written != srcInfo.Size() {
		staged.Discard()
		return nil, fmt.Errorf("incomplete copy of %s: wrote %d of %d bytes", src, staged.Written, srcInfo.Size())
	}

	after, err := os.Lstat(src)
	if err != nil {
		staged.Discard()
		return nil, fmt.Errorf("source %s disappeared during copy: %w", src, err)
	}
	if after.Size() != srcInfo.Size() || !after.ModTime().Equal(srcInfo.ModTime()) {
		staged.Discard()
		return nil, fmt.Errorf("source %s changed during copy", src)
	}

	return staged, nil
}

func (e *Executor) publish(from, to string, replace bool) error {
	if replace {
		return e.rename(from, to)
	}
	return e.renameNoReplace(from, to)
}

// destinationHolds reports whether dst is a regular file matching want. A nil
// want accepts any regular file.
func (e *Executor) destinationHolds(dst string, want *models.Sample) bool {
	if dst == "" {
		return false
	}
	info, err := os.Lstat(dst)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if want == nil {
		return true
	}
	return want.Same(models.SampleOf(info, info.ModTime()))
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", dir, err)
	}
	return nil
}
