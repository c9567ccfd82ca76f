package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/harrison/janitor/internal/models"
)

// MaxRenameProbes bounds the search for a free "name.N".
const MaxRenameProbes = 100000

// ErrNoFreeName is returned when every probed rename target is taken.
var ErrNoFreeName = errors.New("no free destination name")

// Resolution is the result of conflict resolution: either a final path or skip.
type Resolution struct {
	Path string
	Skip bool
}

// UseAs returns a resolution placing the file at path.
func UseAs(path string) Resolution {
	return Resolution{Path: path}
}

// SkipResolution leaves the source where it is.
var SkipResolution = Resolution{Skip: true}

// Resolver decides the final destination path for a proposed destination under
// an override policy. Callers must hold the destination directory's lock.
type Resolver struct {
	lstat func(string) (os.FileInfo, error)
}

// NewResolver creates a resolver probing the real filesystem.
func NewResolver() *Resolver {
	return &Resolver{lstat: os.Lstat}
}

// Resolve applies the override policy to proposed.
//
//   - nothing at proposed: use proposed, whatever the policy
//   - skip: skip
//   - overwrite: use proposed; the executor replaces it atomically
//   - rename: use proposed.N for the smallest N >= 1 that is free
func (r *Resolver) Resolve(proposed string, policy models.OverrideAction) (Resolution, error) {
	taken, err := r.exists(proposed)
	if err != nil {
		return Resolution{}, err
	}
	if !taken {
		return UseAs(proposed), nil
	}

	switch policy {
	case models.OverrideSkip:
		return SkipResolution, nil
	case models.OverrideOverwrite:
		return UseAs(proposed), nil
	case models.OverrideRename:
		for n := 1; n <= MaxRenameProbes; n++ {
			candidate := proposed + "." + strconv.Itoa(n)
			taken, err := r.exists(candidate)
			if err != nil {
				return Resolution{}, err
			}
			if !taken {
				return UseAs(candidate), nil
			}
		}
		return Resolution{}, fmt.Errorf("%s: %w after %d probes", proposed, ErrNoFreeName, MaxRenameProbes)
	default:
		return Resolution{}, fmt.Errorf("unknown override action %d", policy)
	}
}

// exists reports whether any entity (file, directory, dangling symlink) occupies path.
func (r *Resolver) exists(path string) (bool, error) {
	_, err := r.lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to probe destination %s: %w", path, err)
}
