// Package watcher turns watch roots into a stream of candidate files and
// decides when a candidate has stopped changing.
//
// Two sources exist. NotifySource follows live filesystem notifications and
// keeps a DirRegistry per recursive root so that directories created after
// startup are watched too. WalkSource lists what is already present once and
// finishes. Both emit only regular files that pass the root's ignore Filter.
package watcher

import (
	"context"
	"fmt"
	"os"

	"github.com/harrison/janitor/internal/models"
)

// Source produces candidates until ctx is cancelled or, for finite sources,
// until everything has been listed. The returned channel is closed when the
// source is done.
type Source interface {
	Start(ctx context.Context) (<-chan models.Candidate, error)
}

// Logger is the subset of the application logger used by sources.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// checkRoots verifies every root is an existing directory.
func checkRoots(roots []*models.WatchRoot) error {
	for _, root := range roots {
		info, err := os.Stat(root.Path)
		if err != nil {
			return fmt.Errorf("watch root %s: %w", root.Path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch root %s is not a directory", root.Path)
		}
	}
	return nil
}

// emit sends c unless ctx is done first.
func emit(ctx context.Context, out chan<- models.Candidate, c models.Candidate) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
