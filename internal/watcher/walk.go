package watcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/janitor/internal/fileutil"
	"github.com/harrison/janitor/internal/models"
)

// WalkSource emits every regular file already present under its roots, honoring
// each root's recursive mode, then closes its channel. Roots are walked
// concurrently.
type WalkSource struct {
	roots []*models.WatchRoot
	log   Logger
}

// NewWalkSource creates a one-shot source over roots.
func NewWalkSource(roots []*models.WatchRoot, log Logger) *WalkSource {
	return &WalkSource{roots: roots, log: orNop(log)}
}

// Start validates the roots and begins walking them.
func (s *WalkSource) Start(ctx context.Context) (<-chan models.Candidate, error) {
	if err := checkRoots(s.roots); err != nil {
		return nil, err
	}

	filters := make([]*Filter, len(s.roots))
	for i, root := range s.roots {
		f, err := NewFilter(root.Ignore)
		if err != nil {
			return nil, err
		}
		filters[i] = f
	}

	out := make(chan models.Candidate)
	g, gctx := errgroup.WithContext(ctx)

	for i, root := range s.roots {
		root, filter := root, filters[i]
		g.Go(func() error {
			return s.walk(gctx, root, filter, out)
		})
	}

	go func() {
		if err := g.Wait(); err != nil && ctx.Err() == nil {
			s.log.Warnf("Sweep stopped early: %v", err)
		}
		close(out)
	}()

	return out, nil
}

func (s *WalkSource) walk(ctx context.Context, root *models.WatchRoot, filter *Filter, out chan<- models.Candidate) error {
	result, err := fileutil.ScanDirectory(ctx, root.Path, fileutil.ScanOptions{
		Recursive: root.Recursive,
		Skip:      filter.Ignored,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// One unreadable root does not stop the others.
		s.log.Warnf("Sweep of %s failed: %v", root.Path, err)
		return nil
	}
	for _, scanErr := range result.Errors {
		s.log.Warnf("Sweep of %s: %v", root.Path, scanErr)
	}

	s.log.Debugf("Sweep of %s found %d file(s) in %d director(ies)", root.Path, len(result.Files), len(result.Dirs))
	for _, path := range result.Files {
		if !emit(ctx, out, models.NewCandidate(path, root)) {
			return ctx.Err()
		}
	}
	return nil
}
