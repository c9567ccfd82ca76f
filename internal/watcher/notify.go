package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/janitor/internal/models"
)

// NotifySource emits a candidate whenever a regular file is created in, moved
// into, or written under one of its roots. Files that existed before Start are
// not reported; WalkSource covers those.
type NotifySource struct {
	roots []*models.WatchRoot
	log   Logger

	mu         sync.Mutex
	registries map[string]*DirRegistry
}

// NewNotifySource creates a live source over roots.
func NewNotifySource(roots []*models.WatchRoot, log Logger) *NotifySource {
	return &NotifySource{
		roots:      roots,
		log:        orNop(log),
		registries: make(map[string]*DirRegistry),
	}
}

// rootWatcher follows one watch root with its own notifier.
type rootWatcher struct {
	root     *models.WatchRoot
	filter   *Filter
	fsw      *fsnotify.Watcher
	registry *DirRegistry // nil for non-recursive roots
	log      Logger
}

// Start attaches watches to every root before returning, so any file created
// after Start returns is observed.
func (s *NotifySource) Start(ctx context.Context) (<-chan models.Candidate, error) {
	if err := checkRoots(s.roots); err != nil {
		return nil, err
	}

	watchers := make([]*rootWatcher, 0, len(s.roots))
	closeAll := func() {
		for _, w := range watchers {
			w.fsw.Close()
		}
	}

	for _, root := range s.roots {
		w, err := s.attach(ctx, root)
		if err != nil {
			closeAll()
			return nil, err
		}
		watchers = append(watchers, w)
	}

	out := make(chan models.Candidate)
	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w *rootWatcher) {
			defer wg.Done()
			w.run(ctx, out)
		}(w)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

func (s *NotifySource) attach(ctx context.Context, root *models.WatchRoot) (*rootWatcher, error) {
	filter, err := NewFilter(root.Ignore)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher for %s: %w", root.Path, err)
	}

	w := &rootWatcher{root: root, filter: filter, fsw: fsw, log: s.log}

	if !root.Recursive {
		if err := fsw.Add(root.Path); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", root.Path, err)
		}
		s.log.Debugf("Watching %s (non-recursive)", root.Path)
		return w, nil
	}

	w.registry = NewDirRegistry(root.Path, fsw.Add, fsw.Remove, s.log)
	// Existing files are not candidates in live mode.
	if _, err := w.registry.AddTree(ctx, root.Path, filter.Ignored); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root.Path, err)
	}
	s.log.Debugf("Watching %s (recursive, %d directories)", root.Path, w.registry.Len())

	s.mu.Lock()
	s.registries[root.Path] = w.registry
	s.mu.Unlock()

	return w, nil
}

// Registry returns the directory registry of a recursive root, or nil.
func (s *NotifySource) Registry(rootPath string) *DirRegistry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registries[filepath.Clean(rootPath)]
}

func (w *rootWatcher) run(ctx context.Context, out chan<- models.Candidate) {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handle(ctx, event, out) {
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnf("Watcher error on %s: %v", w.root.Path, err)
		}
	}
}

// handle processes one notification. It returns false once ctx is done.
func (w *rootWatcher) handle(ctx context.Context, event fsnotify.Event, out chan<- models.Candidate) bool {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Lstat(path)
		if err != nil {
			// Gone again before we looked.
			return true
		}

		if info.IsDir() {
			if w.registry == nil || !event.Has(fsnotify.Create) {
				return true
			}
			files, err := w.registry.AddTree(ctx, path, w.filter.Ignored)
			if err != nil {
				w.log.Warnf("Failed to watch new directory %s: %v", path, err)
			}
			for _, f := range files {
				if !emit(ctx, out, models.NewCandidate(f, w.root)) {
					return false
				}
			}
			return true
		}

		if !info.Mode().IsRegular() || w.filter.Ignored(path) {
			return true
		}
		return emit(ctx, out, models.NewCandidate(path, w.root))

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.registry != nil && w.registry.Contains(path) {
			w.registry.Remove(path)
		}
	}
	return true
}
