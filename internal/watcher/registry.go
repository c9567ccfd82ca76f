package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/janitor/internal/fileutil"
)

// DirRegistry tracks which directories of one recursive watch root are
// currently watched. Directories created later are added through AddTree;
// directories removed or renamed away are dropped with Remove.
type DirRegistry struct {
	mu   sync.Mutex
	root string
	dirs map[string]struct{}

	watch   func(dir string) error
	unwatch func(dir string) error
	log     Logger
}

// NewDirRegistry creates a registry for root. watch and unwatch attach and
// detach a single directory from the underlying notifier.
func NewDirRegistry(root string, watch, unwatch func(string) error, log Logger) *DirRegistry {
	return &DirRegistry{
		root:    filepath.Clean(root),
		dirs:    make(map[string]struct{}),
		watch:   watch,
		unwatch: unwatch,
		log:     orNop(log),
	}
}

// AddTree watches dir and every directory below it and returns the regular
// files found inside. The tree is rescanned until a pass registers no new
// directory, so files created while watches were being attached are listed
// too. A file may be returned that the notifier also reports.
func (r *DirRegistry) AddTree(ctx context.Context, dir string, skip func(string) bool) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for {
		result, err := fileutil.ScanDirectory(ctx, dir, fileutil.ScanOptions{Recursive: true, Skip: skip})
		if err != nil {
			return files, err
		}
		for _, scanErr := range result.Errors {
			r.log.Warnf("Scanning %s: %v", dir, scanErr)
		}

		added := 0
		for _, d := range result.Dirs {
			ok, err := r.add(d)
			if err != nil {
				return files, err
			}
			if ok {
				added++
			}
		}

		for _, f := range result.Files {
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				files = append(files, f)
			}
		}

		if added == 0 {
			return files, nil
		}
	}
}

func (r *DirRegistry) add(dir string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dirs[dir]; ok {
		return false, nil
	}
	if err := r.watch(dir); err != nil {
		// Ignore directories that vanished or that we can't access
		if os.IsNotExist(err) || os.IsPermission(err) {
			r.log.Warnf("Not watching %s: %v", dir, err)
			return false, nil
		}
		return false, err
	}
	r.dirs[dir] = struct{}{}
	r.log.Debugf("Watching directory %s", dir)
	return true, nil
}

// Remove forgets dir and everything registered below it. It returns the
// number of directories dropped.
func (r *DirRegistry) Remove(dir string) int {
	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for d := range r.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(r.dirs, d)
			// The notifier may already have dropped it.
			_ = r.unwatch(d)
			removed++
		}
	}
	if removed > 0 {
		r.log.Debugf("Stopped watching %d director(ies) under %s", removed, dir)
	}
	return removed
}

// Contains reports whether dir is registered.
func (r *DirRegistry) Contains(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dirs[filepath.Clean(dir)]
	return ok
}

// Dirs returns the registered directories, sorted.
func (r *DirRegistry) Dirs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.dirs))
	for d := range r.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered directories.
func (r *DirRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirs)
}

// Root returns the watch root this registry belongs to.
func (r *DirRegistry) Root() string {
	return r.root
}
