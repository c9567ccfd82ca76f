// Package placement resolves destination conflicts and performs the file
// actions chosen for a candidate.
//
// The destination-directory namespace is the only state shared between
// concurrent decisions. DirLocks serializes decisions per directory; callers
// hold a directory's lock from the conflict probe until the final filesystem
// mutation so that two candidates can never be given the same final name.
package placement

import (
	"path/filepath"
	"sync"
)

// DirLocks is a set of mutexes keyed by directory. Unrelated directories never
// contend with each other; entries are dropped when no longer referenced.
type DirLocks struct {
	mu    sync.Mutex
	locks map[string]*dirLock
}

type dirLock struct {
	mu   sync.Mutex
	refs int
}

// NewDirLocks creates an empty lock set.
func NewDirLocks() *DirLocks {
	return &DirLocks{locks: make(map[string]*dirLock)}
}

// Lock blocks until dir's lock is held and returns the function that releases it.
func (d *DirLocks) Lock(dir string) (unlock func()) {
	key := filepath.Clean(dir)

	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &dirLock{}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			d.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(d.locks, key)
			}
			d.mu.Unlock()
		})
	}
}

// Len returns the number of directories currently locked or waited on.
func (d *DirLocks) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
