package models

import (
	"fmt"
	"strings"
)

// RecursiveMode selects how much of a watch root's tree is observed.
type RecursiveMode int

const (
	// NonRecursive observes only the immediate directory.
	NonRecursive RecursiveMode = iota
	// Recursive observes the whole subtree, including directories created later.
	Recursive
)

// String returns the config spelling of the mode.
func (m RecursiveMode) String() string {
	if m == Recursive {
		return "recursive"
	}
	return "non-recursive"
}

// ParseRecursiveMode parses a config recursive_mode value. Empty means non-recursive.
func ParseRecursiveMode(s string) (RecursiveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "non-recursive", "nonrecursive":
		return NonRecursive, nil
	case "recursive":
		return Recursive, nil
	default:
		return NonRecursive, fmt.Errorf("unknown recursive_mode %q, must be recursive or non-recursive", s)
	}
}

// WatchRoot is a filesystem location under observation together with the
// ordered list of buckets eligible for files found there.
type WatchRoot struct {
	Path      string // absolute, cleaned
	Recursive bool

	// BucketNames is the declared order; Buckets resolves each name to its
	// bucket and keeps the same order.
	BucketNames []string
	Buckets     []*Bucket

	// Ignore holds glob patterns matched against file basenames.
	Ignore []string
}

// Mode returns the root's recursive mode.
func (w *WatchRoot) Mode() RecursiveMode {
	if w.Recursive {
		return Recursive
	}
	return NonRecursive
}
