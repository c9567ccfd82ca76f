package watcher

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/harrison/janitor/internal/filelock"
)

// DefaultIgnorePatterns are partial-download names browsers and download
// managers use before renaming the finished file into place.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.part",
		"*.partial",
		"*.crdownload",
		"*.download",
		".~lock.*",
	}
}

// Filter decides which file names are never turned into candidates. Patterns
// are globs matched against the base name; the engine's own staging files are
// always ignored.
type Filter struct {
	patterns []string
	globs    []glob.Glob
}

// NewFilter compiles the default patterns plus extra.
func NewFilter(extra []string) (*Filter, error) {
	patterns := append(DefaultIgnorePatterns(), extra...)
	f := &Filter{patterns: patterns, globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// ValidatePattern reports whether p is a usable ignore glob.
func ValidatePattern(p string) error {
	_, err := glob.Compile(p)
	return err
}

// Ignored reports whether the file at path (or bare name) should be left alone.
func (f *Filter) Ignored(path string) bool {
	name := filepath.Base(path)
	if filelock.IsTemp(name) {
		return true
	}
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the active patterns.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}
