package fileutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Recursive enables recursive directory scanning
	Recursive bool
	// Skip reports whether a file (by base name) should be left out of the result
	Skip func(name string) bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all regular files found
	Files []string
	// Dirs contains the absolute paths of all directories visited, root included
	Dirs []string
	// Errors contains any errors encountered during scanning
	Errors []error
}

// ScanDirectory scans a directory for regular files matching the provided options
func ScanDirectory(ctx context.Context, dir string, opts ScanOptions) (*ScanResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}

	// Validate directory exists
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	result := &ScanResult{
		Files:  make([]string, 0),
		Dirs:   make([]string, 0),
		Errors: make([]error, 0),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			// The entry may have been moved away between listing and visiting
			if os.IsNotExist(err) {
				return nil
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil // Continue walking
		}

		if d.IsDir() {
			if path != root && !opts.Recursive {
				return filepath.SkipDir
			}
			result.Dirs = append(result.Dirs, path)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if opts.Skip != nil && opts.Skip(d.Name()) {
			return nil
		}

		result.Files = append(result.Files, path)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Sort files for consistent output
	sort.Strings(result.Files)

	return result, nil
}
