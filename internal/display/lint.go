package display

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/janitor/internal/models"
)

// Lint returns warnings for configurations that load fine but will probably
// not behave as intended.
func Lint(watches []*models.WatchRoot, buckets []*models.Bucket) []Warning {
	var warnings []Warning

	used := make(map[string]bool)
	for _, w := range watches {
		for _, b := range w.Buckets {
			used[b.Name] = true
		}
	}

	var unused, filterless []string
	for _, b := range buckets {
		if !used[b.Name] {
			unused = append(unused, b.Name)
		}
		if !b.HasFilters() {
			filterless = append(filterless, b.Name)
		}
	}
	if len(filterless) > 0 {
		warnings = append(warnings, Warning{
			Title:      "Bucket never matches",
			Message:    "A bucket without extension_filters or name_filters matches no file",
			Items:      filterless,
			Suggestion: `Add name_filters = [".*"] for an explicit catch-all`,
		})
	}
	if len(unused) > 0 {
		warnings = append(warnings, Warning{
			Title:   "Bucket not used by any watch",
			Message: "No [[watch]] lists these buckets in bucket_names",
			Items:   unused,
		})
	}

	var empty, missing, nested []string
	for _, w := range watches {
		if len(w.Buckets) == 0 {
			empty = append(empty, w.Path)
		}
		if info, err := os.Stat(w.Path); err != nil || !info.IsDir() {
			missing = append(missing, w.Path)
		}
		for _, b := range w.Buckets {
			if b.Action == models.ActionCopy && within(w, b.Destination) {
				nested = append(nested, b.Name+" -> "+b.Destination)
			}
		}
	}
	if len(empty) > 0 {
		warnings = append(warnings, Warning{
			Title:   "Watch has no buckets",
			Message: "Every file found here will be skipped",
			Items:   empty,
		})
	}
	if len(missing) > 0 {
		warnings = append(warnings, Warning{
			Title:      "Watch path is not a directory",
			Message:    "janitor will refuse to start until it exists",
			Items:      missing,
			Suggestion: "Create the directory or fix the path",
		})
	}
	if len(nested) > 0 {
		warnings = append(warnings, Warning{
			Title:   "Copy destination is inside its watch root",
			Message: "Each copy is itself a new file in the watched tree",
			Items:   nested,
		})
	}

	return warnings
}

// within reports whether dir is observed by the watch root w.
func within(w *models.WatchRoot, dir string) bool {
	if dir == "" {
		return false
	}
	if dir == w.Path {
		return true
	}
	if !w.Recursive {
		return false
	}
	rel, err := filepath.Rel(w.Path, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
