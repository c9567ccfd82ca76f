// Package rules decides which bucket a file belongs to.
//
// Buckets are plain data; Matches and Select are pure functions over that data
// and a file name, so the same inputs always produce the same winner.
package rules

import (
	"path/filepath"
	"strings"

	"github.com/harrison/janitor/internal/models"
)

// Extension returns the lower-cased text after the final dot of name's basename.
// Names without a dot, ending in a dot, or consisting of a single leading dot
// (".bashrc") have no extension.
func Extension(name string) (string, bool) {
	base := filepath.Base(name)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 || idx == len(base)-1 {
		return "", false
	}
	return strings.ToLower(base[idx+1:]), true
}

// Matches reports whether a file name fits into the bucket. Only the basename
// is considered, so "dir/sub/report.pdf" is matched as "report.pdf".
//
// A bucket matches when its extension filters are non-empty and contain the
// file's extension, or its name filters are non-empty and any of them matches
// the basename. A bucket with no filters matches nothing.
func Matches(bucket *models.Bucket, filename string) bool {
	if bucket == nil || !bucket.HasFilters() {
		return false
	}
	base := filepath.Base(filename)

	if len(bucket.ExtensionFilters) > 0 {
		if ext, ok := Extension(base); ok {
			for _, want := range bucket.ExtensionFilters {
				if ext == want {
					return true
				}
			}
		}
	}

	for _, re := range bucket.NameFilters {
		if re.MatchString(base) {
			return true
		}
	}
	return false
}
