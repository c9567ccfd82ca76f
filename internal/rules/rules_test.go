package rules

import (
	"regexp"
	"testing"

	"github.com/harrison/janitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucket(name string, priority uint32, exts []string, patterns ...string) *models.Bucket {
	b := &models.Bucket{
		Name:             name,
		Destination:      "/dest/" + name,
		ExtensionFilters: exts,
		Priority:         priority,
		Action:           models.ActionMove,
	}
	for _, p := range patterns {
		b.NamePatterns = append(b.NamePatterns, p)
		b.NameFilters = append(b.NameFilters, regexp.MustCompile(p))
	}
	return b
}

func rootWith(buckets ...*models.Bucket) *models.WatchRoot {
	r := &models.WatchRoot{Path: "/in"}
	for _, b := range buckets {
		r.BucketNames = append(r.BucketNames, b.Name)
		r.Buckets = append(r.Buckets, b)
	}
	return r
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"a.txt", "txt", true},
		{"a.TXT", "txt", true},
		{"archive.tar.gz", "gz", true},
		{"noext", "", false},
		{"trailing.", "", false},
		{".bashrc", "", false},
		{"dir.d/file", "", false},
		{"/abs/path/report.Pdf", "pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extension(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches_ExtensionCaseInsensitive(t *testing.T) {
	b := bucket("docs", 0, []string{"txt"})

	assert.True(t, Matches(b, "a.TXT"))
	assert.True(t, Matches(b, "a.txt"))
	assert.True(t, Matches(b, "a.Txt"))
	assert.False(t, Matches(b, "a.txt.bak"))
	assert.False(t, Matches(b, "txt"))
}

func TestMatches_OnlyFinalExtension(t *testing.T) {
	b := bucket("tars", 0, []string{"tar"})
	assert.False(t, Matches(b, "archive.tar.gz"))
}

func TestMatches_NameFilterIsBasenameOnly(t *testing.T) {
	b := bucket("reports", 0, nil, "^report")

	assert.True(t, Matches(b, "dir/sub/report.pdf"))
	assert.False(t, Matches(b, "report/sub/other.pdf"), "directory components must not be matched")
}

func TestMatches_NameFilterIsUnanchored(t *testing.T) {
	b := bucket("invoices", 0, nil, "invoice")
	assert.True(t, Matches(b, "2024-invoice-final.pdf"))
}

func TestMatches_EmptyFiltersMatchNothing(t *testing.T) {
	b := bucket("empty", 100, nil)

	assert.False(t, Matches(b, "a.txt"))
	assert.False(t, Matches(b, "anything"))
	assert.False(t, Matches(nil, "a.txt"))
}

func TestMatches_OrAcrossFilterKinds(t *testing.T) {
	b := bucket("mixed", 0, []string{"zip"}, `.*\.tar\.gz$`)

	assert.True(t, Matches(b, "a.zip"))
	assert.True(t, Matches(b, "a.tar.gz"))
	assert.False(t, Matches(b, "a.rar"))
}

func TestMatches_NoExtensionNeverSatisfiesExtensionFilter(t *testing.T) {
	b := bucket("bins", 0, []string{"bin"})
	assert.False(t, Matches(b, "bin"))
	assert.False(t, Matches(b, ".bin"))
}

func TestSelect_HighestPriorityWins(t *testing.T) {
	low := bucket("low", 1, []string{"txt"})
	high := bucket("high", 10, nil, ".*")
	root := rootWith(low, high)

	got := Select(root, "a.txt")
	require.NotNil(t, got)
	assert.Equal(t, "high", got.Name)
}

func TestSelect_TieBreakDeclarationOrder(t *testing.T) {
	first := bucket("zeta", 5, []string{"txt"})
	second := bucket("alpha", 5, nil, ".*")

	got := Select(rootWith(first, second), "a.txt")
	require.NotNil(t, got)
	assert.Equal(t, "zeta", got.Name, "earlier declaration wins regardless of name order")

	got = Select(rootWith(second, first), "a.txt")
	require.NotNil(t, got)
	assert.Equal(t, "alpha", got.Name)
}

func TestSelect_NoMatch(t *testing.T) {
	root := rootWith(bucket("docs", 10, []string{"txt"}))
	assert.Nil(t, Select(root, "b.bin"))
	assert.Nil(t, Select(nil, "b.bin"))
	assert.Nil(t, Select(&models.WatchRoot{}, "b.bin"))
}

func TestSelect_Deterministic(t *testing.T) {
	root := rootWith(
		bucket("a", 3, []string{"txt"}),
		bucket("b", 3, nil, "a"),
		bucket("c", 1, nil, ".*"),
		bucket("d", 3, []string{"TXT"}),
	)

	first := Select(root, "data.txt")
	require.NotNil(t, first)
	for i := 0; i < 100; i++ {
		assert.Same(t, first, Select(root, "data.txt"))
	}
	assert.Equal(t, "a", first.Name)
}

func TestSelect_Scenario(t *testing.T) {
	docs := bucket("docs", 10, []string{"txt"})
	catchall := bucket("catchall", 0, nil, ".*")
	root := rootWith(docs, catchall)

	assert.Equal(t, "docs", Select(root, "a.txt").Name)
	assert.Equal(t, "catchall", Select(root, "b.bin").Name)
}

func TestCandidates(t *testing.T) {
	docs := bucket("docs", 10, []string{"txt"})
	catchall := bucket("catchall", 0, nil, ".*")
	root := rootWith(docs, catchall)

	got := Candidates(root, "a.txt")
	require.Len(t, got, 2)
	assert.Equal(t, "docs", got[0].Name)
	assert.Equal(t, "catchall", got[1].Name)

	assert.Empty(t, Candidates(nil, "a.txt"))
}
