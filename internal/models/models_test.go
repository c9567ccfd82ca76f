package models

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"move", ActionMove, false},
		{"Copy", ActionCopy, false},
		{" DELETE ", ActionDelete, false},
		{"", ActionNone, true},
		{"shred", ActionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.String(), got.String())
	}
	assert.Equal(t, "none", ActionNone.String())
}

func TestParseOverrideAction(t *testing.T) {
	for in, want := range map[string]OverrideAction{"": OverrideSkip, "skip": OverrideSkip, "Overwrite": OverrideOverwrite, "rename": OverrideRename} {
		got, err := ParseOverrideAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOverrideAction("merge")
	assert.Error(t, err)
	assert.Equal(t, "rename", OverrideRename.String())
}

func TestParseRecursiveMode(t *testing.T) {
	for in, want := range map[string]RecursiveMode{"": NonRecursive, "non-recursive": NonRecursive, "NonRecursive": NonRecursive, "recursive": Recursive} {
		got, err := ParseRecursiveMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRecursiveMode("deep")
	assert.Error(t, err)

	assert.Equal(t, Recursive, (&WatchRoot{Recursive: true}).Mode())
	assert.Equal(t, "non-recursive", (&WatchRoot{}).Mode().String())
}

func TestBucket_HasFilters(t *testing.T) {
	assert.False(t, (&Bucket{}).HasFilters())
	assert.True(t, (&Bucket{ExtensionFilters: []string{"txt"}}).HasFilters())
	assert.True(t, (&Bucket{NameFilters: []*regexp.Regexp{regexp.MustCompile(".*")}}).HasFilters())
}

func TestSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	now := time.Now()
	a := SampleOf(info, now)
	assert.Equal(t, int64(3), a.Size)
	assert.Equal(t, now, a.At)

	b := a
	b.At = now.Add(time.Second)
	assert.True(t, a.Same(b), "observation time does not matter")

	b.Size = 4
	assert.False(t, a.Same(b))

	c := a
	c.ModTime = a.ModTime.Add(time.Nanosecond)
	assert.False(t, a.Same(c))
}

func TestCandidate(t *testing.T) {
	root := &WatchRoot{Path: "/in"}
	c := NewCandidate("/in/a.txt", root)
	assert.Same(t, root, c.Root)
	assert.False(t, c.Observed.IsZero())

	_, ok := c.LastSample()
	assert.False(t, ok)

	c.Samples = append(c.Samples, Sample{Size: 1}, Sample{Size: 2})
	last, ok := c.LastSample()
	require.True(t, ok)
	assert.Equal(t, int64(2), last.Size)
}

func TestNewOutcome(t *testing.T) {
	o := NewOutcome(NewCandidate("/in/a.txt", &WatchRoot{Path: "/in"}))
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "/in/a.txt", o.Source)
	assert.Equal(t, "/in", o.Root)
	assert.True(t, o.Failed(), "outcomes start failed until settled")
	assert.Zero(t, o.Duration())

	o.Finished = o.Started.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, o.Duration())

	other := NewOutcome(Candidate{Path: "/x"})
	assert.NotEqual(t, o.ID, other.ID)
	assert.Empty(t, other.Root)
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s.Add(Outcome{Status: StatusSuccess})
	s.Add(Outcome{Status: StatusSkipped})
	assert.True(t, s.OK())

	for i := 0; i < MaxSummaryFailures+5; i++ {
		s.Add(Outcome{Status: StatusFailed})
	}
	assert.False(t, s.OK())
	assert.Equal(t, MaxSummaryFailures+7, s.Total)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, MaxSummaryFailures+5, s.Failed)
	assert.Len(t, s.Failures, MaxSummaryFailures)
}
