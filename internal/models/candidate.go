package models

import (
	"os"
	"time"
)

// Sample is one observation of a candidate file's size and modification time.
type Sample struct {
	Size    int64
	ModTime time.Time
	At      time.Time
}

// SampleOf builds a Sample from file info taken at time at.
func SampleOf(info os.FileInfo, at time.Time) Sample {
	return Sample{Size: info.Size(), ModTime: info.ModTime(), At: at}
}

// Same reports whether two samples describe an unchanged file.
func (s Sample) Same(other Sample) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}

// Candidate is a file observed under a watch root, pending stabilization and
// placement. It is discarded once it reaches a terminal outcome.
type Candidate struct {
	Path     string
	Root     *WatchRoot
	Samples  []Sample
	Observed time.Time
}

// NewCandidate creates a candidate observed now.
func NewCandidate(path string, root *WatchRoot) Candidate {
	return Candidate{Path: path, Root: root, Observed: time.Now()}
}

// LastSample returns the most recent sample, if any.
func (c *Candidate) LastSample() (Sample, bool) {
	if len(c.Samples) == 0 {
		return Sample{}, false
	}
	return c.Samples[len(c.Samples)-1], true
}

// Decision is the placement chosen for one candidate: which bucket won, where
// the file ends up after conflict resolution and what is done to it.
type Decision struct {
	Source      string
	Bucket      *Bucket // nil when no bucket matched
	Destination string  // empty for delete or unmatched
	Action      Action

	// Expected is the source's last stable sample. The executor uses it to
	// recognize a move that already completed on an earlier attempt.
	Expected *Sample
}
