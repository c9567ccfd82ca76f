package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome status values. Unmatched and vanished candidates are reported as skipped.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Outcome is the single record emitted for every candidate that reaches a
// terminal state.
type Outcome struct {
	ID          string
	Source      string
	Root        string
	Bucket      string // empty when no bucket matched
	Destination string // empty when nothing was placed
	Action      Action
	Status      string
	Reason      string // why a candidate was skipped or failed

	// AlreadySatisfied marks executions that found the work already done.
	AlreadySatisfied bool

	Started  time.Time
	Finished time.Time
}

// NewOutcome starts an outcome for the given candidate.
func NewOutcome(c Candidate) Outcome {
	o := Outcome{
		ID:      uuid.NewString(),
		Source:  c.Path,
		Status:  StatusFailed,
		Started: time.Now(),
	}
	if c.Root != nil {
		o.Root = c.Root.Path
	}
	return o
}

// Failed reports whether the outcome is an error terminal state.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

// Duration returns how long the candidate took from start to finish.
func (o Outcome) Duration() time.Duration {
	if o.Finished.IsZero() {
		return 0
	}
	return o.Finished.Sub(o.Started)
}

// MaxSummaryFailures bounds how many failed outcomes a Summary keeps.
const MaxSummaryFailures = 100

// Summary aggregates outcomes of a run.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Failures  []Outcome
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch o.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
		if len(s.Failures) < MaxSummaryFailures {
			s.Failures = append(s.Failures, o)
		}
	}
}

// OK reports whether every candidate reached a non-error terminal state.
func (s Summary) OK() bool {
	return s.Failed == 0
}
