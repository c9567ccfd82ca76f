package engine

import (
	"strconv"

	"github.com/harrison/janitor/internal/models"
	"github.com/harrison/janitor/internal/placement"
)

// Reasons recorded on skipped and interrupted outcomes.
const (
	ReasonNoBucket          = "no matching bucket"
	ReasonVanished          = "vanished before stabilizing"
	ReasonNotRegular        = "not a regular file"
	ReasonInDestination     = "already in destination"
	ReasonDestinationExists = "destination exists"
	ReasonShutdown          = "interrupted by shutdown"
)

// maxResolveAttempts bounds resolution when the executor finds the resolved
// name taken: one retry, then the candidate fails.
const maxResolveAttempts = 2

// Reporter receives every outcome exactly once.
type Reporter interface {
	Report(o models.Outcome)
}

// MultiReporter fans an outcome out to several reporters in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(o models.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Report(o)
		}
	}
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(models.Outcome)

// Report implements Reporter.
func (f ReporterFunc) Report(o models.Outcome) { f(o) }

func settle(o models.Outcome, d models.Decision, result placement.Result, err error) models.Outcome {
	if err != nil {
		return failed(o, err)
	}
	o.Status = models.StatusSuccess
	o.Reason = ""
	o.Destination = d.Destination
	o.AlreadySatisfied = result == placement.AlreadySatisfied
	return o
}

func skipped(o models.Outcome, reason string) models.Outcome {
	o.Status = models.StatusSkipped
	o.Reason = reason
	return o
}

func failed(o models.Outcome, err error) models.Outcome {
	o.Status = models.StatusFailed
	o.Reason = err.Error()
	return o
}

func interrupted(o models.Outcome) models.Outcome {
	o.Status = models.StatusFailed
	o.Reason = ReasonShutdown
	return o
}

// leftInPlace reports whether the source file is still at its path after o.
// Only such files are remembered; a file that later arrives at the path of a
// moved or deleted one is new even when its size and mtime match.
func leftInPlace(o models.Outcome) bool {
	switch {
	case o.Reason == ReasonShutdown:
		return false
	case o.Status != models.StatusSuccess:
		return true
	default:
		return o.Action == models.ActionCopy
	}
}

// fingerprint identifies a file's path together with one observed state.
func fingerprint(path string, s models.Sample) string {
	return path + "\x00" + strconv.FormatInt(s.Size, 10) + "\x00" + strconv.FormatInt(s.ModTime.UnixNano(), 10)
}
