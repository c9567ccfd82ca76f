package rules

import (
	"github.com/harrison/janitor/internal/models"
)

// Select returns the winning bucket for filename under root, or nil when no
// eligible bucket matches.
//
// Every bucket in the root's declared order is evaluated. The highest priority
// wins; among equal priorities the bucket declared first wins.
func Select(root *models.WatchRoot, filename string) *models.Bucket {
	if root == nil {
		return nil
	}
	return SelectFrom(root.Buckets, filename)
}

// SelectFrom applies the selection rule to an explicit ordered bucket list.
func SelectFrom(buckets []*models.Bucket, filename string) *models.Bucket {
	var winner *models.Bucket
	for _, b := range buckets {
		if !Matches(b, filename) {
			continue
		}
		// Strictly greater keeps the earlier declaration on ties.
		if winner == nil || b.Priority > winner.Priority {
			winner = b
		}
	}
	return winner
}

// Candidates returns every matching bucket in declared order. It is used by
// the validate command to explain a decision.
func Candidates(root *models.WatchRoot, filename string) []*models.Bucket {
	var matched []*models.Bucket
	if root == nil {
		return matched
	}
	for _, b := range root.Buckets {
		if Matches(b, filename) {
			matched = append(matched, b)
		}
	}
	return matched
}
