package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Action is the file operation a bucket performs on a placed file.
type Action int

const (
	// ActionNone is used on outcomes for candidates that never reached execution.
	ActionNone Action = iota
	// ActionMove moves the file into the bucket destination.
	ActionMove
	// ActionCopy copies the file into the bucket destination, leaving the source.
	ActionCopy
	// ActionDelete removes the file.
	ActionDelete
)

// String returns the config spelling of the action.
func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionCopy:
		return "copy"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// ParseAction parses a config action name (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move":
		return ActionMove, nil
	case "copy":
		return ActionCopy, nil
	case "delete":
		return ActionDelete, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q, must be one of: move, copy, delete", s)
	}
}

// OverrideAction decides what happens when the destination path is already taken.
type OverrideAction int

const (
	// OverrideSkip leaves the source untouched when the destination exists.
	OverrideSkip OverrideAction = iota
	// OverrideOverwrite atomically replaces the existing destination.
	OverrideOverwrite
	// OverrideRename places the file under the first free "name.N".
	OverrideRename
)

// String returns the config spelling of the override action.
func (o OverrideAction) String() string {
	switch o {
	case OverrideSkip:
		return "skip"
	case OverrideOverwrite:
		return "overwrite"
	case OverrideRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ParseOverrideAction parses a config override name. Empty means skip.
func ParseOverrideAction(s string) (OverrideAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OverrideSkip, nil
	case "overwrite":
		return OverrideOverwrite, nil
	case "rename":
		return OverrideRename, nil
	default:
		return OverrideSkip, fmt.Errorf("unknown override_action %q, must be one of: skip, overwrite, rename", s)
	}
}

// Bucket is a named destination with match filters, a priority, a transfer
// action and a conflict policy. Buckets are built once by the config loader and
// never mutated afterwards.
type Bucket struct {
	Name        string
	Destination string // absolute directory; unused by delete buckets

	// ExtensionFilters holds lower-cased extensions without the leading dot.
	ExtensionFilters []string

	// NamePatterns keeps the source text of NameFilters for display.
	NamePatterns []string
	NameFilters  []*regexp.Regexp

	Priority       uint32
	Action         Action
	OverrideAction OverrideAction
}

// HasFilters reports whether the bucket declares at least one filter.
// A bucket without filters never matches anything.
func (b *Bucket) HasFilters() bool {
	return len(b.ExtensionFilters) > 0 || len(b.NameFilters) > 0
}
