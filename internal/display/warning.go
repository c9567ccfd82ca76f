package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Affected buckets or paths (optional)
	Suggestion string   // Action to take (optional)
}

// String renders the warning without color, one line per component.
func (w Warning) String() string {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	// Add message with 4-space indent if present
	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, item := range w.Items {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	color.New(color.FgYellow).Fprint(out, w.String())
}

// Log writes the warning through a printf-style sink, one entry per line.
func (w Warning) Log(warnf func(format string, args ...interface{})) {
	for _, line := range strings.Split(strings.TrimRight(w.String(), "\n"), "\n") {
		warnf("%s", strings.TrimSpace(line))
	}
}
