// Package display renders user-facing warnings for the janitor CLI.
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Bucket never matches",
//	    Message:    "It declares neither extension_filters nor name_filters",
//	    Items:      []string{"archive"},
//	    Suggestion: `Add name_filters = [".*"] for a catch-all`,
//	}
//	warning.Display(os.Stderr)
//
// # Configuration Lint
//
// Lint inspects a loaded configuration for setups that are legal but almost
// certainly not what the user meant:
//
//	for _, w := range display.Lint(cfg.Watches, cfg.Buckets) {
//	    w.Display(os.Stdout)
//	}
//
// Colors come from github.com/fatih/color and are disabled automatically when
// output is not a terminal or NO_COLOR is set.
package display
