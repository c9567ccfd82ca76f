package config

import (
	"fmt"
	"strings"

	"github.com/harrison/janitor/internal/logger"
	"github.com/harrison/janitor/internal/models"
	"github.com/harrison/janitor/internal/watcher"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// HasProblems reports whether any problem was recorded.
func (e *ValidationError) HasProblems() bool {
	return len(e.Problems) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration (%d problems):", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// Validate checks the configuration values. It is run by Load and should be
// run again after MergeWithFlags.
func (c *Config) Validate() error {
	problems := &ValidationError{}
	c.validate(problems)
	if problems.HasProblems() {
		return problems
	}
	return nil
}

// validate records problems and links every watch root to its buckets.
func (c *Config) validate(problems *ValidationError) {
	s := c.Settings
	if s.Workers < 1 {
		problems.add("settings.workers must be >= 1, got %d", s.Workers)
	}
	if s.StabilizeInterval <= 0 {
		problems.add("settings.stabilize_interval must be > 0")
	}
	if s.StabilizeMaxWait < s.StabilizeInterval {
		problems.add("settings.stabilize_max_wait (%s) must be >= stabilize_interval (%s)", s.StabilizeMaxWait, s.StabilizeInterval)
	}
	if !logger.ValidLevel(s.LogLevel) {
		problems.add("invalid log_level %q, must be one of: %s", s.LogLevel, strings.Join(logger.Levels, ", "))
	}

	byName := make(map[string]*models.Bucket, len(c.Buckets))
	for i, b := range c.Buckets {
		if strings.TrimSpace(b.Name) == "" {
			problems.add("bucket #%d: name is empty", i+1)
			continue
		}
		if _, dup := byName[b.Name]; dup {
			problems.add("bucket %q is declared more than once", b.Name)
			continue
		}
		byName[b.Name] = b
	}

	if len(c.Watches) == 0 {
		problems.add("no [[watch]] entries")
	}
	for i, w := range c.Watches {
		label := fmt.Sprintf("watch #%d", i+1)
		if w.Path != "" {
			label = "watch " + w.Path
		}

		w.Buckets = w.Buckets[:0]
		seen := make(map[string]bool, len(w.BucketNames))
		for _, name := range w.BucketNames {
			if seen[name] {
				problems.add("%s: bucket %q listed more than once", label, name)
				continue
			}
			seen[name] = true
			b, ok := byName[name]
			if !ok {
				problems.add("%s: unknown bucket %q", label, name)
				continue
			}
			w.Buckets = append(w.Buckets, b)
		}

		for _, pattern := range w.Ignore {
			if err := watcher.ValidatePattern(pattern); err != nil {
				problems.add("%s: invalid ignore pattern %q: %v", label, pattern, err)
			}
		}
	}
}
