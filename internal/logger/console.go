// Package logger provides logging implementations for janitor.
//
// Loggers write leveled, timestamped lines and render placement outcomes and
// run summaries. Implementations are thread-safe and support console and
// rotating file destinations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/janitor/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Levels lists the accepted level names, most verbose first.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// Logger is implemented by every logger in this package.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Report(o models.Outcome)
	LogSummary(s models.Summary)
}

// ConsoleLogger logs to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns false when NO_COLOR is set.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for _, l := range Levels {
		if l == normalized {
			return true
		}
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	if ValidLevel(level) {
		return strings.ToLower(strings.TrimSpace(level))
	}
	return "info"
}

// LevelFromVerbosity maps a numeric verbosity (0 quietest) onto a level name.
func LevelFromVerbosity(v int) string {
	switch {
	case v <= 1:
		return "error"
	case v == 2:
		return "warn"
	case v == 3:
		return "info"
	case v == 4:
		return "debug"
	default:
		return "trace"
	}
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// Level returns the configured minimum level.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// Tracef logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.logWithLevel("TRACE", format, args...)
}

// Debugf logs a debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logWithLevel("DEBUG", format, args...)
}

// Infof logs an info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logWithLevel("INFO", format, args...)
}

// Warnf logs a warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", format, args...)
}

// Errorf logs an error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logWithLevel("ERROR", format, args...)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, format string, args ...interface{}) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	message := fmt.Sprintf(format, args...)

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		level = colorLevel(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// Report logs one placement outcome. Successes and skips are INFO, failures
// are WARN; unmatched files and vanished candidates are only shown at DEBUG.
// Format: "[HH:MM:SS] moved /in/a.txt -> /docs/a.txt [docs]"
func (cl *ConsoleLogger) Report(o models.Outcome) {
	if cl.writer == nil {
		return
	}

	level := outcomeLevel(o)
	if !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	verb, detail := describeOutcome(o)
	if cl.colorOutput {
		switch o.Status {
		case models.StatusSuccess:
			verb = color.New(color.FgGreen).Sprint(verb)
		case models.StatusSkipped:
			verb = color.New(color.FgYellow).Sprint(verb)
		default:
			verb = color.New(color.FgRed).Sprint(verb)
		}
	}
	fmt.Fprintf(cl.writer, "[%s] %s %s\n", timestamp(), verb, detail)
}

// LogSummary logs the run summary at INFO level.
// Format: "[HH:MM:SS] === Run Summary ===\n[HH:MM:SS] Files: <n>\n..."
func (cl *ConsoleLogger) LogSummary(s models.Summary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	header := "=== Run Summary ==="
	placed := fmt.Sprintf("Placed: %d", s.Succeeded)
	failed := fmt.Sprintf("Failed: %d", s.Failed)
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		placed = color.New(color.FgGreen).Sprint(placed)
		if s.Failed > 0 {
			failed = color.New(color.FgRed).Sprint(failed)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ts, header)
	fmt.Fprintf(&b, "[%s] Files: %d\n", ts, s.Total)
	fmt.Fprintf(&b, "[%s] %s\n", ts, placed)
	fmt.Fprintf(&b, "[%s] Skipped: %d\n", ts, s.Skipped)
	fmt.Fprintf(&b, "[%s] %s\n", ts, failed)
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(s.Duration))
	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "[%s] Failed files:\n", ts)
		for _, o := range s.Failures {
			fmt.Fprintf(&b, "[%s]   - %s: %s\n", ts, o.Source, o.Reason)
		}
	}

	io.WriteString(cl.writer, b.String())
}

// outcomeLevel picks the level an outcome is logged at.
func outcomeLevel(o models.Outcome) string {
	switch o.Status {
	case models.StatusFailed:
		return "warn"
	case models.StatusSkipped:
		if o.Bucket == "" {
			return "debug"
		}
		return "info"
	default:
		return "info"
	}
}

// describeOutcome returns the verb and remainder of an outcome line.
func describeOutcome(o models.Outcome) (string, string) {
	bucket := ""
	if o.Bucket != "" {
		bucket = " [" + o.Bucket + "]"
	}

	switch o.Status {
	case models.StatusSuccess:
		verb := pastTense(o.Action)
		if o.AlreadySatisfied {
			verb = "already " + verb
		}
		if o.Action == models.ActionDelete {
			return verb, o.Source + bucket
		}
		return verb, fmt.Sprintf("%s -> %s%s", o.Source, o.Destination, bucket)
	case models.StatusSkipped:
		return "skipped", fmt.Sprintf("%s%s: %s", o.Source, bucket, o.Reason)
	default:
		return "failed", fmt.Sprintf("%s%s: %s", o.Source, bucket, o.Reason)
	}
}

func pastTense(a models.Action) string {
	switch a {
	case models.ActionMove:
		return "moved"
	case models.ActionCopy:
		return "copied"
	case models.ActionDelete:
		return "deleted"
	default:
		return "handled"
	}
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Tracef(string, ...interface{}) {}
func (n *NoOpLogger) Debugf(string, ...interface{}) {}
func (n *NoOpLogger) Infof(string, ...interface{})  {}
func (n *NoOpLogger) Warnf(string, ...interface{})  {}
func (n *NoOpLogger) Errorf(string, ...interface{}) {}
func (n *NoOpLogger) Report(models.Outcome)         {}
func (n *NoOpLogger) LogSummary(models.Summary)     {}
