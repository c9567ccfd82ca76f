package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// FileLogger writes the same lines as ConsoleLogger, without color, to a
// size-rotated log file.
type FileLogger struct {
	*ConsoleLogger
	out *lumberjack.Logger
}

// NewFileLogger opens path for appending, creating its directory if needed.
func NewFileLogger(path string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
	}

	fl := &FileLogger{
		ConsoleLogger: NewConsoleLogger(out, logLevel),
		out:           out,
	}
	fmt.Fprintf(out, "=== janitor started at %s (pid %d) ===\n", time.Now().Format(time.RFC3339), os.Getpid())
	return fl, nil
}

// Path returns the active log file.
func (fl *FileLogger) Path() string {
	return fl.out.Filename
}

// Rotate closes the current file and starts a new one.
func (fl *FileLogger) Rotate() error {
	return fl.out.Rotate()
}

// Close closes the log file.
func (fl *FileLogger) Close() error {
	return fl.out.Close()
}
