package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/janitor/internal/models"
)

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		messageLevel string
		shouldAppear bool
	}{
		{name: "trace sees trace", logLevel: "trace", messageLevel: "trace", shouldAppear: true},
		{name: "debug blocks trace", logLevel: "debug", messageLevel: "trace", shouldAppear: false},
		{name: "debug sees debug", logLevel: "debug", messageLevel: "debug", shouldAppear: true},
		{name: "info blocks debug", logLevel: "info", messageLevel: "debug", shouldAppear: false},
		{name: "info sees info", logLevel: "info", messageLevel: "info", shouldAppear: true},
		{name: "info sees warn", logLevel: "info", messageLevel: "warn", shouldAppear: true},
		{name: "warn blocks info", logLevel: "warn", messageLevel: "info", shouldAppear: false},
		{name: "error blocks warn", logLevel: "error", messageLevel: "warn", shouldAppear: false},
		{name: "error sees error", logLevel: "error", messageLevel: "error", shouldAppear: true},
		{name: "invalid level defaults to info", logLevel: "loud", messageLevel: "debug", shouldAppear: false},
		{name: "level is case-insensitive", logLevel: "DEBUG", messageLevel: "debug", shouldAppear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewConsoleLogger(buf, tt.logLevel)

			switch tt.messageLevel {
			case "trace":
				l.Tracef("msg %d", 1)
			case "debug":
				l.Debugf("msg %d", 1)
			case "info":
				l.Infof("msg %d", 1)
			case "warn":
				l.Warnf("msg %d", 1)
			case "error":
				l.Errorf("msg %d", 1)
			}

			got := strings.Contains(buf.String(), "msg 1")
			if got != tt.shouldAppear {
				t.Errorf("message appeared = %v, want %v (output %q)", got, tt.shouldAppear, buf.String())
			}
		})
	}
}

func TestConsoleLogger_Format(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info")
	l.Infof("watching %s", "/in")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] watching /in\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected format: %q", buf.String())
	}
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	l := NewConsoleLogger(nil, "trace")
	l.Infof("nothing")
	l.Report(models.Outcome{Status: models.StatusFailed})
	l.LogSummary(models.Summary{})
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info")
	if l.colorOutput {
		t.Error("color must be disabled for non-terminal writers")
	}
	l.Warnf("careful")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("unexpected ANSI codes in %q", buf.String())
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		outcome models.Outcome
		want    string
	}{
		{
			name:  "move",
			level: "info",
			outcome: models.Outcome{
				Source: "/in/a.txt", Destination: "/docs/a.txt", Bucket: "docs",
				Action: models.ActionMove, Status: models.StatusSuccess,
			},
			want: "moved /in/a.txt -> /docs/a.txt [docs]",
		},
		{
			name:  "copy already satisfied",
			level: "info",
			outcome: models.Outcome{
				Source: "/in/a.txt", Destination: "/bak/a.txt", Bucket: "backup",
				Action: models.ActionCopy, Status: models.StatusSuccess, AlreadySatisfied: true,
			},
			want: "already copied /in/a.txt -> /bak/a.txt [backup]",
		},
		{
			name:  "delete",
			level: "info",
			outcome: models.Outcome{
				Source: "/in/x.obj", Bucket: "junk", Action: models.ActionDelete, Status: models.StatusSuccess,
			},
			want: "deleted /in/x.obj [junk]",
		},
		{
			name:  "skip",
			level: "info",
			outcome: models.Outcome{
				Source: "/in/a.txt", Bucket: "docs", Action: models.ActionMove,
				Status: models.StatusSkipped, Reason: "destination exists: /docs/a.txt",
			},
			want: "skipped /in/a.txt [docs]: destination exists: /docs/a.txt",
		},
		{
			name:  "failure",
			level: "warn",
			outcome: models.Outcome{
				Source: "/in/b.bin", Bucket: "catchall", Status: models.StatusFailed, Reason: "permission denied",
			},
			want: "failed /in/b.bin [catchall]: permission denied",
		},
		{
			name:    "unmatched is debug",
			level:   "debug",
			outcome: models.Outcome{Source: "/in/c", Status: models.StatusSkipped, Reason: "no matching bucket"},
			want:    "skipped /in/c: no matching bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			NewConsoleLogger(buf, tt.level).Report(tt.outcome)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}

	t.Run("unmatched hidden at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").Report(models.Outcome{Source: "/in/c", Status: models.StatusSkipped, Reason: "no matching bucket"})
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

func TestLogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info")

	s := models.Summary{}
	s.Add(models.Outcome{Status: models.StatusSuccess})
	s.Add(models.Outcome{Status: models.StatusSkipped})
	s.Add(models.Outcome{Source: "/in/bad", Status: models.StatusFailed, Reason: "boom"})
	s.Duration = 90 * time.Second
	l.LogSummary(s)

	out := buf.String()
	for _, want := range []string{"=== Run Summary ===", "Files: 3", "Placed: 1", "Skipped: 1", "Failed: 1", "Duration: 1m30s", "/in/bad: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := map[int]string{-1: "error", 0: "error", 1: "error", 2: "warn", 3: "info", 4: "debug", 5: "trace", 9: "trace"}
	for v, want := range tests {
		if got := LevelFromVerbosity(v); got != want {
			t.Errorf("LevelFromVerbosity(%d) = %s, want %s", v, got, want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range Levels {
		if !ValidLevel(l) {
			t.Errorf("%s should be valid", l)
		}
	}
	if !ValidLevel(" WARN ") {
		t.Error("levels should be trimmed and case-insensitive")
	}
	if ValidLevel("verbose") {
		t.Error("verbose is not a level")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		5 * time.Second:                       "5s",
		90 * time.Second:                      "1m30s",
		2 * time.Minute:                       "2m",
		2*time.Hour + 15*time.Minute:          "2h15m",
		time.Hour + time.Minute + time.Second: "1h1m1s",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%s) = %s, want %s", d, got, want)
		}
	}
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Infof("line %d", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Errorf("expected 50 lines, got %d", len(lines))
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "janitor.log")
	fl, err := NewFileLogger(path, "debug")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	fl.Debugf("debug line")
	fl.Tracef("trace line")
	fl.Report(models.Outcome{Source: "/in/a", Destination: "/d/a", Action: models.ActionMove, Status: models.StatusSuccess})

	if fl.Path() != path {
		t.Errorf("Path() = %s, want %s", fl.Path(), path)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "janitor started") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "[DEBUG] debug line") {
		t.Error("missing debug line")
	}
	if strings.Contains(out, "trace line") {
		t.Error("trace line should be filtered")
	}
	if !strings.Contains(out, "moved /in/a -> /d/a") {
		t.Error("missing outcome line")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("file output must not contain color codes")
	}
}

func TestMulti(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := Multi{NewConsoleLogger(a, "info"), NewConsoleLogger(b, "warn"), NewNoOpLogger()}

	m.Infof("hello")
	m.Warnf("careful")
	m.Report(models.Outcome{Source: "/x", Status: models.StatusFailed, Reason: "r"})

	if !strings.Contains(a.String(), "hello") || !strings.Contains(a.String(), "careful") {
		t.Errorf("first logger missing lines: %q", a.String())
	}
	if strings.Contains(b.String(), "hello") || !strings.Contains(b.String(), "careful") {
		t.Errorf("second logger level not honored: %q", b.String())
	}
	if !strings.Contains(b.String(), "failed /x: r") {
		t.Errorf("failure outcome missing: %q", b.String())
	}
}
