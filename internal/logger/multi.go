package logger

import "github.com/harrison/janitor/internal/models"

// Multi fans every call out to each logger in order.
type Multi []Logger

func (m Multi) Tracef(format string, args ...interface{}) {
	for _, l := range m {
		l.Tracef(format, args...)
	}
}

func (m Multi) Debugf(format string, args ...interface{}) {
	for _, l := range m {
		l.Debugf(format, args...)
	}
}

func (m Multi) Infof(format string, args ...interface{}) {
	for _, l := range m {
		l.Infof(format, args...)
	}
}

func (m Multi) Warnf(format string, args ...interface{}) {
	for _, l := range m {
		l.Warnf(format, args...)
	}
}

func (m Multi) Errorf(format string, args ...interface{}) {
	for _, l := range m {
		l.Errorf(format, args...)
	}
}

func (m Multi) Report(o models.Outcome) {
	for _, l := range m {
		l.Report(o)
	}
}

func (m Multi) LogSummary(s models.Summary) {
	for _, l := range m {
		l.LogSummary(s)
	}
}
