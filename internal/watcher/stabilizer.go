package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/harrison/janitor/internal/models"
)

const (
	// DefaultStabilizeInterval is the quiet period between two samples.
	DefaultStabilizeInterval = time.Second
	// DefaultStabilizeMaxWait bounds how long a file may keep changing.
	DefaultStabilizeMaxWait = 2 * time.Minute
)

var (
	// ErrVanished is returned when the candidate disappears before it settles.
	ErrVanished = errors.New("vanished before stabilizing")
	// ErrNotStable is returned when the candidate keeps changing past MaxWait.
	ErrNotStable = errors.New("still changing after maximum wait")
	// ErrNotRegular is returned when the path is no longer a regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// Stabilizer decides when a freshly observed file is no longer being written:
// two consecutive samples of size and modification time taken one Interval
// apart must agree.
type Stabilizer struct {
	Interval time.Duration
	MaxWait  time.Duration

	lstat func(string) (os.FileInfo, error)
}

// NewStabilizer creates a stabilizer. Non-positive durations fall back to the defaults.
func NewStabilizer(interval, maxWait time.Duration) *Stabilizer {
	if interval <= 0 {
		interval = DefaultStabilizeInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultStabilizeMaxWait
	}
	return &Stabilizer{Interval: interval, MaxWait: maxWait, lstat: os.Lstat}
}

// Wait blocks until c is stable, vanished, too slow, or ctx is done. Samples
// taken along the way are appended to c.Samples.
func (s *Stabilizer) Wait(ctx context.Context, c *models.Candidate) error {
	start := time.Now()

	prev, err := s.sample(c)
	if err != nil {
		return err
	}

	timer := time.NewTimer(s.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		cur, err := s.sample(c)
		if err != nil {
			return err
		}
		if cur.Same(prev) {
			return nil
		}
		if time.Since(start) >= s.MaxWait {
			return fmt.Errorf("%s: %w (%s)", c.Path, ErrNotStable, s.MaxWait)
		}

		prev = cur
		timer.Reset(s.Interval)
	}
}

func (s *Stabilizer) sample(c *models.Candidate) (models.Sample, error) {
	info, err := s.lstat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Sample{}, ErrVanished
	}
	if err != nil {
		return models.Sample{}, fmt.Errorf("failed to stat %s: %w", c.Path, err)
	}
	if !info.Mode().IsRegular() {
		return models.Sample{}, ErrNotRegular
	}

	sample := models.SampleOf(info, time.Now())
	c.Samples = append(c.Samples, sample)
	return sample, nil
}
