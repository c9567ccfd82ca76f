// Package engine wires a candidate source to stabilization, bucket selection,
// conflict resolution and execution.
//
// Each admitted candidate gets its own goroutine for stabilization. Selection,
// resolution and execution then run on one of a bounded number of worker
// slots. A decision that holds a slot always runs to completion; cancelling
// the run only interrupts candidates that are still stabilizing or waiting
// for a slot, and those are reported as failed. Stop, or a source that stops
// on its own, lets every admitted candidate finish normally.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/harrison/janitor/internal/models"
	"github.com/harrison/janitor/internal/placement"
	"github.com/harrison/janitor/internal/rules"
	"github.com/harrison/janitor/internal/watcher"
)

const (
	// DefaultWorkers is the default number of concurrent decisions.
	DefaultWorkers = 4
	// DefaultRecentTTL is how long a settled file is ignored if reported again unchanged.
	DefaultRecentTTL = 10 * time.Second
	// DefaultRecentSize bounds the number of remembered settled files.
	DefaultRecentSize = 4096
)

// Logger is the subset of the application logger the engine uses.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Stabilizer blocks until a candidate has stopped changing.
type Stabilizer interface {
	Wait(ctx context.Context, c *models.Candidate) error
}

// Executor performs a resolved decision.
type Executor interface {
	Execute(d models.Decision, replace bool) (placement.Result, error)
}

// Options configures an Engine.
type Options struct {
	Workers           int
	StabilizeInterval time.Duration
	StabilizeMaxWait  time.Duration
	// RecentTTL of zero disables suppression of repeated events.
	RecentTTL  time.Duration
	RecentSize int

	Reporter Reporter
	Logger   Logger

	// Stabilizer overrides the size/mtime stabilizer built from the durations above.
	Stabilizer Stabilizer
}

// Engine processes candidates from a source until the source is exhausted or
// stopped. An Engine runs one source at a time.
type Engine struct {
	workers    int
	stabilizer Stabilizer
	resolver   *placement.Resolver
	executor   Executor
	locks      *placement.DirLocks
	reporter   Reporter
	log        Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	recent   *expirable.LRU[string, os.FileInfo]
	summary  models.Summary
	stop     context.CancelFunc
}

// New creates an engine from opts.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	stabilizer := opts.Stabilizer
	if stabilizer == nil {
		stabilizer = watcher.NewStabilizer(opts.StabilizeInterval, opts.StabilizeMaxWait)
	}

	e := &Engine{
		workers:    workers,
		stabilizer: stabilizer,
		resolver:   placement.NewResolver(),
		executor:   placement.NewExecutor(),
		locks:      placement.NewDirLocks(),
		reporter:   opts.Reporter,
		log:        opts.Logger,
		inflight:   make(map[string]struct{}),
	}
	if e.reporter == nil {
		e.reporter = MultiReporter{}
	}
	if e.log == nil {
		e.log = nopLogger{}
	}

	if opts.RecentTTL > 0 {
		size := opts.RecentSize
		if size <= 0 {
			size = DefaultRecentSize
		}
		e.recent = expirable.NewLRU[string, os.FileInfo](size, nil, opts.RecentTTL)
	}

	return e
}

// Run starts src and processes every candidate it emits. It returns once the
// source has closed and every admitted candidate has reached an outcome.
// Cancelling ctx stops the source and interrupts candidates not yet holding a
// worker slot; Stop stops only the source and lets admitted candidates finish.
func (e *Engine) Run(ctx context.Context, src watcher.Source) (models.Summary, error) {
	start := time.Now()

	srcCtx, stop := context.WithCancel(ctx)
	defer stop()

	e.mu.Lock()
	if e.stop != nil {
		e.mu.Unlock()
		return models.Summary{}, fmt.Errorf("engine is already running")
	}
	e.stop = stop
	e.summary = models.Summary{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.stop = nil
		e.mu.Unlock()
	}()

	candidates, err := src.Start(srcCtx)
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to start source: %w", err)
	}

	slots := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for c := range candidates {
		if !e.admit(c) {
			continue
		}
		wg.Add(1)
		go func(c models.Candidate) {
			defer wg.Done()
			o := e.process(ctx, &c, slots)
			e.finish(c, o)
		}(c)
	}
	wg.Wait()

	e.mu.Lock()
	summary := e.summary
	e.mu.Unlock()
	summary.Duration = time.Since(start)

	return summary, nil
}

// Stop stops the running source. Candidates already admitted still complete
// and Run returns once they have.
func (e *Engine) Stop() {
	e.mu.Lock()
	stop := e.stop
	e.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// InFlight returns the number of candidates admitted but not yet finished.
func (e *Engine) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}

// admit registers c as in flight unless it already is or it was settled
// recently and is still the file that was left in place.
func (e *Engine) admit(c models.Candidate) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.inflight[c.Path]; busy {
		e.log.Debugf("Dropping event for %s: already in flight", c.Path)
		return false
	}
	if e.recent != nil && e.unchangedSinceSettled(c.Path) {
		e.log.Debugf("Dropping event for %s: unchanged since last decision", c.Path)
		return false
	}

	e.inflight[c.Path] = struct{}{}
	return true
}

// unchangedSinceSettled reports whether path is the same file, with the same
// size and mtime, as one remembered by finish. Callers hold e.mu.
func (e *Engine) unchangedSinceSettled(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	seen, ok := e.recent.Get(fingerprint(path, models.SampleOf(info, info.ModTime())))
	return ok && os.SameFile(seen, info)
}

func (e *Engine) finish(c models.Candidate, o models.Outcome) {
	o.Finished = time.Now()

	e.mu.Lock()
	delete(e.inflight, c.Path)
	if e.recent != nil && leftInPlace(o) {
		sample, ok := c.LastSample()
		if info, err := os.Lstat(c.Path); ok && err == nil {
			e.recent.Add(fingerprint(c.Path, sample), info)
		}
	}
	e.summary.Add(o)
	e.mu.Unlock()

	e.reporter.Report(o)
}

// process takes one admitted candidate to its outcome.
func (e *Engine) process(ctx context.Context, c *models.Candidate, slots chan struct{}) models.Outcome {
	o := models.NewOutcome(*c)

	if err := e.stabilizer.Wait(ctx, c); err != nil {
		return e.stabilizeFailed(ctx, *c, o, err)
	}

	select {
	case slots <- struct{}{}:
	case <-ctx.Done():
		return interrupted(o)
	}
	defer func() { <-slots }()

	if ctx.Err() != nil {
		return interrupted(o)
	}

	return e.place(*c, o)
}

// place selects a bucket and performs its action. It runs on a worker slot
// and is never interrupted.
func (e *Engine) place(c models.Candidate, o models.Outcome) models.Outcome {
	name := filepath.Base(c.Path)

	bucket := rules.Select(c.Root, name)
	if bucket == nil {
		return skipped(o, ReasonNoBucket)
	}
	o.Bucket = bucket.Name
	o.Action = bucket.Action

	var expected *models.Sample
	if sample, ok := c.LastSample(); ok {
		expected = &sample
	}

	if bucket.Action == models.ActionDelete {
		d := models.Decision{Source: c.Path, Bucket: bucket, Action: models.ActionDelete, Expected: expected}
		result, err := e.executor.Execute(d, false)
		return settle(o, d, result, err)
	}

	if filepath.Clean(filepath.Dir(c.Path)) == filepath.Clean(bucket.Destination) {
		return skipped(o, ReasonInDestination)
	}

	proposed := filepath.Join(bucket.Destination, name)
	replace := bucket.OverrideAction == models.OverrideOverwrite

	unlock := e.locks.Lock(bucket.Destination)
	defer unlock()

	for attempt := 1; ; attempt++ {
		res, err := e.resolver.Resolve(proposed, bucket.OverrideAction)
		if err != nil {
			return failed(o, err)
		}
		if res.Skip {
			return skipped(o, fmt.Sprintf("%s: %s", ReasonDestinationExists, proposed))
		}

		d := models.Decision{
			Source:      c.Path,
			Bucket:      bucket,
			Destination: res.Path,
			Action:      bucket.Action,
			Expected:    expected,
		}
		result, err := e.executor.Execute(d, replace)
		if errors.Is(err, placement.ErrDestinationExists) && attempt < maxResolveAttempts {
			// Something outside this engine claimed the name after the probe.
			e.log.Debugf("Destination %s was taken concurrently, resolving again", res.Path)
			continue
		}
		return settle(o, d, result, err)
	}
}

func (e *Engine) stabilizeFailed(ctx context.Context, c models.Candidate, o models.Outcome, err error) models.Outcome {
	switch {
	case ctx.Err() != nil:
		return interrupted(o)
	case errors.Is(err, watcher.ErrVanished):
		e.log.Debugf("%s vanished before it settled", c.Path)
		return skipped(o, ReasonVanished)
	case errors.Is(err, watcher.ErrNotRegular):
		return skipped(o, ReasonNotRegular)
	default:
		return failed(o, err)
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
