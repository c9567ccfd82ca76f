package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/janitor/internal/config"
	"github.com/harrison/janitor/internal/display"
	"github.com/harrison/janitor/internal/engine"
	"github.com/harrison/janitor/internal/filelock"
	"github.com/harrison/janitor/internal/journal"
	"github.com/harrison/janitor/internal/logger"
	"github.com/harrison/janitor/internal/models"
	"github.com/harrison/janitor/internal/watcher"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config-file]",
		Short: "Watch directories and place new files",
		Long: `Watch the configured directories and place every new file into its bucket.

By default janitor keeps running and reacts to files as they appear. Editing
the configuration file while it runs reloads it; an invalid edit is reported
and the previous configuration stays active.

With --one-shot janitor instead sweeps the files that already exist, prints a
summary and exits non-zero if any file failed.

The first interrupt stops taking new files and waits for the files already
picked up; a second interrupt aborts those that are not yet being placed.

Configuration is read from the given file, --config, $JANITOR_CONFIG,
./janitor.toml or ~/.config/janitor/config.toml.
CLI flags override configuration file settings.

Examples:
  janitor run                          # Watch using the default config
  janitor run ~/janitor.toml           # Watch using a specific config
  janitor run --one-shot               # Tidy existing files and exit
  janitor run --workers 8 --verbosity 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommand,
	}

	addConfigFlag(cmd)
	cmd.Flags().Bool("one-shot", false, "Process existing files once and exit instead of watching")
	cmd.Flags().Int("workers", 0, "Number of files placed concurrently (default from config)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Int("verbosity", 3, "Numeric log level: 0-1 error, 2 warn, 3 info, 4 debug, 5 trace")
	cmd.Flags().String("log-file", "", "Also write logs to this rotating file")
	cmd.Flags().Bool("no-journal", false, "Do not record outcomes in the journal database")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("log-level") && cmd.Flags().Changed("verbosity") {
		return fmt.Errorf("cannot use both --log-level and --verbosity")
	}

	path, err := configPath(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, path)
	if err != nil {
		return err
	}

	home, err := config.Home()
	if err != nil {
		return err
	}

	lock, err := filelock.AcquireInstance(home)
	if errors.Is(err, filelock.ErrLocked) {
		return fmt.Errorf("another janitor is already running: %w", err)
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	log, closeLog, err := setupLogger(cmd.OutOrStdout(), cfg, home)
	if err != nil {
		return err
	}
	defer closeLog()

	for _, w := range display.Lint(cfg.Watches, cfg.Buckets) {
		w.Log(log.Warnf)
	}

	reporter := engine.MultiReporter{log}
	if journalPath := cfg.Settings.JournalPath(home); journalPath != "" {
		store, err := journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		store.OnError = func(err error) {
			log.Warnf("Journal: %v", err)
		}
		reporter = append(reporter, store)
		log.Debugf("Recording outcomes in %s (run %s)", journalPath, store.RunID)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	drain, ctx, cancel := shutdownContexts(cmd.Context(), sigs, log)
	defer cancel()

	oneShot, _ := cmd.Flags().GetBool("one-shot")
	if oneShot {
		return runOneShot(ctx, drain, cfg, reporter, log)
	}
	return runDaemon(ctx, drain, cfg, reporter, log, func() (*config.Config, error) {
		return loadConfig(cmd, cfg.Path)
	})
}

// loadConfig loads path and applies command-line overrides.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	var workersPtr *int
	if cmd.Flags().Changed("workers") {
		workers, _ := cmd.Flags().GetInt("workers")
		workersPtr = &workers
	}

	var levelPtr *string
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		levelPtr = &level
	} else if cmd.Flags().Changed("verbosity") {
		v, _ := cmd.Flags().GetInt("verbosity")
		level := logger.LevelFromVerbosity(v)
		levelPtr = &level
	}

	var logFilePtr *string
	if cmd.Flags().Changed("log-file") {
		logFile, _ := cmd.Flags().GetString("log-file")
		logFilePtr = &logFile
	}

	var journalPtr *string
	if noJournal, _ := cmd.Flags().GetBool("no-journal"); noJournal {
		disabled := ""
		journalPtr = &disabled
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(workersPtr, levelPtr, logFilePtr, journalPtr)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger builds the console logger plus the optional rotating file logger.
func setupLogger(out io.Writer, cfg *config.Config, home string) (logger.Multi, func(), error) {
	level := cfg.Settings.LogLevel
	log := logger.Multi{logger.NewConsoleLogger(out, level)}

	logFile := cfg.Settings.LogFilePath(home)
	if logFile == "" {
		return log, func() {}, nil
	}

	fileLog, err := logger.NewFileLogger(logFile, level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	return append(log, fileLog), func() { fileLog.Close() }, nil
}

// engineOptions maps settings onto engine options.
func engineOptions(s config.Settings, reporter engine.Reporter, log engine.Logger) engine.Options {
	return engine.Options{
		Workers:           s.Workers,
		StabilizeInterval: s.StabilizeInterval,
		StabilizeMaxWait:  s.StabilizeMaxWait,
		RecentTTL:         s.RecentTTL,
		Reporter:          reporter,
		Logger:            log,
	}
}

// shutdownContexts derives the two shutdown stages from parent. The first
// signal on sigs cancels drain: sources stop and admitted files are still
// placed. The second cancels ctx, which interrupts files not yet holding a
// worker. Cancelling ctx also cancels drain.
func shutdownContexts(parent context.Context, sigs <-chan os.Signal, log logger.Logger) (drain, ctx context.Context, cancel context.CancelFunc) {
	ctx, cancelCtx := context.WithCancel(parent)
	drain, cancelDrain := context.WithCancel(ctx)

	go func() {
		select {
		case sig := <-sigs:
			log.Warnf("Received %v, finishing files in flight (send again to abort)", sig)
			cancelDrain()
		case <-ctx.Done():
			return
		}
		select {
		case sig := <-sigs:
			log.Warnf("Received %v again, aborting", sig)
			cancelCtx()
		case <-ctx.Done():
		}
	}()

	return drain, ctx, func() {
		cancelDrain()
		cancelCtx()
	}
}

// drainingSource stops the wrapped source once drain is done. The engine
// keeps running until the candidates it already admitted are placed.
type drainingSource struct {
	watcher.Source
	drain context.Context
}

func (s drainingSource) Start(ctx context.Context) (<-chan models.Candidate, error) {
	if s.drain.Err() != nil {
		out := make(chan models.Candidate)
		close(out)
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.drain, cancel)

	out, err := s.Source.Start(ctx)
	if err != nil {
		stop()
		cancel()
		return nil, err
	}
	return out, nil
}

// runOneShot sweeps every watch root once.
func runOneShot(ctx, drain context.Context, cfg *config.Config, reporter engine.Reporter, log logger.Logger) error {
	log.Infof("Sweeping %d watch root(s) with %d worker(s)", len(cfg.Watches), cfg.Settings.Workers)

	eng := engine.New(engineOptions(cfg.Settings, reporter, log))
	summary, err := eng.Run(ctx, drainingSource{watcher.NewWalkSource(cfg.Watches, log), drain})
	if err != nil {
		return err
	}

	log.LogSummary(summary)
	return summaryError(summary)
}

// summaryError turns failed outcomes into a non-zero exit.
func summaryError(s models.Summary) error {
	if s.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", s.Failed)
	}
	return nil
}

type runResult struct {
	summary models.Summary
	err     error
}

// runDaemon watches until drain or ctx is cancelled. A changed configuration
// file is reloaded; when the new configuration is valid the running engine is
// drained and replaced.
func runDaemon(ctx, drain context.Context, cfg *config.Config, reporter engine.Reporter, log logger.Logger, reload func() (*config.Config, error)) error {
	var changes <-chan struct{}
	if cfg.Path != "" {
		ch, err := config.Watch(drain, cfg.Path)
		if err != nil {
			log.Warnf("Configuration reload disabled: %v", err)
		} else {
			changes = ch
		}
	}

	for {
		eng := engine.New(engineOptions(cfg.Settings, reporter, log))
		done := make(chan runResult, 1)
		go func() {
			summary, err := eng.Run(ctx, drainingSource{watcher.NewNotifySource(cfg.Watches, log), drain})
			done <- runResult{summary, err}
		}()
		for _, w := range cfg.Watches {
			log.Infof("Watching %s (%s, %d bucket(s))", w.Path, w.Mode(), len(w.Buckets))
		}

		next, res := waitForReload(drain, changes, done, log, reload)
		if next == nil {
			if res.err != nil {
				return res.err
			}
			log.LogSummary(res.summary)
			return nil
		}

		log.Infof("Configuration changed, draining %d file(s) in flight", eng.InFlight())
		eng.Stop()
		res = <-done
		if res.err != nil {
			return res.err
		}
		log.Debugf("Previous configuration handled %d file(s)", res.summary.Total)
		cfg = next
	}
}

// waitForReload blocks until the engine finishes or a valid configuration
// arrives. It returns the new configuration, or nil and the engine's result.
func waitForReload(ctx context.Context, changes <-chan struct{}, done <-chan runResult, log logger.Logger, reload func() (*config.Config, error)) (*config.Config, runResult) {
	for {
		select {
		case res := <-done:
			return nil, res
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			next, err := reload()
			if err != nil {
				log.Errorf("Configuration reload rejected, keeping previous configuration: %v", err)
				continue
			}
			return next, runResult{}
		}
	}
}
