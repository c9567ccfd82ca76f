package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce is how long the config file must stay quiet before a change
// is signalled. Editors often write a file in several steps.
const ReloadDebounce = 250 * time.Millisecond

// Watch signals on the returned channel whenever the file at path is written,
// created or replaced. Bursts of events are coalesced. The directory is
// watched rather than the file so that atomic saves (write temp, rename over)
// keep being noticed. The channel is closed when ctx is done.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()

		timer := time.NewTimer(ReloadDebounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				timer.Reset(ReloadDebounce)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-timer.C:
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return changes, nil
}
