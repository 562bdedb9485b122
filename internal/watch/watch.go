// Package watch reruns a callback when watched files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of writes from editors into one run.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches files for changes
type Watcher struct {
	files    map[string]bool
	callback func() error
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for files. The containing directories are
// watched so that editors replacing a file by rename are still seen.
func NewWatcher(files []string, callback func() error, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		callback: callback,
		watcher:  watcher,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	dirs := map[string]bool{}
	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[absPath] = true
		dir := filepath.Dir(absPath)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
	}
	return w, nil
}

// SetDebounce changes the quiet period before the callback runs.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run calls the callback once, then again after each change, until ctx is
// done. Callback errors after the first run are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			timer.Reset(w.debounce)
			debounceCh = timer.C

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				w.logger.Error("watch callback failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
