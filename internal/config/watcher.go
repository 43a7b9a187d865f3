package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/pipeline"
)

// debounceWindow coalesces the bursts of write events editors produce when
// saving a file.
const debounceWindow = 200 * time.Millisecond

// Watcher watches one workflow file and calls back with freshly resolved
// toggles whenever the file changes. Only the toggles block is re-read; the
// rest of the configuration stays as loaded at startup.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// Watch starts watching the workflow file at path. The apply callback runs
// on the watcher's goroutine for every successful re-read; decode failures
// are logged and skipped so a half-saved file cannot poison the live
// configuration.
func Watch(ctx context.Context, path string, apply func(pipeline.Options)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory rather than the file: editors that replace the
	// file on save would otherwise drop the watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{watcher: fsw, path: path, done: make(chan struct{})}
	go w.loop(ctx, apply)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context, apply func(pipeline.Options)) {
	logger := ctxlog.FromContext(ctx).With("path", w.path)
	var pending <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(debounceWindow)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error.", "error", err)
		case <-pending:
			pending = nil
			toggles, err := LoadToggles(ctx, w.path)
			if err != nil {
				logger.Warn("Ignoring unreadable workflow file edit.", "error", err)
				continue
			}
			logger.Info("🔄 Workflow toggles reloaded.")
			apply(toggles)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
