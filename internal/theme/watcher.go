package theme

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a user theme when it or a partial beside it changes.
// The directory is watched rather than the file so editors that save by
// rename keep being picked up.
type Watcher struct {
	logger *slog.Logger

	mu       sync.Mutex
	theme    *Theme
	onChange func(css string)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher creates a watcher for t. It does nothing until Start.
func NewWatcher(t *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{logger: logger, theme: t}
}

// OnChange sets the function called with the new CSS after a reload. It runs
// on the watcher goroutine.
func (w *Watcher) OnChange(fn func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching. Bundled themes have no file and are ignored.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}
	if w.theme == nil || w.theme.Bundled() {
		w.logger.Debug("not watching bundled theme")
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create theme watcher: %w", err)
	}
	dir := filepath.Dir(w.theme.Path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, fsw, w.done)

	w.logger.Debug("theme watcher started", "path", w.theme.Path)
	return nil
}

// Stop stops watching and waits for the watcher goroutine. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.logger.Debug("theme watcher stopped")
}

// Running reports whether the watcher goroutine is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// UpdateTheme switches to a different theme in the same directory.
func (w *Watcher) UpdateTheme(t *Theme) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.theme = t
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() { _ = fsw.Close() }()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if stylesheetChanged(ev) {
				debounce = time.After(reloadDebounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)
		case <-debounce:
			debounce = nil
			w.reload()
		}
	}
}

// stylesheetChanged reports whether ev may alter the flattened theme.
// Imported partials live beside the theme, so any CSS file counts.
func stylesheetChanged(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Ext(ev.Name) == ".css"
}

func (w *Watcher) reload() {
	w.mu.Lock()
	t, fn := w.theme, w.onChange
	w.mu.Unlock()

	if t == nil || t.Bundled() {
		return
	}

	changed, err := t.Reload()
	if err != nil {
		w.logger.Warn("failed to reload theme", "path", t.Path, "error", err)
		return
	}
	if !changed {
		return
	}
	w.logger.Info("theme changed, reloading", "path", t.Path)
	if fn != nil {
		fn(t.CSS)
	}
}
