package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/notchd/internal/config"
)

// configDebounce coalesces the burst of events an editor save produces.
const configDebounce = 50 * time.Millisecond

// ConfigEvent is the outcome of one change to the config file. Exactly one
// of Config and Err is set.
type ConfigEvent struct {
	Config *config.DaemonConfig
	Err    error
}

// ConfigWatcher turns edits of the daemon config file into validated
// configurations. An invalid edit is reported once and the previous
// configuration stays in force until the file changes again.
type ConfigWatcher struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration

	// last is the file content most recently seen. Only the watch
	// goroutine touches it once Watch has returned.
	last []byte
}

// NewConfigWatcher creates a ConfigWatcher for path, or the default config
// path when empty.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = config.ConfigPath()
	}
	return &ConfigWatcher{path: path, logger: logger, debounce: configDebounce}
}

// Path returns the watched file.
func (w *ConfigWatcher) Path() string { return w.path }

// Watch streams a ConfigEvent for every content change of the config file
// until ctx is done, then closes the channel. The directory is watched so
// editors that save by rename are seen, and a deleted file is not a change.
func (w *ConfigWatcher) Watch(ctx context.Context) (<-chan ConfigEvent, error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w.last, _ = os.ReadFile(w.path)
	events := make(chan ConfigEvent, 4)
	go w.run(ctx, fsw, events)

	w.logger.Debug("config watcher started", "path", w.path)
	return events, nil
}

func (w *ConfigWatcher) run(ctx context.Context, fsw *fsnotify.Watcher, events chan<- ConfigEvent) {
	defer close(events)
	defer func() { _ = fsw.Close() }()

	name := filepath.Base(w.path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce = time.After(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-debounce:
			debounce = nil
			ev, changed := w.check()
			if !changed {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// check reads the config file and reports whether its content differs from
// the last version seen.
func (w *ConfigWatcher) check() (ConfigEvent, bool) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("failed to read config file", "path", w.path, "error", err)
		}
		return ConfigEvent{}, false
	}
	if bytes.Equal(data, w.last) {
		return ConfigEvent{}, false
	}
	w.last = data

	cfg, err := config.ParseDaemonConfig(data)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		return ConfigEvent{Err: err}, true
	}
	w.logger.Info("config reloaded", "path", w.path)
	return ConfigEvent{Config: cfg}, true
}
