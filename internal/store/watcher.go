package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event is emitted by StateStore.Watch when the state file changes.
type Event struct {
	State *SharedState
}

// Watch streams the reloaded state after every change to the state file until
// ctx is cancelled. The directory is watched rather than the file so atomic
// renames are seen. The channel is closed once ctx is done or the watcher
// fails.
func (s *StateStore) Watch(ctx context.Context, logger *slog.Logger) (<-chan Event, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if s.path == "" {
		return nil, errors.New("store: state path unknown")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: ensure state dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("state watcher close failed", "error", err)
			}
		})
	}

	if err := watcher.Add(dir); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	events := make(chan Event, 8)
	filename := filepath.Base(s.path)

	go func() {
		defer close(events)
		defer closeWatcher()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				state, err := s.Load()
				if err != nil {
					logger.Warn("failed to reload state", "file", s.path, "error", err)
					continue
				}
				logger.Debug("state file changed", "file", s.path)
				select {
				case events <- Event{State: state}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("state watcher error", "error", err)
			}
		}
	}()

	return events, nil
}
