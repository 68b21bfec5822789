package theme

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader handles loading and applying CSS themes with hot-reload support.
// LoadTheme and Apply touch GTK and must run on the main context.
type Loader struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	provider    *gtk.CSSProvider
	themesDir   string
	currentName string
	theme       *Theme
	watcher     *Watcher
}

// NewLoader creates a new theme loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}

	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "notchd", "themes"), nil
}

// LoadTheme loads a theme by name.
// Theme resolution order:
//  1. User themes directory (~/.config/notchd/themes/)
//  2. Embedded/bundled themes
//  3. The embedded default theme
func (l *Loader) LoadTheme(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.resolve(name)
	l.provider.LoadFromString(t.CSS)
	l.currentName = t.Name
	l.theme = t
	if l.watcher != nil {
		l.watcher.UpdateTheme(t)
	}
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled())
	return nil
}

func (l *Loader) resolve(name string) *Theme {
	if name == "" {
		name = DefaultThemeName
	}

	if l.themesDir != "" {
		path := filepath.Join(l.themesDir, name+".css")
		if _, err := os.Stat(path); err == nil {
			t, err := Load(name, path)
			if err == nil {
				return t
			}
			l.logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
		}
	}

	if t, ok := LoadBundled(name); ok {
		return t
	}

	l.logger.Warn("theme not found, using default", "theme", name)
	return Default()
}

// Apply attaches the theme provider to a display.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.CurrentTheme())
}

// StartHotReload starts watching the current theme for changes. post must
// deliver its argument to the GTK main context.
func (l *Loader) StartHotReload(ctx context.Context, post func(func())) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.theme == nil || l.theme.Bundled() {
		l.logger.Debug("not starting hot-reload for embedded theme")
		return
	}

	if l.watcher != nil {
		l.watcher.Stop()
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.OnChange(func(css string) {
		post(func() {
			l.provider.LoadFromString(css)
			l.logger.Info("hot-reloaded theme", "name", l.CurrentTheme())
		})
	})

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// CurrentTheme returns the name of the currently loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentName
}
