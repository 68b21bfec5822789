// Package wayland implements the platform backend for Wayland compositors
// using GTK4, libadwaita and the wlr layer-shell protocol.
//
// Wayland gives clients no global pointer position, so the backend has no
// PointerLocator and gestures carry positions only while the pointer is over
// a surface.
package wayland

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/theme"
)

// Name is the backend name used in configuration.
const Name = "wayland"

const appID = "io.github.jmylchreest.notchd"

// ErrLayerShellUnsupported is returned when the compositor lacks layer-shell.
var ErrLayerShellUnsupported = errors.New("compositor does not support wlr-layer-shell")

// Options configures the backend.
type Options struct {
	// Theme is the CSS theme name; empty selects the default.
	Theme string
	// ThemeHotReload reloads user themes when their files change.
	ThemeHotReload bool
	Logger         *slog.Logger
}

// Backend runs the GTK application that owns every surface window.
type Backend struct {
	opts    Options
	logger  *slog.Logger
	app     *adw.Application
	exec    Executor
	topo    *Topology
	windows *windowProvider
	theme   *theme.Loader
}

var _ platform.Backend = (*Backend)(nil)

// New creates the backend. GTK is not initialised until Run.
func New(opts Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", Name)

	app := adw.NewApplication(appID, 0)
	topo := NewTopology(logger)
	return &Backend{
		opts:   opts,
		logger: logger,
		app:    app,
		topo:   topo,
		windows: &windowProvider{
			app:    &app.Application,
			topo:   topo,
			logger: logger,
		},
	}
}

// Name implements platform.Backend.
func (b *Backend) Name() string { return Name }

// Executor implements platform.Backend.
func (b *Backend) Executor() sched.Executor { return b.exec }

// Topology implements platform.Backend.
func (b *Backend) Topology() platform.TopologySource { return b.topo }

// Windows implements platform.Backend.
func (b *Backend) Windows() platform.WindowProvider { return b.windows }

// Pointer implements platform.Backend.
func (b *Backend) Pointer() platform.PointerLocator { return platform.NoPointer{} }

// Run implements platform.Backend. It must be called from the main goroutine.
func (b *Backend) Run(ctx context.Context, lc platform.Lifecycle) error {
	var (
		started  bool
		startErr error
	)

	b.app.ConnectActivate(func() {
		if started {
			b.logger.Warn("application already running")
			return
		}
		started = true

		if !layershell.IsSupported() {
			startErr = ErrLayerShellUnsupported
			b.app.Quit()
			return
		}

		display := gdk.DisplayGetDefault()
		if display == nil {
			startErr = ErrNoDisplay
			b.app.Quit()
			return
		}
		b.topo.attach(display)
		b.applyTheme(ctx, display)

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&b.app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)

		if lc.Started != nil {
			lc.Started()
		}
	})

	b.app.ConnectShutdown(func() {
		b.logger.Info("application shutting down")
		if started && startErr == nil && lc.Stopping != nil {
			lc.Stopping()
		}
		if b.theme != nil {
			b.theme.StopHotReload()
		}
	})

	stop := context.AfterFunc(ctx, func() {
		coreglib.IdleAdd(func() bool {
			b.app.Quit()
			return false
		})
	})
	defer stop()

	// Our flags are already parsed; GApplication only sees the program name.
	status := b.app.Run(os.Args[:1])
	if startErr != nil {
		return startErr
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}
	return nil
}

func (b *Backend) applyTheme(ctx context.Context, display *gdk.Display) {
	b.theme = theme.NewLoader(b.logger)
	if err := b.theme.LoadTheme(b.opts.Theme); err != nil {
		b.logger.Warn("failed to load theme", "theme", b.opts.Theme, "error", err)
	}
	b.theme.Apply(display)
	if b.opts.ThemeHotReload {
		b.theme.StartHotReload(ctx, b.exec.Post)
	}
}

// Close implements platform.Backend.
func (b *Backend) Close() error {
	return nil
}
