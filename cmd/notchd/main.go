// Package main is the entry point for the notchd overlay daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/daemon"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/platform/wayland"
	"github.com/jmylchreest/notchd/internal/platform/x11"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/notchd/notchd.toml)")
	backendName := flag.String("backend", "", "Window system backend: auto, wayland or x11 (overrides config)")
	noBus := flag.Bool("no-bus", false, "Run without D-Bus services (no control, OSD capture or lock tracking)")
	flag.Parse()

	if *showVersion {
		fmt.Println("notchd version", version)
		os.Exit(0)
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *backendName, *noBus); err != nil {
		logger.Error("notchd exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, backendName string, noBus bool) error {
	cfg, err := config.LoadDaemonConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backendName == "" {
		backendName = cfg.Backend.Name
	}

	if err := config.EnsureDataDir(); err != nil {
		logger.Warn("failed to create data directory", "error", err)
	}

	backend, err := selectBackend(backendName, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("error closing backend", "error", err)
		}
	}()

	d, err := daemon.New(daemon.Options{
		Backend:    backend,
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Version:    version,
		NoBus:      noBus,
	})
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The GTK backend must own the main OS thread, so Run stays here.
	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("notchd stopped")
	return nil
}

// selectBackend picks the window system backend. "auto" prefers Wayland
// whenever a Wayland display is advertised.
func selectBackend(name string, cfg *config.DaemonConfig, logger *slog.Logger) (platform.Backend, error) {
	if name == config.BackendAuto || name == "" {
		name = detectBackend(os.Getenv)
		logger.Debug("detected backend", "backend", name)
	}

	switch name {
	case config.BackendWayland:
		return wayland.New(wayland.Options{
			Theme:          cfg.Theme.Name,
			ThemeHotReload: cfg.Theme.HotReload,
			Logger:         logger,
		}), nil
	case config.BackendX11:
		b, err := x11.New(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to X server: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (valid: %v)", name, config.ValidBackends())
	}
}

// detectBackend maps the session environment to a backend name.
func detectBackend(getenv func(string) string) string {
	if getenv("WAYLAND_DISPLAY") != "" {
		return config.BackendWayland
	}
	if getenv("XDG_SESSION_TYPE") == "wayland" && getenv("DISPLAY") == "" {
		return config.BackendWayland
	}
	return config.BackendX11
}
