package daemon

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/notchd/internal/config"
	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/identity"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/store"
	"github.com/jmylchreest/notchd/internal/transient"
)

// Options configures a Daemon.
type Options struct {
	Backend platform.Backend
	// Config is the configuration loaded at startup. Nil loads ConfigPath.
	Config     *config.DaemonConfig
	ConfigPath string
	StatePath  string
	Logger     *slog.Logger
	Version    string

	// NoBus disables every D-Bus service (control, OSD capture, lock
	// signals, internal notifications).
	NoBus bool
}

// Daemon owns the notchd services for one backend.
type Daemon struct {
	logger  *slog.Logger
	backend platform.Backend
	exec    sched.Executor
	state   *store.StateStore
	version string
	noBus   bool

	resolver *identity.Resolver
	machine  *transient.Machine
	manager  *display.Manager
	watcher  *ConfigWatcher
	notifier *InternalNotifier

	server  *dbus.ControlServer
	monitor *dbus.Monitor
	locks   *dbus.LockWatcher

	// mu guards cfg and preferred, and orders sends on prefsCh so the
	// manager never sees an older pair after a newer one.
	mu        sync.Mutex
	cfg       *config.DaemonConfig
	preferred model.DisplayIdentity
	prefsCh   chan model.Preferences

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New builds the services. Nothing runs until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Backend == nil {
		return nil, errors.New("daemon: no backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.LoadDaemonConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	statePath := opts.StatePath
	if statePath == "" {
		statePath = config.StatePath()
	}

	exec := opts.Backend.Executor()
	resolver := identity.NewResolver(identity.HardwareDeriver{}, logger)
	machine := transient.New(exec, transient.Options{
		DefaultDuration: cfg.Peek.Duration.Duration(),
		HUDReplacement:  cfg.Peek.HUDReplacement,
		Logger:          logger.With("component", "transient"),
	})
	manager := display.NewManager(display.Options{
		Executor:    exec,
		Windows:     opts.Backend.Windows(),
		Topology:    opts.Backend.Topology(),
		Pointer:     opts.Backend.Pointer(),
		Resolver:    resolver,
		Transient:   machine,
		Logger:      logger.With("component", "display"),
		Preferences: cfg.Preferences(""),
		AutoClose:   cfg.Timing.AutoClose.Duration(),
		UnlockDelay: cfg.Timing.UnlockDelay.Duration(),
	})

	d := &Daemon{
		logger:   logger,
		backend:  opts.Backend,
		exec:     exec,
		state:    store.NewStateStore(statePath),
		version:  opts.Version,
		noBus:    opts.NoBus,
		resolver: resolver,
		machine:  machine,
		manager:  manager,
		watcher:  NewConfigWatcher(opts.ConfigPath, logger),
		notifier: NewInternalNotifier(logger),
		cfg:      cfg,
		prefsCh:  make(chan model.Preferences, 1),
	}

	if !opts.NoBus {
		d.server = dbus.NewControlServer(dbus.ServerOptions{
			Executor:  exec,
			Manager:   manager,
			Transient: machine,
			PeekStyle: transient.PeekStyle(cfg.Peek.Style),
			Logger:    logger,
		})
		d.monitor = dbus.NewMonitor(logger)
		d.locks = dbus.NewLockWatcher(logger)
	}
	return d, nil
}

// Run starts the backend event loop and blocks until ctx is done or the
// backend exits. Surfaces are torn down on the executor before it stops.
func (d *Daemon) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	d.logger.Info("starting notchd", "version", d.version, "backend", d.backend.Name())
	err := d.backend.Run(runCtx, platform.Lifecycle{
		Started:  func() { d.start(runCtx) },
		Stopping: d.stop,
	})
	cancel()
	d.wg.Wait()
	return err
}

// Manager returns the surface manager. Its methods must run on Executor.
func (d *Daemon) Manager() *display.Manager { return d.manager }

// Transient returns the overlay machine. Its methods must run on Executor.
func (d *Daemon) Transient() *transient.Machine { return d.machine }

// Executor returns the backend executor.
func (d *Daemon) Executor() sched.Executor { return d.exec }

// Preferred returns the preferred display identity in force.
func (d *Daemon) Preferred() model.DisplayIdentity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.preferred
}

// start runs on the executor once the backend is ready.
func (d *Daemon) start(ctx context.Context) {
	preferred := d.migrate()

	d.mu.Lock()
	d.preferred = preferred
	cfg := d.cfg
	d.mu.Unlock()

	d.manager.SetPreferences(cfg.Preferences(preferred))
	if len(d.manager.Surfaces()) == 0 {
		d.logger.Warn("no display can host a surface")
		go d.notifier.NoDisplay()
	}

	inputs := display.Inputs{Preferences: d.prefsCh}
	if !d.noBus {
		d.startBus(ctx, &inputs, cfg)
	}
	d.startWatchers(ctx, cfg)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.manager.Run(ctx, inputs)
	}()

	d.logger.Info("notchd ready",
		"surfaces", len(d.manager.Surfaces()),
		"preferred", preferred,
		"show_on_all_displays", cfg.Display.ShowOnAllDisplays)
}

// migrate reads the topology once and converts a legacy name-based
// preference. It returns the preference in force; empty means primary.
func (d *Daemon) migrate() model.DisplayIdentity {
	topo, err := d.backend.Topology().Topology()
	if err != nil {
		d.logger.Warn("cannot read display topology for migration", "error", err)
	} else {
		d.resolver.Rebuild(topo)
	}

	id, result, err := d.resolver.MigrateLegacy(d.state)
	if err != nil {
		d.logger.Warn("preferred display migration failed", "error", err)
	}
	d.logger.Debug("preferred display loaded", "identity", id, "migration", result.String())
	return id
}

func (d *Daemon) startBus(ctx context.Context, inputs *display.Inputs, cfg *config.DaemonConfig) {
	if sender, err := dbus.NewSender(); err != nil {
		d.logger.Warn("internal notifications unavailable", "error", err)
	} else {
		d.notifier.SetSender(sender.Send)
	}

	if err := d.server.Start(); err != nil {
		d.logger.Error("control service unavailable", "error", err)
		go d.notifier.ControlUnavailable(err)
	}

	if lockCh, err := d.locks.Watch(ctx); err != nil {
		d.logger.Warn("lock state unavailable, surfaces stay visible when locked", "error", err)
	} else {
		inputs.Lock = lockCh
	}

	if cfg.Peek.OSDCapture {
		d.monitor.SetOSDHandler(func(req dbus.OSDRequest) {
			d.exec.Post(func() {
				d.machine.SetPeek(req.Kind, req.Value, req.Icon, 0)
			})
		})
		if err := d.monitor.Start(); err != nil {
			d.logger.Warn("OSD capture unavailable", "error", err)
		}
	}
}

func (d *Daemon) startWatchers(ctx context.Context, cfg *config.DaemonConfig) {
	if configs, err := d.watcher.Watch(ctx); err != nil {
		d.logger.Warn("failed to start config watcher", "error", err)
	} else {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for ev := range configs {
				if ev.Err != nil {
					d.notifier.ConfigError(ev.Err)
					continue
				}
				d.applyConfig(ev.Config)
			}
		}()
	}

	events, err := d.state.Watch(ctx, d.logger)
	if err != nil {
		d.logger.Warn("failed to watch shared state", "error", err)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range events {
			d.setPreferred(ev.State.PreferredDisplayUUID)
		}
	}()
}

// applyConfig installs a reloaded configuration. Called from the watcher
// goroutine.
func (d *Daemon) applyConfig(cfg *config.DaemonConfig) {
	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.publish()
	d.mu.Unlock()

	if keys := restartKeys(old, cfg); keys != "" {
		d.logger.Info("some changes apply after restart", "keys", keys)
		go d.notifier.RestartRequired(keys)
	}

	d.exec.Post(func() {
		d.machine.SetHUDReplacement(cfg.Peek.HUDReplacement)
		d.machine.SetDefaultDuration(cfg.Peek.Duration.Duration())
		d.manager.SetTimings(cfg.Timing.AutoClose.Duration(), cfg.Timing.UnlockDelay.Duration())
	})
	if d.server != nil {
		d.server.SetPeekStyle(transient.PeekStyle(cfg.Peek.Style))
	}
	d.notifier.ConfigReloaded()
}

// setPreferred handles a shared-state change.
func (d *Daemon) setPreferred(id model.DisplayIdentity) {
	d.mu.Lock()
	if d.preferred == id {
		d.mu.Unlock()
		return
	}
	d.preferred = id
	d.publish()
	d.mu.Unlock()

	d.logger.Info("preferred display changed", "identity", id)
}

// publish hands the current preferences to the manager, replacing any
// value not yet consumed. Callers hold mu.
func (d *Daemon) publish() {
	select {
	case <-d.prefsCh:
	default:
	}
	d.prefsCh <- d.cfg.Preferences(d.preferred)
}

// stop runs on the executor before the backend loop exits.
func (d *Daemon) stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("notchd shutting down")
		if d.cancel != nil {
			d.cancel()
		}
		if d.server != nil {
			_ = d.server.Stop()
		}
		if d.monitor != nil {
			_ = d.monitor.Stop()
		}
		d.manager.CloseAll()
		d.machine.Close()
	})
}

// restartKeys lists the changed keys that only take effect at startup.
func restartKeys(old, cfg *config.DaemonConfig) string {
	var keys []string
	if old.Backend.Name != cfg.Backend.Name {
		keys = append(keys, "backend.name")
	}
	if old.Peek.OSDCapture != cfg.Peek.OSDCapture {
		keys = append(keys, "peek.osd_capture")
	}
	if old.Theme != cfg.Theme {
		keys = append(keys, "theme")
	}
	return strings.Join(keys, ", ")
}
