// Package x11 implements the platform backend for X11 sessions using RandR
// for topology and override-redirect windows for surfaces.
//
// Surface state lives on a sched.Loop; X events are read on a separate
// goroutine by xgbutil's event loop and handed over through the executor.
package x11

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
)

// Name is the backend name used in configuration.
const Name = "x11"

// Backend bundles an X connection with the collaborators built on it.
type Backend struct {
	xu      *xgbutil.XUtil
	loop    *sched.Loop
	topo    *Topology
	windows *windowProvider
	logger  *slog.Logger
}

var _ platform.Backend = (*Backend)(nil)

// New connects to the X server named by $DISPLAY.
func New(logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", Name)

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	topo, err := newTopology(xu, logger)
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}

	return &Backend{
		xu:      xu,
		loop:    sched.NewLoop(logger),
		topo:    topo,
		windows: &windowProvider{xu: xu, logger: logger},
		logger:  logger,
	}, nil
}

// Name implements platform.Backend.
func (b *Backend) Name() string { return Name }

// Executor implements platform.Backend.
func (b *Backend) Executor() sched.Executor { return b.loop }

// Topology implements platform.Backend.
func (b *Backend) Topology() platform.TopologySource { return b.topo }

// Windows implements platform.Backend.
func (b *Backend) Windows() platform.WindowProvider { return b.windows }

// Pointer implements platform.Backend.
func (b *Backend) Pointer() platform.PointerLocator { return b }

// PointerLocation implements platform.PointerLocator.
func (b *Backend) PointerLocation() (model.Point, error) {
	pointer, err := xproto.QueryPointer(b.xu.Conn(), b.xu.RootWin()).Reply()
	if err != nil {
		return model.Point{}, fmt.Errorf("failed to query pointer: %w", err)
	}
	return model.Point{X: int(pointer.RootX), Y: int(pointer.RootY)}, nil
}

// Run implements platform.Backend.
func (b *Backend) Run(ctx context.Context, lc platform.Lifecycle) error {
	b.loop.Start()
	defer b.loop.Stop()

	events := make(chan struct{})
	go func() {
		defer close(events)
		xevent.Main(b.xu)
	}()

	if lc.Started != nil {
		if err := sched.Call(ctx, b.loop, lc.Started); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
	case <-events:
		b.logger.Warn("X event loop exited")
	}

	if lc.Stopping != nil {
		if err := sched.Call(context.Background(), b.loop, lc.Stopping); err != nil {
			b.logger.Warn("stopping hook failed", "error", err)
		}
	}

	xevent.Quit(b.xu)
	return nil
}

// Close implements platform.Backend.
func (b *Backend) Close() error {
	b.xu.Conn().Close()
	return nil
}
