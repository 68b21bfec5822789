package wayland

import (
	"errors"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
)

// ErrNoDisplay is returned before GTK has opened the default display.
var ErrNoDisplay = errors.New("no gdk display available")

// Topology reports GDK monitors. It is attached once the application has
// activated; before that Topology returns ErrNoDisplay.
type Topology struct {
	logger *slog.Logger

	mu       sync.Mutex
	display  *gdk.Display
	monitors map[string]*gdk.Monitor

	changes chan struct{}
}

var _ platform.TopologySource = (*Topology)(nil)

// NewTopology creates a detached topology source.
func NewTopology(logger *slog.Logger) *Topology {
	if logger == nil {
		logger = slog.Default()
	}
	return &Topology{
		logger:   logger,
		monitors: make(map[string]*gdk.Monitor),
		changes:  make(chan struct{}, 1),
	}
}

// attach binds the source to display and watches its monitor list.
// Must run on the main context.
func (t *Topology) attach(display *gdk.Display) {
	t.mu.Lock()
	t.display = display
	t.mu.Unlock()

	monitors := display.Monitors()
	if monitors == nil {
		return
	}
	monitors.ConnectItemsChanged(func(position, removed, added uint) {
		t.logger.Info("monitor configuration changed",
			"count", monitors.NItems(), "removed", removed, "added", added)
		t.notify()
	})
}

func (t *Topology) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// Changes implements platform.TopologySource.
func (t *Topology) Changes() <-chan struct{} {
	return t.changes
}

// Topology implements platform.TopologySource. Must run on the main context.
func (t *Topology) Topology() (model.Topology, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.display == nil {
		return model.Topology{}, ErrNoDisplay
	}
	list := t.display.Monitors()
	if list == nil {
		return model.Topology{}, nil
	}

	t.monitors = make(map[string]*gdk.Monitor, list.NItems())
	var topo model.Topology
	for i := uint(0); i < list.NItems(); i++ {
		mon := wrapMonitor(list.Item(i))
		if mon == nil {
			continue
		}
		d := displayFromMonitor(mon, int(i))
		// GTK4 has no primary monitor; the compositor lists it first.
		d.Primary = i == 0
		t.monitors[d.Handle] = mon
		topo.Displays = append(topo.Displays, d)
	}
	return topo, nil
}

// monitor returns the GDK monitor behind handle from the last snapshot.
func (t *Topology) monitor(handle string) (*gdk.Monitor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mon, ok := t.monitors[handle]
	return mon, ok
}

func displayFromMonitor(mon *gdk.Monitor, index int) model.Display {
	geom := mon.Geometry()
	return monitorInfo{
		Connector:    mon.Connector(),
		Manufacturer: mon.Manufacturer(),
		Model:        mon.Model(),
		Description:  mon.Description(),
		Bounds: model.Rect{
			X:      geom.X(),
			Y:      geom.Y(),
			Width:  geom.Width(),
			Height: geom.Height(),
		},
	}.display(index)
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// This is necessary because gotk4 doesn't expose the wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// The gdk.Monitor struct embeds a *glib.Object, so we can create one by
	// casting the native pointer. This is how gotk4 does it internally.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
