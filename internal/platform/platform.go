// Package platform defines the window-system collaborators the surface
// manager depends on. Backends live in subpackages.
package platform

import (
	"context"
	"errors"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// ErrUnsupported is returned for operations a backend cannot perform, such as
// reading the global pointer position under Wayland.
var ErrUnsupported = errors.New("unsupported by backend")

// TopologySource reports the active displays.
type TopologySource interface {
	// Topology returns the current snapshot.
	Topology() (model.Topology, error)
	// Changes delivers a notification whenever the topology may have changed.
	// Notifications carry no payload and may be coalesced.
	Changes() <-chan struct{}
}

// WindowOptions are the style flags for a surface window.
type WindowOptions struct {
	Identity model.DisplayIdentity
	// Title is used where the backend exposes one (WM_NAME, layer namespace).
	Title string
	// Privacy starts the window in lock-screen rendering mode.
	Privacy bool
	// Hidden starts the window fully transparent.
	Hidden bool
}

// WindowProvider allocates surface windows. Calls happen on the executor.
type WindowProvider interface {
	NewWindow(display model.Display, rect model.Rect, opts WindowOptions) (Window, error)
}

// Window is one allocated surface window. All methods run on the executor.
type Window interface {
	Reposition(rect model.Rect)
	Show()
	Close()
	SetAlpha(alpha float64)
	SetPrivacyMode(enabled bool)
	Render(view model.SurfaceView)
	// Subscribe delivers gesture events over the window. fn may be called
	// from any goroutine. The returned function stops delivery.
	Subscribe(fn func(model.GestureEvent)) (cancel func())
}

// PointerLocator reads the global pointer position.
type PointerLocator interface {
	PointerLocation() (model.Point, error)
}

// Lifecycle hooks are called by Backend.Run on the executor.
type Lifecycle struct {
	// Started runs once the window system is usable.
	Started func()
	// Stopping runs before the event loop exits, whatever the reason.
	Stopping func()
}

// Backend bundles the collaborators of one window system.
type Backend interface {
	Name() string
	Executor() sched.Executor
	Topology() TopologySource
	Windows() WindowProvider
	Pointer() PointerLocator
	// Run blocks running the backend's event loop until ctx is done or the
	// loop exits on its own. Some toolkits require it on the main goroutine.
	Run(ctx context.Context, lc Lifecycle) error
	Close() error
}

// NoPointer is a PointerLocator for backends without global pointer access.
type NoPointer struct{}

// PointerLocation always returns ErrUnsupported.
func (NoPointer) PointerLocation() (model.Point, error) {
	return model.Point{}, ErrUnsupported
}
