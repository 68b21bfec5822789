package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/transient"
)

const (
	// ControlInterface is the notchd control interface name.
	ControlInterface = "io.github.jmylchreest.Notchd"
	// ControlPath is the notchd control object path.
	ControlPath = "/io/github/jmylchreest/Notchd"
	// ControlBusName is the bus name claimed by the daemon.
	ControlBusName = "io.github.jmylchreest.Notchd"
)

// callTimeout bounds how long a bus method waits for the executor.
const callTimeout = 5 * time.Second

// ServerOptions configures a ControlServer.
type ServerOptions struct {
	Executor  sched.Executor
	Manager   *display.Manager
	Transient *transient.Machine
	PeekStyle transient.PeekStyle
	Logger    *slog.Logger
}

// ControlServer exports the notchd control interface. Every method hops onto
// the executor and waits for the result.
type ControlServer struct {
	conn      *dbus.Conn
	exec      sched.Executor
	manager   *display.Manager
	transient *transient.Machine
	logger    *slog.Logger
	timeout   time.Duration

	mu        sync.RWMutex
	peekStyle transient.PeekStyle
	running   bool
}

// StatusReply is the JSON document returned by Status.
type StatusReply struct {
	display.Status `yaml:",inline"`
	PeekStyle      transient.PeekStyle `json:"peek_style" yaml:"peek_style"`
}

// NewControlServer creates a server. It does not touch the bus until Start.
func NewControlServer(opts ServerOptions) *ControlServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	style := opts.PeekStyle
	if style == "" {
		style = transient.PeekStyleStandard
	}
	return &ControlServer{
		exec:      opts.Executor,
		manager:   opts.Manager,
		transient: opts.Transient,
		logger:    logger,
		timeout:   callTimeout,
		peekStyle: style,
	}
}

// SetPeekStyle changes the style used by TogglePeek. Safe from any goroutine.
func (s *ControlServer) SetPeekStyle(style transient.PeekStyle) {
	s.mu.Lock()
	s.peekStyle = style
	s.mu.Unlock()
}

func (s *ControlServer) style() transient.PeekStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peekStyle
}

// Start connects to the session bus, exports the object and claims the name.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken (is notchd already running?)", ControlBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control server started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the bus name and unexports the object.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(ControlBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		_ = s.conn.Export(nil, ControlPath, ControlInterface)
		// The session bus connection is shared; leave it open.
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

type callResult[T any] struct {
	value T
	err   error
}

// call runs fn on the executor and converts its error for the bus. The
// result travels over a channel owned by the posted closure, so a call that
// times out leaves nothing behind for the executor to write into later.
func call[T any](s *ControlServer, method string, fn func() (T, error)) (T, *dbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var zero T
	out := make(chan callResult[T], 1)
	if err := sched.Call(ctx, s.exec, func() {
		v, err := fn()
		out <- callResult[T]{v, err}
	}); err != nil {
		s.logger.Debug("control call failed", "method", method, "error", err)
		return zero, dbus.MakeFailedError(fmt.Errorf("executor: %w", err))
	}

	r := <-out
	if r.err != nil {
		s.logger.Debug("control call failed", "method", method, "error", r.err)
		return zero, dbus.MakeFailedError(r.err)
	}
	return r.value, nil
}

// do is call for methods without a result.
func (s *ControlServer) do(method string, fn func() error) *dbus.Error {
	_, derr := call(s, method, func() (struct{}, error) { return struct{}{}, fn() })
	return derr
}

// Toggle toggles the surface under the pointer, or on the preferred display
// when the backend cannot see the pointer.
// D-Bus method: Toggle() -> s
func (s *ControlServer) Toggle() (string, *dbus.Error) {
	id, derr := call(s, "Toggle", s.manager.ToggleAtPointer)
	return string(id), derr
}

// ToggleAt toggles the surface of the display containing (x, y).
// D-Bus method: ToggleAt(ii) -> s
func (s *ControlServer) ToggleAt(x, y int32) (string, *dbus.Error) {
	id, derr := call(s, "ToggleAt", func() (model.DisplayIdentity, error) {
		return s.manager.ToggleSurfaceUnderPointer(model.Point{X: int(x), Y: int(y)})
	})
	return string(id), derr
}

// Peek shows a peek. durationMs <= 0 uses the configured duration. The
// result is false when the request was ignored (HUD replacement disabled).
// D-Bus method: Peek(sdsi) -> b
func (s *ControlServer) Peek(kind string, value float64, icon string, durationMs int32) (bool, *dbus.Error) {
	k, ok := model.ParsePeekKind(kind)
	if !ok {
		return false, dbus.MakeFailedError(fmt.Errorf("unknown peek kind %q", kind))
	}
	return call(s, "Peek", func() (bool, error) {
		return s.transient.SetPeek(k, value, icon, time.Duration(durationMs)*time.Millisecond), nil
	})
}

// PeekPayload applies a JSON payload {"show","type","value","icon"}.
// D-Bus method: PeekPayload(s) -> b
func (s *ControlServer) PeekPayload(payload string) (bool, *dbus.Error) {
	p, err := transient.ParsePayload([]byte(payload))
	if err != nil {
		return false, dbus.MakeFailedError(err)
	}
	return call(s, "PeekPayload", func() (bool, error) {
		return s.transient.Apply(p), nil
	})
}

// ClearPeek hides the current peek.
// D-Bus method: ClearPeek()
func (s *ControlServer) ClearPeek() *dbus.Error {
	return s.do("ClearPeek", func() error {
		s.transient.ClearPeek()
		return nil
	})
}

// TogglePeek runs the peek shortcut with the configured style.
// D-Bus method: TogglePeek()
func (s *ControlServer) TogglePeek() *dbus.Error {
	style := s.style()
	return s.do("TogglePeek", func() error {
		s.transient.TogglePeekShortcut(style)
		return nil
	})
}

// Expand sets the expanded overlay.
// D-Bus method: Expand(sbds)
func (s *ControlServer) Expand(kind string, show bool, value float64, source string) *dbus.Error {
	k, ok := model.ParsePeekKind(kind)
	if !ok {
		return dbus.MakeFailedError(fmt.Errorf("unknown kind %q", kind))
	}
	return s.do("Expand", func() error {
		s.transient.SetExpanded(k, show, value, source)
		return nil
	})
}

// ToggleExpanded flips the expanded overlay for kind.
// D-Bus method: ToggleExpanded(s)
func (s *ControlServer) ToggleExpanded(kind string) *dbus.Error {
	k, ok := model.ParsePeekKind(kind)
	if !ok {
		return dbus.MakeFailedError(fmt.Errorf("unknown kind %q", kind))
	}
	return s.do("ToggleExpanded", func() error {
		s.transient.ToggleExpanded(k)
		return nil
	})
}

// SetTab selects the tab shown by every surface.
// D-Bus method: SetTab(s)
func (s *ControlServer) SetTab(name string) *dbus.Error {
	tab, ok := model.ParseTab(name)
	if !ok {
		return dbus.MakeFailedError(fmt.Errorf("unknown tab %q", name))
	}
	return s.do("SetTab", func() error {
		s.manager.SetTab(tab)
		return nil
	})
}

// Reconcile re-reads the display topology and reconciles surfaces.
// D-Bus method: Reconcile()
func (s *ControlServer) Reconcile() *dbus.Error {
	return s.do("Reconcile", func() error {
		s.manager.ReconcileNow()
		return nil
	})
}

// Status returns the manager snapshot as JSON.
// D-Bus method: Status() -> s
func (s *ControlServer) Status() (string, *dbus.Error) {
	st, derr := call(s, "Status", func() (display.Status, error) {
		return s.manager.Snapshot(), nil
	})
	if derr != nil {
		return "", derr
	}
	data, err := json.Marshal(StatusReply{Status: st, PeekStyle: s.style()})
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	out := func(name, typ string) introspect.Arg {
		return introspect.Arg{Name: name, Type: typ, Direction: "out"}
	}
	in := func(name, typ string) introspect.Arg {
		return introspect.Arg{Name: name, Type: typ, Direction: "in"}
	}
	return []introspect.Method{
		{Name: "Toggle", Args: []introspect.Arg{out("identity", "s")}},
		{Name: "ToggleAt", Args: []introspect.Arg{in("x", "i"), in("y", "i"), out("identity", "s")}},
		{Name: "Peek", Args: []introspect.Arg{
			in("kind", "s"), in("value", "d"), in("icon", "s"), in("duration_ms", "i"), out("shown", "b"),
		}},
		{Name: "PeekPayload", Args: []introspect.Arg{in("payload", "s"), out("applied", "b")}},
		{Name: "ClearPeek"},
		{Name: "TogglePeek"},
		{Name: "Expand", Args: []introspect.Arg{
			in("kind", "s"), in("show", "b"), in("value", "d"), in("source", "s"),
		}},
		{Name: "ToggleExpanded", Args: []introspect.Arg{in("kind", "s")}},
		{Name: "SetTab", Args: []introspect.Arg{in("tab", "s")}},
		{Name: "Reconcile"},
		{Name: "Status", Args: []introspect.Arg{out("status", "s")}},
	}
}
