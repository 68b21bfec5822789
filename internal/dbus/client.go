package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/model"
)

// ErrDaemonNotRunning is returned when the control service has no owner.
var ErrDaemonNotRunning = errors.New("notchd is not running")

// Client calls the notchd control service.
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	timeout time.Duration
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn:    conn,
		obj:     conn.Object(ControlBusName, ControlPath),
		timeout: 10 * time.Second,
	}, nil
}

func (c *Client) call(method string, args ...any) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	call := c.obj.CallWithContext(ctx, ControlInterface+"."+method, 0, args...)
	if call.Err != nil {
		call.Err = translate(call.Err)
	}
	return call
}

func translate(err error) error {
	name, body, ok := busError(err)
	if !ok {
		return err
	}
	switch name {
	case "org.freedesktop.DBus.Error.ServiceUnknown", "org.freedesktop.DBus.Error.NameHasNoOwner":
		return ErrDaemonNotRunning
	}
	if len(body) > 0 {
		if msg, ok := body[0].(string); ok {
			return errors.New(msg)
		}
	}
	return err
}

func busError(err error) (string, []any, bool) {
	var v dbus.Error
	if errors.As(err, &v) {
		return v.Name, v.Body, true
	}
	var p *dbus.Error
	if errors.As(err, &p) && p != nil {
		return p.Name, p.Body, true
	}
	return "", nil, false
}

// Toggle toggles the surface under the pointer.
func (c *Client) Toggle() (model.DisplayIdentity, error) {
	var id string
	if err := c.call("Toggle").Store(&id); err != nil {
		return "", err
	}
	return model.DisplayIdentity(id), nil
}

// ToggleAt toggles the surface at a global position.
func (c *Client) ToggleAt(p model.Point) (model.DisplayIdentity, error) {
	var id string
	if err := c.call("ToggleAt", int32(p.X), int32(p.Y)).Store(&id); err != nil {
		return "", err
	}
	return model.DisplayIdentity(id), nil
}

// Peek shows a peek.
func (c *Client) Peek(kind model.PeekKind, value float64, icon string, d time.Duration) (bool, error) {
	var shown bool
	err := c.call("Peek", string(kind), value, icon, int32(d/time.Millisecond)).Store(&shown)
	return shown, err
}

// PeekPayload sends a raw JSON payload.
func (c *Client) PeekPayload(payload string) (bool, error) {
	var applied bool
	err := c.call("PeekPayload", payload).Store(&applied)
	return applied, err
}

// ClearPeek hides the peek.
func (c *Client) ClearPeek() error {
	return c.call("ClearPeek").Err
}

// TogglePeek runs the peek shortcut.
func (c *Client) TogglePeek() error {
	return c.call("TogglePeek").Err
}

// Expand sets the expanded overlay.
func (c *Client) Expand(kind model.PeekKind, show bool, value float64, source string) error {
	return c.call("Expand", string(kind), show, value, source).Err
}

// ToggleExpanded flips the expanded overlay.
func (c *Client) ToggleExpanded(kind model.PeekKind) error {
	return c.call("ToggleExpanded", string(kind)).Err
}

// SetTab selects a tab.
func (c *Client) SetTab(tab model.Tab) error {
	return c.call("SetTab", string(tab)).Err
}

// Reconcile asks the daemon to re-read the topology.
func (c *Client) Reconcile() error {
	return c.call("Reconcile").Err
}

// Status fetches and decodes the daemon status.
func (c *Client) Status() (*StatusReply, error) {
	var raw string
	if err := c.call("Status").Store(&raw); err != nil {
		return nil, err
	}
	var reply StatusReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &reply, nil
}
