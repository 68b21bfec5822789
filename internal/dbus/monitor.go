package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Monitor passively observes D-Bus notification traffic without claiming
// ownership, so it runs alongside whatever notification daemon is installed.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify NotificationHandler
}

// NewMonitor creates a new notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetOSDHandler routes OSD notifications to fn and ignores the rest. fn
// is called from the monitor goroutine.
func (m *Monitor) SetOSDHandler(fn func(OSDRequest)) {
	m.onNotify = func(n *DBusNotification) {
		if req, ok := OSDFromNotification(n); ok {
			m.logger.Debug("captured OSD notification",
				"app", n.AppName, "kind", req.Kind, "value", req.Value)
			fn(req)
		}
	}
}

// Start begins monitoring the session bus for Notify calls.
func (m *Monitor) Start() error {
	// A monitor connection cannot be used for anything else, so it must
	// not be the shared session bus connection.
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	rules := []string{
		"type='method_call',interface='" + NotificationsInterface + "',member='Notify'",
	}

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor",
		0,
		rules,
		uint32(0),
	).Err
	if err != nil {
		// Older buses only support eavesdropping match rules.
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		return m.startWithAddMatch()
	}

	m.logger.Info("started D-Bus monitor using BecomeMonitor")
	go m.processMessages()
	return nil
}

// startWithAddMatch uses the older AddMatch API for eavesdropping.
func (m *Monitor) startWithAddMatch() error {
	matchRule := "type='method_call',interface='" + NotificationsInterface + "',member='Notify',eavesdrop='true'"

	err := m.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch",
		0,
		matchRule,
	).Err
	if err != nil {
		return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
	}

	m.logger.Info("started D-Bus monitor using AddMatch with eavesdrop")
	go m.processMessages()
	return nil
}

// processMessages reads and processes D-Bus messages.
func (m *Monitor) processMessages() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		m.handleMessage(msg)
	}
}

func (m *Monitor) handleMessage(msg *dbus.Message) {
	if msg.Type != dbus.TypeMethodCall {
		return
	}
	if iface, ok := msg.Headers[dbus.FieldInterface]; !ok || iface.Value() != NotificationsInterface {
		return
	}
	if member, ok := msg.Headers[dbus.FieldMember]; !ok || member.Value() != "Notify" {
		return
	}

	n, ok := parseNotify(msg.Body)
	if !ok {
		m.logger.Warn("malformed Notify call", "body_len", len(msg.Body))
		return
	}
	if m.onNotify != nil {
		m.onNotify(n)
	}
}

// Stop stops the monitor.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
