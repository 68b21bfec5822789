package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Sender posts notifications to whichever notification daemon owns
// org.freedesktop.Notifications.
type Sender struct {
	conn *dbus.Conn
}

// NewSender connects to the session bus.
func NewSender() (*Sender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Sender{conn: conn}, nil
}

// Send calls Notify and returns the server-assigned id.
func (s *Sender) Send(n *DBusNotification) (uint32, error) {
	obj := s.conn.Object(NotificationsInterface, NotificationsPath)
	var id uint32
	if err := obj.Call(NotificationsInterface+".Notify", 0, n.body()...).Store(&id); err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}
	return id, nil
}
