package dbus

import (
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	// NotificationsInterface is the freedesktop notification interface name.
	NotificationsInterface = "org.freedesktop.Notifications"
	// NotificationsPath is the freedesktop notification object path.
	NotificationsPath = "/org/freedesktop/Notifications"
	// OwnDesktopEntry is the desktop-entry hint on notchd's own notifications.
	OwnDesktopEntry = "notchd"
)

// DBusNotification represents an org.freedesktop.Notifications.Notify call,
// either observed on the bus or sent by notchd itself.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NotificationHandler is called for every observed Notify call.
type NotificationHandler func(notification *DBusNotification)

// Urgency levels of the urgency hint.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Urgency extracts the urgency hint. Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// SynchronousTag extracts the tag OSD tools use to replace their previous
// bubble in place. Both the canonical and the dunst spelling are honoured.
func (n *DBusNotification) SynchronousTag() string {
	if s := n.stringHint("x-canonical-private-synchronous"); s != "" {
		return s
	}
	if s := n.stringHint("synchronous"); s != "" {
		return s
	}
	return n.stringHint("x-dunst-stack-tag")
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// HasValue reports whether a value hint is present, whatever its type.
func (n *DBusNotification) HasValue() bool {
	_, ok := n.Hints["value"]
	return ok
}

// Value reads the value hint (0-100 by convention). Integer and float types
// are accepted, as are decimal strings. Anything else yields 0.
func (n *DBusNotification) Value() float64 {
	v, ok := n.Hints["value"]
	if !ok {
		return 0
	}
	switch val := v.Value().(type) {
	case int32:
		return float64(val)
	case uint32:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case int16:
		return float64(val)
	case uint16:
		return float64(val)
	case byte:
		return float64(val)
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// body returns the Notify argument list for this notification.
func (n *DBusNotification) body() []any {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	return []any{
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, hints, n.ExpireTimeout,
	}
}

// parseNotify decodes the arguments of a Notify method call.
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
func parseNotify(body []any) (*DBusNotification, bool) {
	if len(body) < 8 {
		return nil, false
	}
	n := &DBusNotification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, false
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, false
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, false
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, false
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, false
	}
	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}
	return n, true
}
