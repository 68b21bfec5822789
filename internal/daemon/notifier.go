package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// notice is a daemon event the user should see even without a terminal.
type notice struct {
	key     string
	summary string
	icon    string
	urgency byte
}

var (
	noticeConfigReloaded = notice{"config-reload", "Configuration reloaded", "dialog-information", dbus.UrgencyLow}
	noticeConfigError    = notice{"config-error", "Configuration error", "dialog-warning", dbus.UrgencyNormal}
	noticeRestart        = notice{"restart", "Restart required", "dialog-information", dbus.UrgencyLow}
	noticeNoDisplay      = notice{"no-display", "No display available", "dialog-warning", dbus.UrgencyNormal}
	noticeControlTaken   = notice{"control-taken", "Control service unavailable", "dialog-error", dbus.UrgencyCritical}
)

// defaultNoticeInterval is how long a notice key stays quiet after firing.
const defaultNoticeInterval = 5 * time.Second

// InternalNotifier posts desktop notifications about notchd itself. Each
// notice key is rate limited so a flapping config file does not flood the
// notification daemon.
type InternalNotifier struct {
	logger   *slog.Logger
	now      func() time.Time
	interval time.Duration

	mu   sync.Mutex
	send func(*dbus.DBusNotification) (uint32, error)
	last map[string]time.Time
}

// NewInternalNotifier returns a notifier with no sender. Until
// SetSender is called notices are only logged.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:   logger,
		now:      time.Now,
		interval: defaultNoticeInterval,
		last:     make(map[string]time.Time),
	}
}

// SetSender sets the delivery function, normally dbus.Sender.Send.
func (n *InternalNotifier) SetSender(send func(*dbus.DBusNotification) (uint32, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

func (n *InternalNotifier) post(nt notice, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.send == nil {
		n.logger.Debug("internal notification skipped: no sender", "key", nt.key)
		return
	}

	now := n.now()
	if last, ok := n.last[nt.key]; ok && now.Sub(last) < n.interval {
		n.logger.Debug("internal notification rate-limited", "key", nt.key)
		return
	}
	n.last[nt.key] = now

	msg := &dbus.DBusNotification{
		AppName: "notchd",
		AppIcon: nt.icon,
		Summary: nt.summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(nt.urgency),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant(dbus.OwnDesktopEntry),
		},
		ExpireTimeout: 5000,
	}
	if _, err := n.send(msg); err != nil {
		n.logger.Warn("failed to send internal notification", "key", nt.key, "error", err)
	}
}

// ConfigReloaded reports a successful configuration reload.
func (n *InternalNotifier) ConfigReloaded() {
	n.post(noticeConfigReloaded, "notchd picked up the new configuration.")
}

// ConfigError reports a configuration file that failed to load. The
// previous configuration stays in force.
func (n *InternalNotifier) ConfigError(err error) {
	n.post(noticeConfigError, "Keeping the previous configuration: "+err.Error())
}

// RestartRequired reports reloaded keys that only apply at startup.
func (n *InternalNotifier) RestartRequired(keys string) {
	n.post(noticeRestart, "Restart notchd to apply "+keys+".")
}

// NoDisplay reports that no display can host a surface.
func (n *InternalNotifier) NoDisplay() {
	n.post(noticeNoDisplay, "notchd could not find a display to show the notch on.")
}

// ControlUnavailable reports that the control bus name could not be taken.
func (n *InternalNotifier) ControlUnavailable(err error) {
	n.post(noticeControlTaken, "notch commands will not reach this daemon: "+err.Error())
}
