package dbus

import (
	"strings"

	"github.com/jmylchreest/notchd/internal/model"
)

// OSDRequest is a peek derived from an on-screen-display notification.
type OSDRequest struct {
	Kind  model.PeekKind
	Value float64 // 0..1
	Icon  string
}

// osdKinds maps category and tag fragments to peek kinds. Order matters:
// the first match wins.
var osdKinds = []struct {
	fragment string
	kind     model.PeekKind
}{
	{"volume", model.PeekVolume},
	{"audio", model.PeekVolume},
	{"brightness", model.PeekBrightness},
	{"backlight", model.PeekBacklight},
	{"kbd", model.PeekBacklight},
	{"keyboard", model.PeekBacklight},
	{"mic", model.PeekMic},
	{"battery", model.PeekBattery},
	{"power", model.PeekBattery},
	{"download", model.PeekDownload},
	{"transfer", model.PeekDownload},
}

// OSDFromNotification decides whether n is an OSD bubble and, if so, which
// peek it maps to. A notification qualifies when it carries a value hint and
// either a synchronous tag or a recognised category. Critical notifications
// and notchd's own never qualify. A malformed value becomes 0; the peek is
// still shown.
func OSDFromNotification(n *DBusNotification) (OSDRequest, bool) {
	if n == nil || !n.HasValue() {
		return OSDRequest{}, false
	}
	if n.Urgency() == UrgencyCritical || n.DesktopEntry() == OwnDesktopEntry {
		return OSDRequest{}, false
	}

	category := strings.ToLower(n.Category())
	kind, fromCategory := matchKind(category)
	tag := strings.ToLower(n.SynchronousTag())
	if !fromCategory {
		if tag == "" {
			return OSDRequest{}, false
		}
		var ok bool
		if kind, ok = matchKind(tag); !ok {
			if kind, ok = matchKind(strings.ToLower(n.AppIcon)); !ok {
				kind = model.PeekUnknown
			}
		}
	}

	return OSDRequest{
		Kind:  kind,
		Value: clamp01(n.Value() / 100),
		Icon:  n.AppIcon,
	}, true
}

func matchKind(s string) (model.PeekKind, bool) {
	if s == "" {
		return "", false
	}
	for _, k := range osdKinds {
		if strings.Contains(s, k.fragment) {
			return k.kind, true
		}
	}
	return "", false
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
