package wayland

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/notchd/internal/model"
)

// monitorInfo is the subset of a GDK monitor that feeds a model.Display.
type monitorInfo struct {
	Connector    string
	Manufacturer string
	Model        string
	Description  string
	Bounds       model.Rect
}

func (m monitorInfo) display(index int) model.Display {
	handle := m.Connector
	if handle == "" {
		handle = fmt.Sprintf("monitor-%d", index)
	}

	name := strings.TrimSpace(m.Description)
	if name == "" {
		name = strings.TrimSpace(m.Manufacturer + " " + m.Model)
	}
	if name == "" {
		name = handle
	}

	// GDK does not expose serials; identical panels are told apart by the
	// resolver using the connector.
	return model.Display{
		Handle:       handle,
		Name:         name,
		Bounds:       m.Bounds,
		Manufacturer: strings.TrimSpace(m.Manufacturer),
		Model:        strings.TrimSpace(m.Model),
	}
}

// layerMargins converts a global surface rect into top and left margins for a
// layer surface anchored to the top-left corner of its monitor.
func layerMargins(monitor, rect model.Rect) (top, left int) {
	top = rect.Y - monitor.Y
	left = rect.X - monitor.X
	if top < 0 {
		top = 0
	}
	if left < 0 {
		left = 0
	}
	return top, left
}

// viewClasses returns the CSS classes describing a surface view. Themes style
// the notch entirely through these.
func viewClasses(view model.SurfaceView) []string {
	classes := []string{
		"state-" + view.State.String(),
		"tab-" + sanitizeClassName(string(view.Tab)),
	}
	if view.Locked {
		classes = append(classes, "locked")
	}
	if view.Peek.Visible {
		classes = append(classes, "peek-visible", "peek-"+sanitizeClassName(string(view.Peek.Kind)))
		if view.Peek.ShowsMediaOrBattery() {
			classes = append(classes, "peek-media")
		} else {
			classes = append(classes, levelClass(view.Peek.Value))
		}
	}
	if view.Expanded.Visible {
		classes = append(classes, "expanded-visible", "expanded-"+sanitizeClassName(string(view.Expanded.Kind)))
	}
	return classes
}

// levelClass buckets a 0..1 value into a coarse CSS class.
func levelClass(v float64) string {
	switch {
	case v <= 0:
		return "level-off"
	case v < 0.34:
		return "level-low"
	case v < 0.67:
		return "level-medium"
	default:
		return "level-high"
	}
}

// sanitizeClassName converts a string to a valid CSS class name.
// Replaces invalid characters with hyphens and lowercases.
func sanitizeClassName(name string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		} else if r == ' ' || r == '.' {
			result.WriteRune('-')
		}
	}
	return result.String()
}

// peekIconName returns the icon to draw for a peek, preferring the one the
// sender supplied.
func peekIconName(kind model.PeekKind, icon string) string {
	if icon != "" {
		return icon
	}
	switch kind {
	case model.PeekVolume:
		return "audio-volume-high-symbolic"
	case model.PeekBrightness:
		return "display-brightness-symbolic"
	case model.PeekBacklight:
		return "keyboard-brightness-symbolic"
	case model.PeekMic:
		return "audio-input-microphone-symbolic"
	case model.PeekBattery:
		return "battery-good-symbolic"
	case model.PeekDownload:
		return "folder-download-symbolic"
	case model.PeekMusic:
		return "audio-x-generic-symbolic"
	default:
		return "dialog-information-symbolic"
	}
}

func tabTitle(tab model.Tab) string {
	switch tab {
	case model.TabCalendar:
		return "Calendar"
	case model.TabShelf:
		return "Shelf"
	default:
		return "Home"
	}
}
