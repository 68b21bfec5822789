package model

import (
	"fmt"
	"strings"
	"time"
)

// PeekKind identifies what a transient overlay is showing.
type PeekKind string

const (
	PeekMusic      PeekKind = "music"
	PeekBrightness PeekKind = "brightness"
	PeekVolume     PeekKind = "volume"
	PeekBacklight  PeekKind = "backlight"
	PeekMic        PeekKind = "mic"
	PeekBattery    PeekKind = "battery"
	PeekDownload   PeekKind = "download"
	PeekUnknown    PeekKind = "unknown"
)

// DefaultPeekKind is the kind a peek resets to when it expires or is cleared.
const DefaultPeekKind = PeekMusic

// ValidPeekKinds returns all known peek kinds.
func ValidPeekKinds() []PeekKind {
	return []PeekKind{
		PeekMusic, PeekBrightness, PeekVolume, PeekBacklight,
		PeekMic, PeekBattery, PeekDownload, PeekUnknown,
	}
}

// ParsePeekKind parses a kind name. Unknown names return false.
func ParsePeekKind(s string) (PeekKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range ValidPeekKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// PeekState is the process-wide short-lived overlay.
// The instance always exists; only its fields change.
type PeekState struct {
	Kind      PeekKind  `json:"kind" yaml:"kind"`
	Visible   bool      `json:"visible" yaml:"visible"`
	Value     float64   `json:"value" yaml:"value"`
	Icon      string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// ShowsMediaOrBattery reports whether the peek renders the media/battery layout.
func (p PeekState) ShowsMediaOrBattery() bool {
	return p.Kind == PeekMusic || p.Kind == PeekBattery
}

// ExpandedState is the process-wide expanded overlay. It never expires on its own.
type ExpandedState struct {
	Kind    PeekKind `json:"kind" yaml:"kind"`
	Visible bool     `json:"visible" yaml:"visible"`
	Value   float64  `json:"value" yaml:"value"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// ViewState is the open/closed state of one surface.
type ViewState int

const (
	ViewClosed ViewState = iota
	ViewOpen
)

// String returns the string representation of ViewState.
func (v ViewState) String() string {
	if v == ViewOpen {
		return "open"
	}
	return "closed"
}

// MarshalText implements encoding.TextMarshaler.
func (v ViewState) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ViewState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open":
		*v = ViewOpen
	case "closed":
		*v = ViewClosed
	default:
		return fmt.Errorf("invalid view state %q", text)
	}
	return nil
}

// Tab is a page of the open surface.
type Tab string

const (
	TabHome     Tab = "home"
	TabCalendar Tab = "calendar"
	TabShelf    Tab = "shelf"
)

// Tabs returns the tabs in display order.
func Tabs() []Tab {
	return []Tab{TabHome, TabCalendar, TabShelf}
}

// ParseTab parses a tab name.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs() {
		if string(t) == strings.ToLower(s) {
			return t, true
		}
	}
	return "", false
}

// Next returns the following tab, wrapping from the last to the first.
func (t Tab) Next() Tab {
	tabs := Tabs()
	return tabs[(t.index()+1)%len(tabs)]
}

// Prev returns the preceding tab, wrapping from the first to the last.
func (t Tab) Prev() Tab {
	tabs := Tabs()
	return tabs[(t.index()+len(tabs)-1)%len(tabs)]
}

func (t Tab) index() int {
	for i, tab := range Tabs() {
		if tab == t {
			return i
		}
	}
	return 0
}

// SurfaceView is everything a window needs to draw one surface.
type SurfaceView struct {
	Identity DisplayIdentity
	State    ViewState
	Tab      Tab
	Peek     PeekState
	Expanded ExpandedState
	Locked   bool
}
