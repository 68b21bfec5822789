package model

// DisplayIdentity is the stable key for one physical display.
// It is derived from hardware identity and survives reconnects and reboots.
type DisplayIdentity string

// Display describes one active physical display as reported by the platform.
type Display struct {
	// Handle is the platform's volatile key (connector name, RandR output id).
	// It is only valid within the topology snapshot that produced it.
	Handle string `json:"handle" yaml:"handle"`

	// Name is the user-facing name (e.g. "DP-1" or "Dell U2720Q").
	Name string `json:"name" yaml:"name"`

	Bounds  Rect `json:"bounds" yaml:"bounds"`
	Primary bool `json:"primary" yaml:"primary"`

	// Hardware identification used to derive a DisplayIdentity.
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Serial       string `json:"serial,omitempty" yaml:"serial,omitempty"`
	EDID         []byte `json:"-" yaml:"-"`
}

// Topology is an ordered snapshot of the active displays.
// A new snapshot replaces the previous one wholesale; snapshots are never mutated.
type Topology struct {
	Displays []Display `json:"displays" yaml:"displays"`
}

// Primary returns the display flagged as primary, falling back to the first display.
func (t Topology) Primary() (Display, bool) {
	for _, d := range t.Displays {
		if d.Primary {
			return d, true
		}
	}
	if len(t.Displays) > 0 {
		return t.Displays[0], true
	}
	return Display{}, false
}

// At returns the display whose bounds contain p.
func (t Topology) At(p Point) (Display, bool) {
	for _, d := range t.Displays {
		if d.Bounds.Contains(p) {
			return d, true
		}
	}
	return Display{}, false
}

// ByHandle returns the display with the given platform handle.
func (t Topology) ByHandle(handle string) (Display, bool) {
	for _, d := range t.Displays {
		if d.Handle == handle {
			return d, true
		}
	}
	return Display{}, false
}

// LockState is the session lock state.
type LockState int

const (
	// Unlocked is the normal interactive session state.
	Unlocked LockState = iota
	// Locked means the session lock screen is active.
	Locked
)

// String returns the string representation of LockState.
func (s LockState) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// LockEvent is delivered by a lock-state source.
type LockEvent struct {
	State  LockState
	Source string // "logind", "screensaver"
}

// Preferences is the subset of user settings that drives reconciliation.
type Preferences struct {
	ShowOnAllDisplays bool
	RegionDetection   bool
	ShowOnLockScreen  bool

	// PreferredDisplay is used when ShowOnAllDisplays is false.
	// Empty means the OS primary display.
	PreferredDisplay DisplayIdentity

	// Open surface footprint; the window adds ShadowPadding to the height.
	SurfaceSize   Size
	ShadowPadding int

	DetectionThreshold float64
	SwipeThreshold     float64
}

// WindowSize returns the size of the surface window resource.
func (p Preferences) WindowSize() Size {
	return Size{Width: p.SurfaceSize.Width, Height: p.SurfaceSize.Height + p.ShadowPadding}
}
