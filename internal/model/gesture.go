package model

// GesturePhase is the phase of a continuous pointer gesture.
type GesturePhase int

const (
	GestureBegin GesturePhase = iota
	GestureChange
	GestureEnd
	GestureCancel
)

// String returns the string representation of GesturePhase.
func (p GesturePhase) String() string {
	switch p {
	case GestureBegin:
		return "begin"
	case GestureChange:
		return "change"
	case GestureEnd:
		return "end"
	case GestureCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// GestureEvent is one positional delta from a pointer or touchpad.
type GestureEvent struct {
	Phase GesturePhase

	// Momentum is set for inertial events delivered after lift-off.
	Momentum bool

	// Position is the pointer location in global coordinates, if known.
	Position    Point
	HasPosition bool

	DX float64
	DY float64
}

// Ends reports whether the event terminates the gesture.
func (e GestureEvent) Ends() bool {
	return e.Phase == GestureEnd || e.Phase == GestureCancel
}
