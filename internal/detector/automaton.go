// Package detector turns continuous gesture deltas into discrete,
// once-per-gesture triggers.
package detector

import (
	"github.com/jmylchreest/notchd/internal/model"
)

// State is the automaton's position within a gesture.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateFired
	// StateMomentum is entered when inertial events arrive; they never count
	// toward the threshold.
	StateMomentum
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFired:
		return "fired"
	case StateMomentum:
		return "momentum"
	default:
		return "unknown"
	}
}

// Direction is the sign of a fired gesture.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionPositive
	DirectionNegative
)

// Automaton sums deltas of one continuous gesture and fires at most once
// until the gesture ends.
type Automaton struct {
	// Positive fires when the sum exceeds it. Zero disables the direction.
	Positive float64
	// Negative fires when the sum drops below -Negative. Zero disables it.
	Negative float64

	state State
	sum   float64
}

// NewAutomaton returns an automaton firing at the same magnitude both ways.
func NewAutomaton(threshold float64) *Automaton {
	return &Automaton{Positive: threshold, Negative: threshold}
}

// Feed advances the automaton with one event whose relevant-axis delta is
// delta. It returns the direction fired, or DirectionNone.
func (a *Automaton) Feed(ev model.GestureEvent, delta float64) Direction {
	if ev.Momentum {
		if ev.Ends() {
			a.Reset()
			return DirectionNone
		}
		if a.state != StateFired {
			a.state = StateMomentum
			a.sum = 0
		}
		return DirectionNone
	}

	if ev.Ends() {
		a.Reset()
		return DirectionNone
	}

	switch a.state {
	case StateFired:
		return DirectionNone
	case StateIdle, StateMomentum:
		a.state = StateAccumulating
		a.sum = 0
	}

	if ev.Phase == model.GestureBegin && delta == 0 {
		return DirectionNone
	}

	a.sum += delta
	switch {
	case a.Positive > 0 && a.sum > a.Positive:
		a.state = StateFired
		return DirectionPositive
	case a.Negative > 0 && a.sum < -a.Negative:
		a.state = StateFired
		return DirectionNegative
	}
	return DirectionNone
}

// Reset returns to idle.
func (a *Automaton) Reset() {
	a.state = StateIdle
	a.sum = 0
}

// State returns the current state.
func (a *Automaton) State() State { return a.state }

// Sum returns the accumulated delta of the current gesture.
func (a *Automaton) Sum() float64 { return a.sum }
