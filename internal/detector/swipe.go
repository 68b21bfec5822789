package detector

import "github.com/jmylchreest/notchd/internal/model"

// DefaultSwipeThreshold is the horizontal distance a swipe must travel.
const DefaultSwipeThreshold = 30

// Swipe classifies horizontal gestures as left or right, once per gesture.
// A positive delta sum is a swipe right.
type Swipe struct {
	automaton *Automaton

	OnLeft  func()
	OnRight func()
}

// NewSwipe creates a classifier with independent right and left thresholds.
// A non-positive threshold falls back to DefaultSwipeThreshold.
func NewSwipe(right, left float64) *Swipe {
	if right <= 0 {
		right = DefaultSwipeThreshold
	}
	if left <= 0 {
		left = DefaultSwipeThreshold
	}
	return &Swipe{automaton: &Automaton{Positive: right, Negative: left}}
}

// Handle feeds one event and returns the direction it fired, if any.
func (s *Swipe) Handle(ev model.GestureEvent) Direction {
	dir := s.automaton.Feed(ev, ev.DX)
	switch dir {
	case DirectionPositive:
		if s.OnRight != nil {
			s.OnRight()
		}
	case DirectionNegative:
		if s.OnLeft != nil {
			s.OnLeft()
		}
	}
	return dir
}

// State returns the automaton state.
func (s *Swipe) State() State { return s.automaton.State() }
