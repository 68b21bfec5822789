// Package transient owns the process-wide peek and expanded overlay state and
// the single expiration timer that hides a peek.
package transient

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// DefaultPeekDuration is used when a peek is requested without a duration.
const DefaultPeekDuration = 1500 * time.Millisecond

// ShortcutPeekDuration is the duration of a peek raised by the toggle shortcut.
const ShortcutPeekDuration = 3 * time.Second

// PeekStyle selects how the peek shortcut presents music.
type PeekStyle string

const (
	PeekStyleStandard PeekStyle = "standard"
	PeekStyleInline   PeekStyle = "inline"
)

// Options configures a Machine.
type Options struct {
	DefaultDuration time.Duration
	HUDReplacement  bool
	Logger          *slog.Logger
}

// State is a copy of the machine's current values.
type State struct {
	Peek      model.PeekState     `json:"peek" yaml:"peek"`
	Expanded  model.ExpandedState `json:"expanded" yaml:"expanded"`
	MicActive bool                `json:"mic_active" yaml:"mic_active"`
}

// Machine holds PeekState and ExpandedState. Every method must be called on
// the executor passed to New.
type Machine struct {
	exec   sched.Executor
	logger *slog.Logger

	defaultDuration time.Duration
	hudReplacement  bool

	peek      model.PeekState
	expanded  model.ExpandedState
	micActive bool
	peekTimer *sched.Timer

	observers map[int]func(State)
	nextObs   int
	closed    bool
}

// New creates a machine with a hidden music peek and a hidden expanded view.
func New(exec sched.Executor, opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := opts.DefaultDuration
	if d <= 0 {
		d = DefaultPeekDuration
	}
	return &Machine{
		exec:            exec,
		logger:          logger,
		defaultDuration: d,
		hudReplacement:  opts.HUDReplacement,
		peek:            model.PeekState{Kind: model.DefaultPeekKind},
		expanded:        model.ExpandedState{Kind: model.DefaultPeekKind},
		observers:       make(map[int]func(State)),
	}
}

// SetHUDReplacement toggles whether non-music peeks are accepted.
func (m *Machine) SetHUDReplacement(enabled bool) {
	m.hudReplacement = enabled
}

// SetDefaultDuration changes the duration used when SetPeek gets zero.
func (m *Machine) SetDefaultDuration(d time.Duration) {
	if d > 0 {
		m.defaultDuration = d
	}
}

// SetPeek shows a peek and (re)arms its expiration timer. The prior timer, if
// any, is cancelled first. It returns false when the request was ignored.
func (m *Machine) SetPeek(kind model.PeekKind, value float64, icon string, duration time.Duration) bool {
	if m.closed {
		return false
	}
	if kind == "" {
		kind = model.DefaultPeekKind
	}
	if kind != model.PeekMusic && !m.hudReplacement {
		m.logger.Debug("peek ignored, hud replacement disabled", "kind", kind)
		return false
	}
	if duration <= 0 {
		duration = m.defaultDuration
	}

	m.peekTimer.Cancel()

	now := m.exec.Now()
	m.peek = model.PeekState{
		Kind:      kind,
		Visible:   true,
		Value:     value,
		Icon:      icon,
		ExpiresAt: now.Add(duration),
	}
	if kind == model.PeekMic {
		m.micActive = value == 1
	}

	var t *sched.Timer
	t = m.exec.After(duration, func() {
		if m.peekTimer != t {
			return
		}
		m.expirePeek()
	})
	m.peekTimer = t

	m.logger.Debug("peek shown", "kind", kind, "value", value, "duration", duration)
	m.notify()
	return true
}

// ClearPeek hides the peek immediately. No expiration fires afterwards.
func (m *Machine) ClearPeek() {
	if m.closed {
		return
	}
	m.peekTimer.Cancel()
	m.peekTimer = nil
	if !m.peek.Visible {
		return
	}
	m.peek.Visible = false
	m.peek.ExpiresAt = time.Time{}
	m.notify()
}

// expirePeek resets the peek to the default kind rather than removing it.
func (m *Machine) expirePeek() {
	m.peekTimer = nil
	m.peek = model.PeekState{Kind: model.DefaultPeekKind}
	m.logger.Debug("peek expired")
	m.notify()
}

// SetExpanded replaces the expanded state. It never expires on its own.
func (m *Machine) SetExpanded(kind model.PeekKind, show bool, value float64, source string) {
	if m.closed {
		return
	}
	if kind == "" {
		kind = model.DefaultPeekKind
	}
	m.expanded = model.ExpandedState{
		Kind:    kind,
		Visible: show,
		Value:   value,
		Source:  source,
	}
	m.notify()
}

// ToggleExpanded hides the expanded view when it is showing kind, otherwise
// shows it for kind.
func (m *Machine) ToggleExpanded(kind model.PeekKind) {
	if kind == "" {
		kind = model.DefaultPeekKind
	}
	show := !(m.expanded.Visible && m.expanded.Kind == kind)
	m.SetExpanded(kind, show, m.expanded.Value, m.expanded.Source)
}

// TogglePeekShortcut handles the peek keyboard shortcut.
func (m *Machine) TogglePeekShortcut(style PeekStyle) {
	if style == PeekStyleInline {
		m.SetExpanded(model.PeekMusic, !m.expanded.Visible, 0, "")
		return
	}
	if m.peek.Visible {
		m.ClearPeek()
		return
	}
	m.SetPeek(model.PeekMusic, 0, "", ShortcutPeekDuration)
}

// Apply processes an external payload.
func (m *Machine) Apply(p Payload) bool {
	if !p.Show {
		if p.Kind != model.PeekMusic && !m.hudReplacement {
			return false
		}
		m.ClearPeek()
		return true
	}
	return m.SetPeek(p.Kind, p.Value, p.Icon, 0)
}

// State returns the current values.
func (m *Machine) State() State {
	return State{Peek: m.peek, Expanded: m.expanded, MicActive: m.micActive}
}

// Peek returns the current peek state.
func (m *Machine) Peek() model.PeekState { return m.peek }

// Expanded returns the current expanded state.
func (m *Machine) Expanded() model.ExpandedState { return m.expanded }

// MicActive reports the mic state recorded by the last mic peek.
func (m *Machine) MicActive() bool { return m.micActive }

// PeekTimerActive reports whether an expiration is outstanding.
func (m *Machine) PeekTimerActive() bool { return m.peekTimer.Active() }

// OnChange registers fn to be called after every state change. The returned
// function removes it.
func (m *Machine) OnChange(fn func(State)) func() {
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() { delete(m.observers, id) }
}

// Close cancels the expiration timer and drops observers. Later calls are
// ignored.
func (m *Machine) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.peekTimer.Cancel()
	m.peekTimer = nil
	m.observers = make(map[int]func(State))
}

func (m *Machine) notify() {
	s := m.State()
	for _, fn := range m.observers {
		fn(s)
	}
}
