package detector

import (
	"log/slog"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// Source delivers gesture events. Subscribe may call fn from any goroutine;
// the returned function stops delivery.
type Source interface {
	Subscribe(fn func(model.GestureEvent)) (cancel func())
}

// Axis picks which delta component a detector accumulates.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) delta(ev model.GestureEvent) float64 {
	if a == AxisVertical {
		return ev.DY
	}
	return ev.DX
}

// RegionOptions configures a RegionDetector.
type RegionOptions struct {
	Region    model.Rect
	Threshold float64
	Axis      Axis
	Logger    *slog.Logger
}

// RegionDetector fires OnRegionEntered once per gesture whose accumulated
// delta inside Region crosses the threshold. All state lives on exec.
type RegionDetector struct {
	exec   sched.Executor
	source Source
	logger *slog.Logger

	region    model.Rect
	axis      Axis
	automaton *Automaton
	onEntered func()

	armed  bool
	fired  int
	cancel func()
}

// NewRegion creates an unarmed detector.
func NewRegion(exec sched.Executor, source Source, opts RegionOptions) *RegionDetector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RegionDetector{
		exec:      exec,
		source:    source,
		logger:    logger,
		region:    opts.Region,
		axis:      opts.Axis,
		automaton: NewAutomaton(opts.Threshold),
	}
}

// OnRegionEntered sets the callback. It runs on the executor.
func (d *RegionDetector) OnRegionEntered(fn func()) {
	d.onEntered = fn
}

// StartMonitoring subscribes to the gesture source. Calling it while armed
// does nothing.
func (d *RegionDetector) StartMonitoring() {
	if d.armed {
		return
	}
	d.armed = true
	d.automaton.Reset()
	if d.source != nil {
		d.cancel = d.source.Subscribe(func(ev model.GestureEvent) {
			d.exec.Post(func() { d.Handle(ev) })
		})
	}
	d.logger.Debug("region detector armed", "region", d.region.String())
}

// StopMonitoring unsubscribes and resets the gesture state. Events already
// queued on the executor are dropped.
func (d *RegionDetector) StopMonitoring() {
	if !d.armed {
		return
	}
	d.armed = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.automaton.Reset()
}

// Handle feeds one event. It must run on the executor.
func (d *RegionDetector) Handle(ev model.GestureEvent) {
	if !d.armed {
		return
	}
	if ev.HasPosition && !d.region.Contains(ev.Position) && !ev.Ends() {
		return
	}
	if d.automaton.Feed(ev, d.axis.delta(ev)) == DirectionNone {
		return
	}
	d.fired++
	d.logger.Debug("region entered", "region", d.region.String())
	if d.onEntered != nil {
		d.onEntered()
	}
}

// SetRegion moves the monitored region.
func (d *RegionDetector) SetRegion(r model.Rect) { d.region = r }

// SetThreshold changes the firing threshold for later gestures.
func (d *RegionDetector) SetThreshold(threshold float64) {
	d.automaton.Positive = threshold
	d.automaton.Negative = threshold
}

// Region returns the monitored region.
func (d *RegionDetector) Region() model.Rect { return d.region }

// Armed reports whether the detector is monitoring.
func (d *RegionDetector) Armed() bool { return d.armed }

// State returns the automaton state.
func (d *RegionDetector) State() State { return d.automaton.State() }

// Accumulated returns the delta summed so far in the current gesture.
func (d *RegionDetector) Accumulated() float64 { return d.automaton.Sum() }

// Fired returns how many times the callback has run.
func (d *RegionDetector) Fired() int { return d.fired }
