package detector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

func change(dx float64) model.GestureEvent {
	return model.GestureEvent{Phase: model.GestureChange, DX: dx}
}

func TestAutomaton_FiresOncePerGesture(t *testing.T) {
	a := NewAutomaton(30)

	assert.Equal(t, DirectionNone, a.Feed(model.GestureEvent{Phase: model.GestureBegin}, 0))
	assert.Equal(t, StateAccumulating, a.State())
	assert.Equal(t, DirectionNone, a.Feed(change(20), 20))
	assert.Equal(t, DirectionNone, a.Feed(change(10), 10), "equal to threshold does not fire")
	assert.Equal(t, DirectionPositive, a.Feed(change(1), 1))
	assert.Equal(t, StateFired, a.State())

	for i := 0; i < 50; i++ {
		assert.Equal(t, DirectionNone, a.Feed(change(100), 100))
	}

	a.Feed(model.GestureEvent{Phase: model.GestureEnd}, 0)
	assert.Equal(t, StateIdle, a.State())
	assert.Zero(t, a.Sum())

	assert.Equal(t, DirectionPositive, a.Feed(change(31), 31), "next gesture fires again")
}

func TestAutomaton_IgnoresMomentum(t *testing.T) {
	a := NewAutomaton(30)

	a.Feed(change(10), 10)
	a.Feed(model.GestureEvent{Phase: model.GestureEnd}, 0)

	momentum := model.GestureEvent{Phase: model.GestureChange, Momentum: true, DX: 500}
	assert.Equal(t, DirectionNone, a.Feed(momentum, 500))
	assert.Equal(t, StateMomentum, a.State())
	assert.Zero(t, a.Sum())

	a.Feed(model.GestureEvent{Phase: model.GestureEnd, Momentum: true}, 0)
	assert.Equal(t, StateIdle, a.State())
}

func TestAutomaton_MomentumDoesNotRearmFired(t *testing.T) {
	a := NewAutomaton(30)

	require.Equal(t, DirectionPositive, a.Feed(change(40), 40))
	a.Feed(model.GestureEvent{Phase: model.GestureChange, Momentum: true}, 10)
	assert.Equal(t, StateFired, a.State())
	assert.Equal(t, DirectionNone, a.Feed(change(40), 40))
}

func TestAutomaton_CancelResets(t *testing.T) {
	a := NewAutomaton(30)

	a.Feed(change(25), 25)
	a.Feed(model.GestureEvent{Phase: model.GestureCancel}, 0)
	assert.Equal(t, DirectionNone, a.Feed(change(25), 25), "sum restarts after cancel")
}

func TestSwipe_Directions(t *testing.T) {
	var left, right int
	s := NewSwipe(0, 0)
	s.OnLeft = func() { left++ }
	s.OnRight = func() { right++ }

	s.Handle(change(-20))
	s.Handle(change(-20))
	s.Handle(change(-20))
	s.Handle(model.GestureEvent{Phase: model.GestureEnd})
	assert.Equal(t, 1, left)
	assert.Equal(t, 0, right)

	s.Handle(change(15))
	s.Handle(change(16))
	s.Handle(change(100))
	s.Handle(model.GestureEvent{Phase: model.GestureEnd})
	assert.Equal(t, 1, left)
	assert.Equal(t, 1, right)
}

func TestSwipe_IndependentThresholds(t *testing.T) {
	s := NewSwipe(100, 10)

	assert.Equal(t, DirectionNone, s.Handle(change(50)))
	s.Handle(model.GestureEvent{Phase: model.GestureEnd})
	assert.Equal(t, DirectionNegative, s.Handle(change(-11)))
}

type fakeSource struct {
	mu   sync.Mutex
	subs map[int]func(model.GestureEvent)
	next int
}

func newFakeSource() *fakeSource {
	return &fakeSource{subs: make(map[int]func(model.GestureEvent))}
}

func (f *fakeSource) Subscribe(fn func(model.GestureEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeSource) emit(ev model.GestureEvent) {
	f.mu.Lock()
	subs := make([]func(model.GestureEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func at(x, y int, dx float64) model.GestureEvent {
	return model.GestureEvent{
		Phase:       model.GestureChange,
		Position:    model.Point{X: x, Y: y},
		HasPosition: true,
		DX:          dx,
	}
}

func TestRegionDetector_Debounce(t *testing.T) {
	exec := sched.NewManual(time.Unix(0, 0))
	src := newFakeSource()
	d := NewRegion(exec, src, RegionOptions{
		Region:    model.Rect{X: 640, Y: 0, Width: 640, Height: 190},
		Threshold: 30,
	})
	calls := 0
	d.OnRegionEntered(func() { calls++ })
	d.StartMonitoring()
	require.True(t, d.Armed())
	require.Equal(t, 1, src.count())

	for i := 0; i < 20; i++ {
		src.emit(at(900, 50, 10))
	}
	exec.RunPending()
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateFired, d.State())

	src.emit(model.GestureEvent{Phase: model.GestureEnd})
	for i := 0; i < 4; i++ {
		src.emit(at(900, 50, 10))
	}
	exec.RunPending()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, d.Fired())
}

func TestRegionDetector_OutsideRegionIgnored(t *testing.T) {
	exec := sched.NewManual(time.Unix(0, 0))
	src := newFakeSource()
	d := NewRegion(exec, src, RegionOptions{
		Region:    model.Rect{X: 0, Y: 0, Width: 100, Height: 100},
		Threshold: 30,
	})
	calls := 0
	d.OnRegionEntered(func() { calls++ })
	d.StartMonitoring()

	for i := 0; i < 10; i++ {
		src.emit(at(500, 500, 10))
	}
	exec.RunPending()
	assert.Equal(t, 0, calls)
	assert.Zero(t, d.Accumulated())

	src.emit(at(50, 50, 20))
	src.emit(at(50, 50, 20))
	exec.RunPending()
	assert.Equal(t, 1, calls)
}

func TestRegionDetector_VerticalAxis(t *testing.T) {
	exec := sched.NewManual(time.Unix(0, 0))
	d := NewRegion(exec, nil, RegionOptions{
		Region:    model.Rect{Width: 100, Height: 100},
		Threshold: 30,
		Axis:      AxisVertical,
	})
	calls := 0
	d.OnRegionEntered(func() { calls++ })
	d.StartMonitoring()

	d.Handle(model.GestureEvent{Phase: model.GestureChange, DX: 100})
	assert.Equal(t, 0, calls)
	d.Handle(model.GestureEvent{Phase: model.GestureChange, DY: -31})
	assert.Equal(t, 1, calls)
}

func TestRegionDetector_StopMonitoring(t *testing.T) {
	exec := sched.NewManual(time.Unix(0, 0))
	src := newFakeSource()
	d := NewRegion(exec, src, RegionOptions{Region: model.Rect{Width: 100, Height: 100}, Threshold: 30})
	calls := 0
	d.OnRegionEntered(func() { calls++ })
	d.StartMonitoring()

	src.emit(at(10, 10, 50))
	d.StopMonitoring()
	exec.RunPending()

	assert.Equal(t, 0, calls, "queued events are dropped after stop")
	assert.False(t, d.Armed())
	assert.Equal(t, 0, src.count())

	d.StopMonitoring()
	d.StartMonitoring()
	d.StartMonitoring()
	assert.Equal(t, 1, src.count(), "start is idempotent")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "accumulating", StateAccumulating.String())
	assert.Equal(t, "fired", StateFired.String())
	assert.Equal(t, "momentum", StateMomentum.String())
}
