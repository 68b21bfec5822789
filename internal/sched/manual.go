package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Executor driven by a virtual clock.
// Nothing runs until RunPending or Advance is called.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []manualTimer
	seq    uint64
}

type manualTimer struct {
	t   *Timer
	fn  func()
	seq uint64
}

var _ Executor = (*Manual)(nil)

// NewManual creates a manual executor whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Post queues fn.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// After schedules fn at Now()+d on the virtual clock.
func (m *Manual) After(d time.Duration, fn func()) *Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := NewTimer(m.now.Add(d), nil)
	m.seq++
	m.timers = append(m.timers, manualTimer{t: t, fn: fn, seq: m.seq})
	return t
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of timers that are neither fired nor cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, mt := range m.timers {
		if mt.t.Active() {
			n++
		}
	}
	return n
}

// RunPending executes queued work, including work queued while draining.
func (m *Manual) RunPending() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining queued work before and after each one.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.RunPending()
	for {
		mt, ok := m.nextDue(target)
		if !ok {
			break
		}
		mt.t.Fire(mt.fn)
		m.RunPending()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	m.RunPending()
}

// nextDue removes and returns the earliest live timer due at or before
// target, moving the clock to its deadline.
func (m *Manual) nextDue(target time.Time) (manualTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.timers[:0]
	for _, mt := range m.timers {
		if mt.t.Active() {
			live = append(live, mt)
		}
	}
	m.timers = live

	sort.SliceStable(m.timers, func(i, j int) bool {
		di, dj := m.timers[i].t.Deadline(), m.timers[j].t.Deadline()
		if di.Equal(dj) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return di.Before(dj)
	})

	if len(m.timers) == 0 || m.timers[0].t.Deadline().After(target) {
		return manualTimer{}, false
	}
	mt := m.timers[0]
	m.timers = m.timers[1:]
	if mt.t.Deadline().After(m.now) {
		m.now = mt.t.Deadline()
	}
	return mt, true
}
