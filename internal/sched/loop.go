package sched

import (
	"log/slog"
	"sync"
	"time"
)

// Loop is an Executor backed by a single goroutine.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	timers  map[*Timer]struct{}
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool
}

var _ Executor = (*Loop)(nil)

// NewLoop creates a stopped loop.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		timers: make(map[*Timer]struct{}),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins executing posted work.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go l.run()
}

// Stop cancels every outstanding timer, discards queued work and waits for
// the loop goroutine to exit. Work posted after Stop is dropped.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	wasRunning := l.running
	timers := make([]*Timer, 0, len(l.timers))
	for t := range l.timers {
		timers = append(timers, t)
	}
	l.timers = make(map[*Timer]struct{})
	l.pending = nil
	close(l.stopCh)
	l.mu.Unlock()

	for _, t := range timers {
		t.Cancel()
	}
	if wasRunning {
		<-l.doneCh
	}
	l.logger.Debug("executor stopped", "cancelled_timers", len(timers))
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After schedules fn to run on the loop after d.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	var (
		tm *time.Timer
		t  *Timer
	)
	// A stopped timer never reaches forget through its callback, so the
	// handle is dropped here as well.
	t = NewTimer(time.Now().Add(d), func() bool {
		l.mu.Lock()
		delete(l.timers, t)
		stop := tm
		l.mu.Unlock()
		return stop != nil && stop.Stop()
	})

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		t.Cancel()
		return t
	}
	l.timers[t] = struct{}{}
	tm = time.AfterFunc(d, func() {
		l.Post(func() {
			l.forget(t)
			t.Fire(fn)
		})
	})
	l.mu.Unlock()

	return t
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) forget(t *Timer) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}

func (l *Loop) run() {
	defer close(l.doneCh)

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if l.stopped || len(l.pending) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.pending[0]
			l.pending[0] = nil
			l.pending = l.pending[1:]
			l.mu.Unlock()

			l.runOne(fn)
		}
	}
}

func (l *Loop) runOne(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("executor task panicked", "panic", r)
		}
	}()
	fn()
}
