package sched

import (
	"context"
	"sync/atomic"
	"time"
)

// Executor runs functions one at a time on a single logical context.
// Work posted from any goroutine is executed in FIFO order.
type Executor interface {
	// Post queues fn to run on the executor.
	Post(fn func())
	// After runs fn on the executor once d has elapsed, unless the returned
	// timer is cancelled first.
	After(d time.Duration, fn func()) *Timer
	// Now returns the executor's current time.
	Now() time.Time
}

// Timer is a cancellation handle for a scheduled continuation.
// Cancel invalidates the handle before the underlying timer is stopped, and
// the continuation checks the handle on the executor before it runs, so a
// cancelled timer never fires even if its wake-up was already queued.
type Timer struct {
	deadline  time.Time
	cancelled atomic.Bool
	fired     atomic.Bool
	stop      func() bool
}

// NewTimer creates a handle for a continuation due at deadline.
// stop, if non-nil, releases the underlying platform timer.
func NewTimer(deadline time.Time, stop func() bool) *Timer {
	return &Timer{deadline: deadline, stop: stop}
}

// Cancel invalidates the timer. It returns true if this call prevented the
// continuation from running. Cancel is safe on a nil timer.
func (t *Timer) Cancel() bool {
	if t == nil {
		return false
	}
	if !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	if t.stop != nil {
		t.stop()
	}
	return !t.fired.Load()
}

// Active reports whether the continuation is still pending.
func (t *Timer) Active() bool {
	return t != nil && !t.cancelled.Load() && !t.fired.Load()
}

// Deadline returns the time the continuation is due.
func (t *Timer) Deadline() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.deadline
}

// Fire runs fn if the handle is still valid. Executors must call Fire on the
// executor itself.
func (t *Timer) Fire(fn func()) {
	if t.cancelled.Load() {
		return
	}
	if !t.fired.CompareAndSwap(false, true) {
		return
	}
	fn()
}

// Call runs fn on the executor and waits for it to finish.
func Call(ctx context.Context, exec Executor, fn func()) error {
	done := make(chan struct{})
	exec.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
