package wayland

import (
	"time"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/notchd/internal/sched"
)

// Executor runs work on the GLib main context, which is the thread GTK
// requires for every widget call.
type Executor struct{}

var _ sched.Executor = Executor{}

// Post queues fn on the main context.
func (Executor) Post(fn func()) {
	coreglib.IdleAdd(func() bool {
		fn()
		return false
	})
}

// After schedules fn on the main context after d. Cancelling the returned
// timer removes the GLib source if it has not fired yet.
func (Executor) After(d time.Duration, fn func()) *sched.Timer {
	var (
		handle coreglib.SourceHandle
		fired  bool
	)
	t := sched.NewTimer(time.Now().Add(d), func() bool {
		if fired || handle == 0 {
			return false
		}
		coreglib.SourceRemove(handle)
		return true
	})
	ms := uint(d / time.Millisecond)
	handle = coreglib.TimeoutAdd(ms, func() bool {
		fired = true
		t.Fire(fn)
		return false
	})
	return t
}

// Now returns the wall-clock time.
func (Executor) Now() time.Time {
	return time.Now()
}
