// Package sched provides the serialized execution context that owns all
// surface, detector and transient-overlay state, together with cancellable
// timers whose continuations are delivered back onto that context.
package sched
