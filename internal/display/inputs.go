package display

import (
	"context"

	"github.com/jmylchreest/notchd/internal/model"
)

// Inputs are the typed event streams the manager reacts to. Topology changes
// come from the TopologySource given in Options.
type Inputs struct {
	Preferences <-chan model.Preferences
	Lock        <-chan model.LockEvent
}

// Run fans in topology, preference and lock events until ctx is done,
// redispatching each onto the executor. It is safe to call from any goroutine.
func (m *Manager) Run(ctx context.Context, in Inputs) {
	var changes <-chan struct{}
	if m.topoSrc != nil {
		changes = m.topoSrc.Changes()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			m.RequestReconcile()
		case p, ok := <-in.Preferences:
			if !ok {
				in.Preferences = nil
				continue
			}
			m.exec.Post(func() { m.SetPreferences(p) })
		case ev, ok := <-in.Lock:
			if !ok {
				in.Lock = nil
				continue
			}
			m.exec.Post(func() { m.HandleLock(ev.State) })
		}
	}
}

// RequestReconcile queues a reconcile pass that re-queries the topology when
// it runs. Requests made while one is queued are folded into it. Safe from any
// goroutine.
func (m *Manager) RequestReconcile() {
	if !m.pending.CompareAndSwap(false, true) {
		return
	}
	m.exec.Post(func() {
		m.pending.Store(false)
		m.ReconcileNow()
	})
}

// ReconcileNow queries the topology source and reconciles with the current
// preferences and lock state.
func (m *Manager) ReconcileNow() {
	if m.closed || m.topoSrc == nil {
		return
	}
	topo, err := m.topoSrc.Topology()
	if err != nil {
		m.logger.Warn("cannot read display topology, keeping surfaces", "error", err)
		return
	}
	m.Reconcile(topo, m.prefs, m.lock)
}

// SetPreferences replaces the preferences and reconciles.
func (m *Manager) SetPreferences(p model.Preferences) {
	if m.closed {
		return
	}
	m.prefs = p
	m.ReconcileNow()
}
