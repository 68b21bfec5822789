package display

import (
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/sched"
)

// HandleLock applies a lock-state transition without creating or destroying
// surfaces. Locking masks every surface at once: privacy mode when surfaces
// are shown on the lock screen, otherwise alpha 0. Unlocking restores them
// after the unlock delay; a lock arriving during the delay cancels it.
func (m *Manager) HandleLock(state model.LockState) {
	if m.closed || state == m.lock {
		return
	}
	m.lock = state
	m.unlockTimer.Cancel()
	m.unlockTimer = nil

	if state == model.Locked {
		m.masked = true
		for _, s := range m.surfaces {
			m.applyLockMode(s)
		}
		m.logger.Debug("surfaces masked for lock", "surfaces", len(m.surfaces), "privacy", m.prefs.ShowOnLockScreen)
		m.renderAll()
		return
	}

	var t *sched.Timer
	t = m.exec.After(m.unlockDelay, func() {
		if m.unlockTimer != t {
			return
		}
		m.unlockTimer = nil
		m.masked = false
		for _, s := range m.surfaces {
			m.restore(s)
		}
		m.logger.Debug("surfaces restored after unlock", "surfaces", len(m.surfaces))
		m.renderAll()
	})
	m.unlockTimer = t
}

// LockState returns the last lock state received.
func (m *Manager) LockState() model.LockState { return m.lock }

// Masked reports whether surfaces are currently in lock rendering.
func (m *Manager) Masked() bool { return m.masked }

func (m *Manager) applyLockMode(s *Surface) {
	if m.prefs.ShowOnLockScreen {
		s.Privacy = true
		s.window.SetPrivacyMode(true)
		return
	}
	s.Alpha = 0
	s.window.SetAlpha(0)
}

func (m *Manager) restore(s *Surface) {
	if s.Privacy {
		s.Privacy = false
		s.window.SetPrivacyMode(false)
	}
	if s.Alpha != 1 {
		s.Alpha = 1
		s.window.SetAlpha(1)
	}
}
