package display

import (
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/notchd/internal/detector"
	"github.com/jmylchreest/notchd/internal/identity"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/transient"
)

const (
	// DefaultAutoClose is how long a pointer-toggled surface stays open.
	DefaultAutoClose = 3 * time.Second
	// DefaultUnlockDelay postpones restoring surfaces after unlock.
	DefaultUnlockDelay = 150 * time.Millisecond
	// DefaultDetectionThreshold is used when preferences leave it unset.
	DefaultDetectionThreshold = 30
)

// Options configures a Manager.
type Options struct {
	Executor  sched.Executor
	Windows   platform.WindowProvider
	Topology  platform.TopologySource
	Pointer   platform.PointerLocator
	Resolver  *identity.Resolver
	Transient *transient.Machine
	Logger    *slog.Logger

	Preferences model.Preferences
	AutoClose   time.Duration
	UnlockDelay time.Duration
}

// Manager owns the display → Surface map.
type Manager struct {
	exec      sched.Executor
	windows   platform.WindowProvider
	topoSrc   platform.TopologySource
	pointer   platform.PointerLocator
	resolver  *identity.Resolver
	transient *transient.Machine
	logger    *slog.Logger

	autoClose   time.Duration
	unlockDelay time.Duration

	surfaces map[model.DisplayIdentity]*Surface
	topology model.Topology
	prefs    model.Preferences
	tab      model.Tab

	lock        model.LockState
	masked      bool
	unlockTimer *sched.Timer

	pending        atomic.Bool
	reconciles     int
	unsubTransient func()
	closed         bool
}

// NewManager creates a manager with no surfaces.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = identity.NewResolver(nil, logger)
	}
	pointer := opts.Pointer
	if pointer == nil {
		pointer = platform.NoPointer{}
	}
	autoClose := opts.AutoClose
	if autoClose <= 0 {
		autoClose = DefaultAutoClose
	}
	unlockDelay := opts.UnlockDelay
	if unlockDelay <= 0 {
		unlockDelay = DefaultUnlockDelay
	}

	m := &Manager{
		exec:        opts.Executor,
		windows:     opts.Windows,
		topoSrc:     opts.Topology,
		pointer:     pointer,
		resolver:    resolver,
		transient:   opts.Transient,
		logger:      logger,
		autoClose:   autoClose,
		unlockDelay: unlockDelay,
		surfaces:    make(map[model.DisplayIdentity]*Surface),
		prefs:       opts.Preferences,
		tab:         model.TabHome,
	}
	if m.transient != nil {
		m.unsubTransient = m.transient.OnChange(func(transient.State) { m.renderAll() })
	}
	return m
}

// Reconcile brings the surface set in line with topo and prefs. It is
// idempotent. A lock value differing from the current one is applied through
// the lock side-channel after the pass.
func (m *Manager) Reconcile(topo model.Topology, prefs model.Preferences, lock model.LockState) {
	if m.closed {
		return
	}
	m.reconciles++
	m.resolver.Rebuild(topo)
	m.topology = topo
	m.prefs = prefs

	eligible := m.eligible()

	// Destroy surfaces that are no longer eligible.
	for id, s := range m.surfaces {
		if _, ok := eligible[id]; !ok {
			m.destroy(s)
		}
	}

	var created, failed int
	for _, id := range m.resolver.Identities() {
		if _, ok := eligible[id]; !ok {
			continue
		}
		d, _ := m.resolver.Display(id)

		s, exists := m.surfaces[id]
		if !exists {
			var err error
			s, err = m.create(id, d)
			if err != nil {
				failed++
				m.logger.Warn("skipping display this pass", "identity", id, "display", d.Name, "error", err)
				continue
			}
			created++
		}

		// Reposition against the current geometry.
		s.Display = d
		s.Rect = WindowRect(d.Bounds, m.prefs)
		s.window.Reposition(s.Rect)
	}

	m.refreshDetectors()

	if lock != m.lock {
		m.HandleLock(lock)
	}
	m.renderAll()

	m.logger.Debug("reconciled surfaces",
		"displays", len(topo.Displays),
		"eligible", len(eligible),
		"surfaces", len(m.surfaces),
		"created", created,
		"failed", failed,
	)
}

// eligible returns the identities satisfying the visibility policy.
func (m *Manager) eligible() map[model.DisplayIdentity]struct{} {
	out := make(map[model.DisplayIdentity]struct{})
	if m.prefs.ShowOnAllDisplays {
		for _, id := range m.resolver.Identities() {
			out[id] = struct{}{}
		}
		return out
	}
	if id, ok := m.preferredIdentity(); ok {
		out[id] = struct{}{}
	}
	return out
}

// preferredIdentity is the configured display when present, otherwise the
// primary display.
func (m *Manager) preferredIdentity() (model.DisplayIdentity, bool) {
	if p := m.prefs.PreferredDisplay; p != "" {
		if _, ok := m.resolver.Display(p); ok {
			return p, true
		}
	}
	return m.resolver.Primary()
}

func (m *Manager) create(id model.DisplayIdentity, d model.Display) (*Surface, error) {
	if m.windows == nil {
		return nil, &SurfaceError{Identity: id, Op: "allocate window", Cause: errors.New("no window provider")}
	}
	rect := WindowRect(d.Bounds, m.prefs)
	win, err := m.windows.NewWindow(d, rect, platform.WindowOptions{
		Identity: id,
		Title:    "notchd-" + d.Name,
		Privacy:  m.masked && m.prefs.ShowOnLockScreen,
		Hidden:   m.masked && !m.prefs.ShowOnLockScreen,
	})
	if err != nil {
		return nil, &SurfaceError{Identity: id, Op: "allocate window", Cause: err}
	}

	now := m.exec.Now()
	s := &Surface{
		ID:        newSurfaceID(now),
		Identity:  id,
		Display:   d,
		Rect:      rect,
		State:     model.ViewClosed,
		CreatedAt: now,
		Alpha:     1,
		window:    win,
	}
	s.swipe = detector.NewSwipe(m.swipeThreshold(), m.swipeThreshold())
	s.swipe.OnLeft = func() { m.SetTab(m.tab.Next()) }
	s.swipe.OnRight = func() { m.SetTab(m.tab.Prev()) }
	s.unsub = win.Subscribe(func(ev model.GestureEvent) {
		m.exec.Post(func() { m.handleSwipe(id, ev) })
	})

	m.surfaces[id] = s
	if m.masked {
		m.applyLockMode(s)
	}
	win.Show()

	m.logger.Info("created surface", "identity", id, "display", d.Name, "rect", rect.String())
	return s, nil
}

func (m *Manager) destroy(s *Surface) {
	s.autoClose.Cancel()
	s.autoClose = nil
	if s.detector != nil {
		s.detector.StopMonitoring()
		s.detector = nil
	}
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.window.Close()
	delete(m.surfaces, s.Identity)
	m.logger.Info("destroyed surface", "identity", s.Identity, "display", s.Display.Name)
}

func (m *Manager) refreshDetectors() {
	if !m.prefs.RegionDetection {
		for _, s := range m.surfaces {
			if s.detector != nil {
				s.detector.StopMonitoring()
				s.detector = nil
			}
		}
		return
	}

	threshold := m.prefs.DetectionThreshold
	if threshold <= 0 {
		threshold = DefaultDetectionThreshold
	}
	for id, s := range m.surfaces {
		region := RegionRect(s.Display.Bounds, m.prefs)
		if s.detector != nil {
			s.detector.SetRegion(region)
			s.detector.SetThreshold(threshold)
			continue
		}
		det := detector.NewRegion(m.exec, s.window, detector.RegionOptions{
			Region:    region,
			Threshold: threshold,
			Axis:      detector.AxisVertical,
			Logger:    m.logger,
		})
		det.OnRegionEntered(func() { m.regionEntered(id) })
		det.StartMonitoring()
		s.detector = det
	}
}

func (m *Manager) swipeThreshold() float64 {
	if m.prefs.SwipeThreshold > 0 {
		return m.prefs.SwipeThreshold
	}
	return detector.DefaultSwipeThreshold
}

// regionEntered opens the surface on the shelf tab.
func (m *Manager) regionEntered(id model.DisplayIdentity) {
	s, ok := m.surfaces[id]
	if !ok {
		return
	}
	s.autoClose.Cancel()
	s.autoClose = nil
	m.tab = model.TabShelf
	m.open(s)
	m.renderAll()
}

func (m *Manager) handleSwipe(id model.DisplayIdentity, ev model.GestureEvent) {
	s, ok := m.surfaces[id]
	if !ok || s.State != model.ViewOpen {
		return
	}
	s.swipe.Handle(ev)
}

// SetTab selects the tab shared by all surfaces.
func (m *Manager) SetTab(tab model.Tab) {
	if m.tab == tab {
		return
	}
	m.tab = tab
	m.logger.Debug("tab changed", "tab", tab)
	m.renderAll()
}

// SetTimings changes the auto-close and unlock delays. Timers already armed
// keep their deadlines. Non-positive values leave the setting unchanged.
func (m *Manager) SetTimings(autoClose, unlockDelay time.Duration) {
	if autoClose > 0 {
		m.autoClose = autoClose
	}
	if unlockDelay > 0 {
		m.unlockDelay = unlockDelay
	}
}

// Tab returns the current tab.
func (m *Manager) Tab() model.Tab { return m.tab }

// ToggleSurfaceUnderPointer toggles the surface of the display containing p.
// Opening schedules an automatic close for that surface only.
func (m *Manager) ToggleSurfaceUnderPointer(p model.Point) (model.DisplayIdentity, error) {
	if m.closed {
		return "", ErrClosed
	}
	d, ok := m.topology.At(p)
	if !ok {
		return "", ErrNoDisplayUnderPointer
	}
	id, ok := m.resolver.Resolve(d.Handle)
	if !ok {
		return "", &SurfaceError{Op: "toggle", Cause: identity.ErrNoStableIdentity}
	}
	return id, m.Toggle(id)
}

// ToggleAtPointer reads the pointer and toggles the surface under it. When the
// backend cannot locate the pointer, the preferred display is used.
func (m *Manager) ToggleAtPointer() (model.DisplayIdentity, error) {
	p, err := m.pointer.PointerLocation()
	if err == nil {
		return m.ToggleSurfaceUnderPointer(p)
	}
	if !errors.Is(err, platform.ErrUnsupported) {
		m.logger.Warn("cannot read pointer location", "error", err)
	}
	id, ok := m.preferredIdentity()
	if !ok {
		return "", ErrNoDisplayUnderPointer
	}
	return id, m.Toggle(id)
}

// Toggle switches a surface between closed and open.
func (m *Manager) Toggle(id model.DisplayIdentity) error {
	if m.closed {
		return ErrClosed
	}
	s, ok := m.surfaces[id]
	if !ok {
		return &SurfaceError{Identity: id, Op: "toggle", Cause: ErrNoSurface}
	}

	if s.State == model.ViewOpen {
		m.close(s)
		return nil
	}

	m.open(s)
	s.autoClose.Cancel()
	var t *sched.Timer
	t = m.exec.After(m.autoClose, func() {
		if s.autoClose != t {
			return
		}
		s.autoClose = nil
		if m.surfaces[id] == s {
			m.close(s)
		}
	})
	s.autoClose = t
	return nil
}

// Open opens a surface without scheduling an automatic close.
func (m *Manager) Open(id model.DisplayIdentity) error {
	s, ok := m.surfaces[id]
	if !ok {
		return &SurfaceError{Identity: id, Op: "open", Cause: ErrNoSurface}
	}
	m.open(s)
	return nil
}

// Close closes a surface and cancels its pending auto-close.
func (m *Manager) Close(id model.DisplayIdentity) error {
	s, ok := m.surfaces[id]
	if !ok {
		return &SurfaceError{Identity: id, Op: "close", Cause: ErrNoSurface}
	}
	m.close(s)
	return nil
}

func (m *Manager) open(s *Surface) {
	if s.State != model.ViewOpen {
		s.State = model.ViewOpen
		s.OpenedAt = m.exec.Now()
	}
	m.render(s)
}

func (m *Manager) close(s *Surface) {
	s.autoClose.Cancel()
	s.autoClose = nil
	s.State = model.ViewClosed
	s.OpenedAt = time.Time{}
	m.render(s)
}

// CloseAll destroys every surface and cancels every timer the manager owns.
// The manager ignores further input afterwards.
func (m *Manager) CloseAll() {
	if m.closed {
		return
	}
	for _, s := range m.surfaces {
		m.destroy(s)
	}
	m.unlockTimer.Cancel()
	m.unlockTimer = nil
	if m.unsubTransient != nil {
		m.unsubTransient()
		m.unsubTransient = nil
	}
	m.closed = true
	m.logger.Info("closed all surfaces")
}

// Surface returns the surface for an identity.
func (m *Manager) Surface(id model.DisplayIdentity) (*Surface, bool) {
	s, ok := m.surfaces[id]
	return s, ok
}

// Surfaces returns the live surfaces ordered by identity.
func (m *Manager) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(m.surfaces))
	for _, s := range m.surfaces {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Preferences returns the preferences of the last reconcile.
func (m *Manager) Preferences() model.Preferences { return m.prefs }

// Topology returns the snapshot of the last reconcile.
func (m *Manager) Topology() model.Topology { return m.topology }

// Resolver returns the identity resolver the manager rebuilds.
func (m *Manager) Resolver() *identity.Resolver { return m.resolver }

func (m *Manager) view(s *Surface) model.SurfaceView {
	v := model.SurfaceView{
		Identity: s.Identity,
		State:    s.State,
		Tab:      m.tab,
		Locked:   m.masked,
	}
	if m.transient != nil {
		v.Peek = m.transient.Peek()
		v.Expanded = m.transient.Expanded()
	}
	return v
}

func (m *Manager) render(s *Surface) {
	s.window.Render(m.view(s))
}

func (m *Manager) renderAll() {
	if m.closed {
		return
	}
	for _, s := range m.surfaces {
		m.render(s)
	}
}
