package display

import (
	"time"

	"github.com/jmylchreest/notchd/internal/model"
)

// SurfaceStatus describes one live surface.
type SurfaceStatus struct {
	ID            string                `json:"id" yaml:"id"`
	Identity      model.DisplayIdentity `json:"identity" yaml:"identity"`
	Display       string                `json:"display" yaml:"display"`
	Handle        string                `json:"handle" yaml:"handle"`
	Rect          model.Rect            `json:"rect" yaml:"rect"`
	State         model.ViewState       `json:"state" yaml:"state"`
	Alpha         float64               `json:"alpha" yaml:"alpha"`
	Privacy       bool                  `json:"privacy" yaml:"privacy"`
	DetectorArmed bool                  `json:"detector_armed" yaml:"detector_armed"`
	Region        *model.Rect           `json:"region,omitempty" yaml:"region,omitempty"`
	CreatedAt     time.Time             `json:"created_at" yaml:"created_at"`
	OpenedAt      time.Time             `json:"opened_at,omitempty" yaml:"opened_at,omitempty"`
	AutoCloseAt   time.Time             `json:"auto_close_at,omitempty" yaml:"auto_close_at,omitempty"`
}

// DisplayStatus describes one display of the current topology.
type DisplayStatus struct {
	Identity model.DisplayIdentity `json:"identity,omitempty" yaml:"identity,omitempty"`
	Name     string                `json:"name" yaml:"name"`
	Handle   string                `json:"handle" yaml:"handle"`
	Bounds   model.Rect            `json:"bounds" yaml:"bounds"`
	Primary  bool                  `json:"primary" yaml:"primary"`
	Eligible bool                  `json:"eligible" yaml:"eligible"`
}

// Status is a point-in-time view of the manager.
type Status struct {
	Surfaces          []SurfaceStatus       `json:"surfaces" yaml:"surfaces"`
	Displays          []DisplayStatus       `json:"displays" yaml:"displays"`
	Locked            bool                  `json:"locked" yaml:"locked"`
	Masked            bool                  `json:"masked" yaml:"masked"`
	Tab               model.Tab             `json:"tab" yaml:"tab"`
	Peek              model.PeekState       `json:"peek" yaml:"peek"`
	Expanded          model.ExpandedState   `json:"expanded" yaml:"expanded"`
	MicActive         bool                  `json:"mic_active" yaml:"mic_active"`
	ShowOnAllDisplays bool                  `json:"show_on_all_displays" yaml:"show_on_all_displays"`
	PreferredDisplay  model.DisplayIdentity `json:"preferred_display,omitempty" yaml:"preferred_display,omitempty"`
	RegionDetection   bool                  `json:"region_detection" yaml:"region_detection"`
	Reconciles        int                   `json:"reconciles" yaml:"reconciles"`
}

// Snapshot returns the current status. It must run on the executor.
func (m *Manager) Snapshot() Status {
	st := Status{
		Surfaces:          make([]SurfaceStatus, 0, len(m.surfaces)),
		Locked:            m.lock == model.Locked,
		Masked:            m.masked,
		Tab:               m.tab,
		ShowOnAllDisplays: m.prefs.ShowOnAllDisplays,
		PreferredDisplay:  m.prefs.PreferredDisplay,
		RegionDetection:   m.prefs.RegionDetection,
		Reconciles:        m.reconciles,
	}
	if m.transient != nil {
		ts := m.transient.State()
		st.Peek = ts.Peek
		st.Expanded = ts.Expanded
		st.MicActive = ts.MicActive
	}

	for _, s := range m.Surfaces() {
		ss := SurfaceStatus{
			ID:          s.ID,
			Identity:    s.Identity,
			Display:     s.Display.Name,
			Handle:      s.Display.Handle,
			Rect:        s.Rect,
			State:       s.State,
			Alpha:       s.Alpha,
			Privacy:     s.Privacy,
			CreatedAt:   s.CreatedAt,
			OpenedAt:    s.OpenedAt,
			AutoCloseAt: s.AutoCloseAt(),
		}
		if s.detector != nil {
			r := s.detector.Region()
			ss.DetectorArmed = s.detector.Armed()
			ss.Region = &r
		}
		st.Surfaces = append(st.Surfaces, ss)
	}

	eligible := m.eligible()
	for _, d := range m.topology.Displays {
		ds := DisplayStatus{
			Name:    d.Name,
			Handle:  d.Handle,
			Bounds:  d.Bounds,
			Primary: d.Primary,
		}
		if id, ok := m.resolver.Resolve(d.Handle); ok {
			ds.Identity = id
			_, ds.Eligible = eligible[id]
		}
		st.Displays = append(st.Displays, ds)
	}
	return st
}
