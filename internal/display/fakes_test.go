package display

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/notchd/internal/identity"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
	"github.com/jmylchreest/notchd/internal/transient"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeWindow struct {
	display model.Display
	opts    platform.WindowOptions

	rect        model.Rect
	repositions int
	shown       bool
	closed      bool
	alpha       float64
	privacy     bool
	views       []model.SurfaceView

	mu   sync.Mutex
	subs map[int]func(model.GestureEvent)
	next int
}

func (w *fakeWindow) Reposition(r model.Rect) { w.rect = r; w.repositions++ }
func (w *fakeWindow) Show()                   { w.shown = true }
func (w *fakeWindow) Close()                  { w.closed = true }
func (w *fakeWindow) SetAlpha(a float64)      { w.alpha = a }
func (w *fakeWindow) SetPrivacyMode(b bool)   { w.privacy = b }
func (w *fakeWindow) Render(v model.SurfaceView) {
	w.views = append(w.views, v)
}

func (w *fakeWindow) Subscribe(fn func(model.GestureEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

func (w *fakeWindow) subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

func (w *fakeWindow) emit(ev model.GestureEvent) {
	w.mu.Lock()
	fns := make([]func(model.GestureEvent), 0, len(w.subs))
	for i := 0; i < w.next; i++ {
		if fn, ok := w.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (w *fakeWindow) lastView() model.SurfaceView {
	if len(w.views) == 0 {
		return model.SurfaceView{}
	}
	return w.views[len(w.views)-1]
}

type fakeProvider struct {
	windows []*fakeWindow
	fail    map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fail: make(map[string]error)}
}

func (p *fakeProvider) NewWindow(d model.Display, r model.Rect, opts platform.WindowOptions) (platform.Window, error) {
	if err := p.fail[d.Handle]; err != nil {
		return nil, err
	}
	alpha := 1.0
	if opts.Hidden {
		alpha = 0
	}
	w := &fakeWindow{
		display: d,
		opts:    opts,
		rect:    r,
		alpha:   alpha,
		privacy: opts.Privacy,
		subs:    make(map[int]func(model.GestureEvent)),
	}
	p.windows = append(p.windows, w)
	return w, nil
}

// created counts windows allocated for an identity.
func (p *fakeProvider) created(id model.DisplayIdentity) int {
	n := 0
	for _, w := range p.windows {
		if w.opts.Identity == id {
			n++
		}
	}
	return n
}

type fakeTopology struct {
	topo    model.Topology
	err     error
	queries int
	ch      chan struct{}
}

func newFakeTopology(displays ...model.Display) *fakeTopology {
	return &fakeTopology{
		topo: model.Topology{Displays: displays},
		ch:   make(chan struct{}, 8),
	}
}

func (f *fakeTopology) Topology() (model.Topology, error) {
	f.queries++
	return f.topo, f.err
}

func (f *fakeTopology) Changes() <-chan struct{} { return f.ch }

type fakePointer struct {
	p   model.Point
	err error
}

func (f fakePointer) PointerLocation() (model.Point, error) { return f.p, f.err }

// serialDeriver keys displays by serial so tests can reason about identities.
var serialDeriver = identity.DeriverFunc(func(d model.Display) (model.DisplayIdentity, error) {
	if d.Serial == "" {
		return "", fmt.Errorf("display %s: %w", d.Handle, identity.ErrNoStableIdentity)
	}
	return model.DisplayIdentity("id-" + d.Serial), nil
})

func mkDisplay(handle, serial string, x, y, w, h int, primary bool) model.Display {
	return model.Display{
		Handle:  handle,
		Name:    handle,
		Serial:  serial,
		Primary: primary,
		Bounds:  model.Rect{X: x, Y: y, Width: w, Height: h},
	}
}

func primaryDisplay() model.Display {
	return mkDisplay("eDP-1", "P", 0, 0, 1920, 1080, true)
}

func secondaryDisplay() model.Display {
	return mkDisplay("DP-1", "S", 1920, 0, 2560, 1440, false)
}

func defaultPrefs() model.Preferences {
	return model.Preferences{
		SurfaceSize:    model.Size{Width: 640, Height: 190},
		ShadowPadding:  20,
		SwipeThreshold: 30,
	}
}

type harness struct {
	exec     *sched.Manual
	provider *fakeProvider
	topo     *fakeTopology
	machine  *transient.Machine
	m        *Manager
}

func newHarness(t *testing.T, pointer platform.PointerLocator) *harness {
	t.Helper()
	exec := sched.NewManual(epoch)
	h := &harness{
		exec:     exec,
		provider: newFakeProvider(),
		topo:     newFakeTopology(primaryDisplay(), secondaryDisplay()),
		machine:  transient.New(exec, transient.Options{HUDReplacement: true}),
	}
	h.m = NewManager(Options{
		Executor:    exec,
		Windows:     h.provider,
		Topology:    h.topo,
		Pointer:     pointer,
		Resolver:    identity.NewResolver(serialDeriver, nil),
		Transient:   h.machine,
		Preferences: defaultPrefs(),
	})
	return h
}

func (h *harness) reconcile(prefs model.Preferences, lock model.LockState) {
	h.m.Reconcile(h.topo.topo, prefs, lock)
}

func (h *harness) window(id model.DisplayIdentity) *fakeWindow {
	s, ok := h.m.Surface(id)
	if !ok {
		return nil
	}
	return s.window.(*fakeWindow)
}

func (h *harness) identities() []model.DisplayIdentity {
	var out []model.DisplayIdentity
	for _, s := range h.m.Surfaces() {
		out = append(out, s.Identity)
	}
	return out
}

var errExhausted = errors.New("resource exhausted")
