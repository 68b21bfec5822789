package x11

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
)

// wheelStep converts one wheel click into pixels of travel.
const wheelStep = 40

// Core pointer buttons used for scrolling.
const (
	buttonScrollUp    = 4
	buttonScrollDown  = 5
	buttonScrollLeft  = 6
	buttonScrollRight = 7
)

// windowProvider allocates override-redirect surface windows.
type windowProvider struct {
	xu     *xgbutil.XUtil
	logger *slog.Logger
}

// NewWindow implements platform.WindowProvider.
func (p *windowProvider) NewWindow(display model.Display, rect model.Rect, opts platform.WindowOptions) (platform.Window, error) {
	return newWindow(p.xu, rect, opts, p.logger)
}

// Window is a notch surface drawn directly with core X requests.
// Drawing state is guarded by mu because exposes arrive on the event goroutine.
type Window struct {
	xu     *xgbutil.XUtil
	win    *xwindow.Window
	gc     xproto.Gcontext
	logger *slog.Logger

	mu      sync.Mutex
	rect    model.Rect
	geom    model.Rect
	view    model.SurfaceView
	privacy bool
	mapped  bool
	closed  bool

	subMu   sync.Mutex
	subs    map[int]func(model.GestureEvent)
	nextSub int
}

var _ platform.Window = (*Window)(nil)

func newWindow(xu *xgbutil.XUtil, rect model.Rect, opts platform.WindowOptions, logger *slog.Logger) (*Window, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn := xu.Conn()

	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	w := &Window{
		xu:      xu,
		win:     win,
		logger:  logger.With("display", string(opts.Identity)),
		rect:    rect,
		privacy: opts.Privacy,
		subs:    make(map[int]func(model.GestureEvent)),
	}
	w.geom = surfaceGeometry(rect, w.view, w.privacy)

	// Value list order follows the bit positions of the mask (low to high).
	err = win.CreateChecked(xu.RootWin(),
		w.geom.X, w.geom.Y, w.geom.Width, w.geom.Height,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		ColorBackground, 1,
		xproto.EventMaskExposure|xproto.EventMaskButtonPress)
	if err != nil {
		return nil, fmt.Errorf("failed to create surface window: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "notchd"
	}
	if err := icccm.WmNameSet(xu, win.Id, title); err != nil {
		w.logger.Debug("failed to set window name", "error", err)
	}
	if err := icccm.WmClassSet(xu, win.Id, &icccm.WmClass{Instance: "notchd", Class: "Notchd"}); err != nil {
		w.logger.Debug("failed to set window class", "error", err)
	}
	if err := ewmh.WmWindowTypeSet(xu, win.Id, []string{"_NET_WM_WINDOW_TYPE_NOTIFICATION"}); err != nil {
		w.logger.Debug("failed to set window type", "error", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to allocate graphics context: %w", err)
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(win.Id),
		xproto.GcForeground, []uint32{ColorBackground}).Check(); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to create graphics context: %w", err)
	}
	w.gc = gc

	if opts.Hidden {
		w.setOpacity(0)
	}

	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			w.paint()
		}
	}).Connect(xu, win.Id)
	xevent.ButtonPressFun(w.handleButton).Connect(xu, win.Id)

	return w, nil
}

func (w *Window) handleButton(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
	dx, dy, ok := scrollDelta(ev.Detail)
	if !ok {
		return
	}
	pos := model.Point{X: int(ev.RootX), Y: int(ev.RootY)}
	// A wheel click is a complete gesture on its own.
	w.emit(model.GestureEvent{Phase: model.GestureBegin, Position: pos, HasPosition: true})
	w.emit(model.GestureEvent{Phase: model.GestureChange, Position: pos, HasPosition: true, DX: dx, DY: dy})
	w.emit(model.GestureEvent{Phase: model.GestureEnd, Position: pos, HasPosition: true})
}

// scrollDelta maps a core scroll button to a pixel delta.
func scrollDelta(button xproto.Button) (dx, dy float64, ok bool) {
	switch button {
	case buttonScrollUp:
		return 0, -wheelStep, true
	case buttonScrollDown:
		return 0, wheelStep, true
	case buttonScrollLeft:
		return -wheelStep, 0, true
	case buttonScrollRight:
		return wheelStep, 0, true
	}
	return 0, 0, false
}

func (w *Window) emit(ev model.GestureEvent) {
	w.subMu.Lock()
	subs := make([]func(model.GestureEvent), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribe implements platform.Window.
func (w *Window) Subscribe(fn func(model.GestureEvent)) func() {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

// Reposition implements platform.Window.
func (w *Window) Reposition(rect model.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.rect = rect
	w.relayoutLocked()
}

// relayoutLocked moves the window to the geometry of the current view.
func (w *Window) relayoutLocked() {
	geom := surfaceGeometry(w.rect, w.view, w.privacy)
	if geom == w.geom {
		return
	}
	w.geom = geom
	xproto.ConfigureWindow(w.xu.Conn(), w.win.Id,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(int32(geom.X)),
			uint32(int32(geom.Y)),
			uint32(geom.Width),
			uint32(geom.Height),
			xproto.StackModeAbove, // Keep on top
		})
}

// Show implements platform.Window.
func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.mapped {
		return
	}
	w.win.Map()
	w.mapped = true
}

// Close implements platform.Window.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.subMu.Lock()
	w.subs = make(map[int]func(model.GestureEvent))
	w.subMu.Unlock()

	xproto.FreeGC(w.xu.Conn(), w.gc)
	// Destroy also detaches the event callbacks.
	w.win.Destroy()
}

// SetAlpha implements platform.Window.
func (w *Window) SetAlpha(alpha float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.setOpacity(alpha)
}

// setOpacity relies on a compositor honouring _NET_WM_WINDOW_OPACITY.
func (w *Window) setOpacity(alpha float64) {
	if err := ewmh.WmWindowOpacitySet(w.xu, w.win.Id, clamp01(alpha)); err != nil {
		w.logger.Debug("failed to set window opacity", "error", err)
	}
}

// SetPrivacyMode implements platform.Window.
func (w *Window) SetPrivacyMode(enabled bool) {
	w.mu.Lock()
	if w.closed || w.privacy == enabled {
		w.mu.Unlock()
		return
	}
	w.privacy = enabled
	w.relayoutLocked()
	w.mu.Unlock()
	w.paint()
}

// Render implements platform.Window.
func (w *Window) Render(view model.SurfaceView) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.view = view
	w.relayoutLocked()
	w.mu.Unlock()
	w.paint()
}

func (w *Window) paint() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.mapped {
		return
	}

	conn := w.xu.Conn()
	drawable := xproto.Drawable(w.win.Id)
	for _, op := range paintOps(w.geom.Size(), w.view, w.privacy) {
		xproto.ChangeGC(conn, w.gc, xproto.GcForeground, []uint32{op.Color})
		xproto.PolyFillRectangle(conn, drawable, w.gc, []xproto.Rectangle{{
			X:      int16(op.Rect.X),
			Y:      int16(op.Rect.Y),
			Width:  uint16(op.Rect.Width),
			Height: uint16(op.Rect.Height),
		}})
	}
}
