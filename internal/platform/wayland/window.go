package wayland

import (
	"fmt"
	"log/slog"
	"sync"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
)

// wheelStep converts one mouse wheel notch into pixels so wheels and
// touchpads share the same thresholds.
const wheelStep = 40

// windowProvider allocates layer-shell surfaces on the application.
type windowProvider struct {
	app    *gtk.Application
	topo   *Topology
	logger *slog.Logger
}

// NewWindow implements platform.WindowProvider. Must run on the main context.
func (p *windowProvider) NewWindow(display model.Display, rect model.Rect, opts platform.WindowOptions) (platform.Window, error) {
	mon, ok := p.topo.monitor(display.Handle)
	if !ok {
		return nil, fmt.Errorf("monitor %s not in current topology", display.Handle)
	}
	return newWindow(p.app, mon, display.Bounds, rect, opts, p.logger), nil
}

// Window is a notch surface drawn as a top-anchored layer surface.
type Window struct {
	window  *gtk.Window
	monitor model.Rect
	rect    model.Rect
	logger  *slog.Logger

	// Widgets
	root      *gtk.Box
	pill      *gtk.Box
	peekIcon  *gtk.Image
	peekLevel *gtk.LevelBar
	content   *gtk.Box
	tabLbl    *gtk.Label
	expandLbl *gtk.Label

	// State
	classes []string
	privacy bool
	closed  bool

	// Pointer tracking for gesture positions, local to the window.
	pointer    model.Point
	hasPointer bool
	scrolling  bool
	kinetic    bool

	mu      sync.Mutex
	subs    map[int]func(model.GestureEvent)
	nextSub int
}

var _ platform.Window = (*Window)(nil)

func newWindow(app *gtk.Application, mon *gdk.Monitor, bounds, rect model.Rect, opts platform.WindowOptions, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Window{
		monitor: bounds,
		rect:    rect,
		logger:  logger.With("display", string(opts.Identity)),
		subs:    make(map[int]func(model.GestureEvent)),
	}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDefaultSize(rect.Width, rect.Height)
	w.window.SetSizeRequest(rect.Width, rect.Height)

	// Initialize layer-shell
	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.window, 0) // Don't reserve space
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	title := opts.Title
	if title == "" {
		title = "notchd"
	}
	layershell.SetNamespace(w.window, title)
	layershell.SetMonitor(w.window, mon)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeLeft, true)
	w.applyMargins()

	w.buildUI()
	w.connectSignals()

	if opts.Hidden {
		w.window.SetOpacity(0)
	}
	if opts.Privacy {
		w.SetPrivacyMode(true)
	}
	return w
}

func (w *Window) buildUI() {
	w.root = gtk.NewBox(gtk.OrientationVertical, 0)
	w.root.AddCSSClass("notch")
	w.root.SetHAlign(gtk.AlignFill)
	w.root.SetVAlign(gtk.AlignStart)

	// Closed pill: peek icon and level.
	w.pill = gtk.NewBox(gtk.OrientationHorizontal, 8)
	w.pill.AddCSSClass("notch-pill")
	w.pill.SetHAlign(gtk.AlignCenter)
	w.peekIcon = gtk.NewImageFromIconName(peekIconName(model.DefaultPeekKind, ""))
	w.peekIcon.AddCSSClass("notch-peek-icon")
	w.peekIcon.SetVisible(false)
	w.pill.Append(w.peekIcon)
	w.peekLevel = gtk.NewLevelBar()
	w.peekLevel.AddCSSClass("notch-peek-level")
	w.peekLevel.SetMinValue(0)
	w.peekLevel.SetMaxValue(1)
	w.peekLevel.SetHExpand(true)
	w.peekLevel.SetVisible(false)
	w.pill.Append(w.peekLevel)
	w.root.Append(w.pill)

	// Open content: tab header and expanded activity.
	w.content = gtk.NewBox(gtk.OrientationVertical, 4)
	w.content.AddCSSClass("notch-content")
	w.content.SetVisible(false)
	w.tabLbl = gtk.NewLabel(tabTitle(model.TabHome))
	w.tabLbl.AddCSSClass("notch-tab")
	w.content.Append(w.tabLbl)
	w.expandLbl = gtk.NewLabel("")
	w.expandLbl.AddCSSClass("notch-expanded")
	w.expandLbl.SetVisible(false)
	w.content.Append(w.expandLbl)
	w.root.Append(w.content)

	w.window.SetChild(w.root)
}

func (w *Window) connectSignals() {
	motionCtrl := gtk.NewEventControllerMotion()
	motionCtrl.ConnectEnter(func(x, y float64) {
		w.pointer = model.Point{X: int(x), Y: int(y)}
		w.hasPointer = true
	})
	motionCtrl.ConnectMotion(func(x, y float64) {
		w.pointer = model.Point{X: int(x), Y: int(y)}
		w.hasPointer = true
	})
	motionCtrl.ConnectLeave(func() {
		w.hasPointer = false
	})
	w.window.AddController(motionCtrl)

	scrollCtrl := gtk.NewEventControllerScroll(
		gtk.EventControllerScrollBothAxes | gtk.EventControllerScrollKinetic)
	scrollCtrl.ConnectScrollBegin(func() {
		if w.kinetic {
			w.emit(model.GestureEvent{Phase: model.GestureEnd, Momentum: true})
			w.kinetic = false
		}
		w.scrolling = true
		w.emit(model.GestureEvent{Phase: model.GestureBegin})
	})
	scrollCtrl.ConnectScroll(func(dx, dy float64) bool {
		switch {
		case w.scrolling:
			w.emit(model.GestureEvent{Phase: model.GestureChange, DX: dx, DY: dy})
		case w.kinetic:
			w.emit(model.GestureEvent{Phase: model.GestureChange, Momentum: true, DX: dx, DY: dy})
		default:
			// A wheel notch is a complete gesture on its own.
			if scrollCtrl.Unit() == gdk.ScrollUnitWheel {
				dx, dy = dx*wheelStep, dy*wheelStep
			}
			w.emit(model.GestureEvent{Phase: model.GestureBegin})
			w.emit(model.GestureEvent{Phase: model.GestureChange, DX: dx, DY: dy})
			w.emit(model.GestureEvent{Phase: model.GestureEnd})
		}
		return true
	})
	scrollCtrl.ConnectScrollEnd(func() {
		w.scrolling = false
		w.emit(model.GestureEvent{Phase: model.GestureEnd})
	})
	scrollCtrl.ConnectDecelerate(func(velX, velY float64) {
		w.kinetic = true
	})
	w.window.AddController(scrollCtrl)
}

func (w *Window) emit(ev model.GestureEvent) {
	if w.hasPointer {
		ev.Position = model.Point{X: w.rect.X + w.pointer.X, Y: w.rect.Y + w.pointer.Y}
		ev.HasPosition = true
	}

	w.mu.Lock()
	subs := make([]func(model.GestureEvent), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribe implements platform.Window.
func (w *Window) Subscribe(fn func(model.GestureEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

func (w *Window) applyMargins() {
	top, left := layerMargins(w.monitor, w.rect)
	layershell.SetMargin(w.window, layershell.LayerShellEdgeTop, top)
	layershell.SetMargin(w.window, layershell.LayerShellEdgeLeft, left)
}

// Reposition implements platform.Window.
func (w *Window) Reposition(rect model.Rect) {
	if w.closed || rect == w.rect {
		return
	}
	w.rect = rect
	w.window.SetDefaultSize(rect.Width, rect.Height)
	w.window.SetSizeRequest(rect.Width, rect.Height)
	w.applyMargins()
	w.logger.Debug("surface repositioned", "rect", rect.String())
}

// Show implements platform.Window.
func (w *Window) Show() {
	if w.closed {
		return
	}
	w.window.Present()
}

// Close implements platform.Window.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true

	w.mu.Lock()
	w.subs = make(map[int]func(model.GestureEvent))
	w.mu.Unlock()

	w.window.Destroy()
}

// SetAlpha implements platform.Window.
func (w *Window) SetAlpha(alpha float64) {
	if w.closed {
		return
	}
	w.window.SetOpacity(alpha)
}

// SetPrivacyMode implements platform.Window. In privacy mode only the pill
// is drawn.
func (w *Window) SetPrivacyMode(enabled bool) {
	if w.closed || w.privacy == enabled {
		return
	}
	w.privacy = enabled
	if enabled {
		w.root.AddCSSClass("privacy")
		w.content.SetVisible(false)
	} else {
		w.root.RemoveCSSClass("privacy")
	}
}

// Render implements platform.Window.
func (w *Window) Render(view model.SurfaceView) {
	if w.closed {
		return
	}

	for _, class := range w.classes {
		w.root.RemoveCSSClass(class)
	}
	w.classes = viewClasses(view)
	for _, class := range w.classes {
		w.root.AddCSSClass(class)
	}

	peek := view.Peek
	w.peekIcon.SetVisible(peek.Visible)
	w.peekLevel.SetVisible(peek.Visible && !peek.ShowsMediaOrBattery())
	if peek.Visible {
		w.peekIcon.SetFromIconName(peekIconName(peek.Kind, peek.Icon))
		w.peekLevel.SetValue(peek.Value)
	}

	open := view.State == model.ViewOpen && !w.privacy
	w.content.SetVisible(open)
	w.tabLbl.SetText(tabTitle(view.Tab))

	w.expandLbl.SetVisible(open && view.Expanded.Visible)
	if view.Expanded.Visible {
		w.expandLbl.SetText(fmt.Sprintf("%s %.0f%%", view.Expanded.Kind, view.Expanded.Value*100))
	}
}
