package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/jmylchreest/notchd/internal/identity"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
)

// edidLength is the size of an EDID base block.
const edidLength = 128

// Topology reports connected RandR outputs.
type Topology struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	edidAtom xproto.Atom
	logger   *slog.Logger
	changes  chan struct{}
}

var _ platform.TopologySource = (*Topology)(nil)

func newTopology(xu *xgbutil.XUtil, logger *slog.Logger) (*Topology, error) {
	if err := randr.Init(xu.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	t := &Topology{
		xu:      xu,
		root:    xu.RootWin(),
		logger:  logger,
		changes: make(chan struct{}, 1),
	}

	atom, err := xproto.InternAtom(xu.Conn(), true, uint16(len("EDID")), "EDID").Reply()
	if err != nil {
		logger.Debug("EDID atom unavailable", "error", err)
	} else {
		t.edidAtom = atom.Atom
	}

	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskOutputChange | randr.NotifyMaskCrtcChange)
	if err := randr.SelectInputChecked(xu.Conn(), t.root, mask).Check(); err != nil {
		return nil, fmt.Errorf("failed to select randr events: %w", err)
	}

	// RandR events are not core events, so they are picked up with a hook
	// ahead of the regular callbacks.
	xevent.HookFun(func(xu *xgbutil.XUtil, event interface{}) bool {
		switch event.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			t.notify()
		}
		return true
	}).Connect(xu)

	return t, nil
}

func (t *Topology) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// Changes implements platform.TopologySource.
func (t *Topology) Changes() <-chan struct{} {
	return t.changes
}

// Topology implements platform.TopologySource.
func (t *Topology) Topology() (model.Topology, error) {
	conn := t.xu.Conn()

	resources, err := randr.GetScreenResourcesCurrent(conn, t.root).Reply()
	if err != nil {
		return model.Topology{}, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, t.root).Reply(); err == nil {
		primary = reply.Output
	}

	var topo model.Topology
	for _, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disconnected outputs and those without an active CRTC
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}

		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply()
		if err != nil || crtc.Width == 0 || crtc.Height == 0 {
			continue
		}

		d := outputDisplay(string(info.Name), model.Rect{
			X:      int(crtc.X),
			Y:      int(crtc.Y),
			Width:  int(crtc.Width),
			Height: int(crtc.Height),
		}, t.edid(output))
		d.Primary = output == primary
		topo.Displays = append(topo.Displays, d)
	}
	return topo, nil
}

func (t *Topology) edid(output randr.Output) []byte {
	if t.edidAtom == 0 {
		return nil
	}
	reply, err := randr.GetOutputProperty(t.xu.Conn(), output, t.edidAtom,
		xproto.AtomAny, 0, edidLength/4, false, false).Reply()
	if err != nil || len(reply.Data) < edidLength {
		return nil
	}
	return reply.Data[:edidLength]
}

// outputDisplay builds a display from a RandR output. The EDID supplies the
// hardware identity and the user-facing name when present.
func outputDisplay(name string, bounds model.Rect, edid []byte) model.Display {
	d := model.Display{
		Handle: name,
		Name:   name,
		Bounds: bounds,
	}
	if len(edid) == 0 {
		return d
	}

	d.EDID = edid
	d.Manufacturer = identity.EDIDVendor(edid)
	if product := identity.EDIDName(edid); product != "" {
		d.Model = product
		d.Name = product
	}
	return d
}
