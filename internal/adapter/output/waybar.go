package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// WaybarFormatter formats status for a Waybar custom module:
//
//	"custom/notch": {
//	  "exec": "notch status --format waybar",
//	  "interval": 1,
//	  "return-type": "json",
//	  "on-click": "notch toggle"
//	}
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// Format writes a single Waybar JSON object.
func (f *WaybarFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	return json.NewEncoder(w).Encode(Waybar(st))
}

// Waybar converts a status reply to the Waybar format. The class is one of
// locked, peek, open or closed, in that order of precedence.
func Waybar(st *dbus.StatusReply) WaybarStatus {
	open := 0
	for _, s := range st.Surfaces {
		if s.State == model.ViewOpen {
			open++
		}
	}

	ws := WaybarStatus{Tooltip: buildTooltip(st)}
	switch {
	case st.Locked:
		ws.Class = "locked"
	case st.Peek.Visible:
		ws.Class = "peek"
		ws.Text = fmt.Sprintf("%s %d%%", st.Peek.Kind, percent(st.Peek.Value))
		if st.Peek.Kind == model.PeekMusic {
			ws.Text = string(st.Peek.Kind)
		}
		ws.Percentage = percent(st.Peek.Value)
	case open > 0:
		ws.Class = "open"
		ws.Text = string(st.Tab)
	default:
		ws.Class = "closed"
	}
	ws.Alt = ws.Class
	return ws
}

// buildTooltip lists every surface with its state.
func buildTooltip(st *dbus.StatusReply) string {
	if len(st.Surfaces) == 0 {
		return "No surfaces"
	}
	lines := make([]string, 0, len(st.Surfaces)+1)
	if st.Expanded.Visible {
		lines = append(lines, fmt.Sprintf("Expanded: %s %d%%", st.Expanded.Kind, percent(st.Expanded.Value)))
	}
	for _, s := range st.Surfaces {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", s.Display, s.Handle, s.State))
	}
	return strings.Join(lines, "\n")
}
