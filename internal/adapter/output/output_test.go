package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/transient"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testStatus() *dbus.StatusReply {
	return &dbus.StatusReply{
		Status: display.Status{
			Tab: model.TabCalendar,
			Peek: model.PeekState{
				Kind:      model.PeekVolume,
				Visible:   true,
				Value:     0.456,
				ExpiresAt: testNow.Add(time.Second),
			},
			Surfaces: []display.SurfaceStatus{{
				Display:     "DELL U2720Q",
				Handle:      "DP-1",
				Rect:        model.Rect{X: 640, Width: 640, Height: 210},
				State:       model.ViewOpen,
				Privacy:     true,
				AutoCloseAt: testNow.Add(3 * time.Second),
			}},
			Displays: []display.DisplayStatus{
				{Identity: "AAAA", Name: "DELL U2720Q", Handle: "DP-1", Primary: true, Eligible: true},
				{Name: "Unknown", Handle: "HDMI-1"},
				{Identity: "BBBB", Name: "Built-in", Handle: "eDP-1"},
			},
			PreferredDisplay: "AAAA",
			RegionDetection:  true,
		},
		PeekStyle: transient.PeekStyleInline,
	}
}

func testOptions() FormatterOptions {
	opts := DefaultFormatterOptions()
	opts.Now = func() time.Time { return testNow }
	return opts
}

func format(t *testing.T, f FormatType, opts FormatterOptions) string {
	t.Helper()
	formatter, err := NewFormatter(f, opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, formatter.Format(&buf, testStatus()))
	return buf.String()
}

func TestNewFormatter_Unknown(t *testing.T) {
	_, err := NewFormatter("xml", testOptions())
	assert.Error(t, err)
}

func TestTextFormatter_Status(t *testing.T) {
	out := format(t, FormatText, testOptions())

	assert.Contains(t, out, "Session:   unlocked")
	assert.Contains(t, out, "Tab:       calendar")
	assert.Contains(t, out, "volume 46%, expires 1 second from now (inline)")
	assert.Contains(t, out, "Expanded:  hidden")
	assert.Contains(t, out, "1 surface:")
	assert.Contains(t, out, "privacy, closes 3 seconds from now")
	assert.NotContains(t, out, "Gestures")
}

func TestTextFormatter_SurfaceCount(t *testing.T) {
	formatter := NewTextFormatter(testOptions())

	st := testStatus()
	st.Surfaces = nil
	var buf bytes.Buffer
	require.NoError(t, formatter.Format(&buf, st))
	assert.Contains(t, buf.String(), "0 surfaces:")

	st = testStatus()
	st.Surfaces = append(st.Surfaces, st.Surfaces[0])
	buf.Reset()
	require.NoError(t, formatter.Format(&buf, st))
	assert.Contains(t, buf.String(), "2 surfaces:")
}

func TestTextFormatter_Displays(t *testing.T) {
	opts := testOptions()
	opts.Displays = true
	out := format(t, FormatText, opts)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "AAAA"))
	assert.Contains(t, lines[0], "[primary, preferred, surface]")
	assert.True(t, strings.HasPrefix(lines[1], "-"))
	assert.NotContains(t, lines[1], "[")
	assert.NotContains(t, lines[2], "[")
}

func TestTextFormatter_Template(t *testing.T) {
	opts := testOptions()
	opts.Displays = true
	opts.Template = "{{.Index}}:{{.Display.Handle}}:{{.Preferred}}"
	out := format(t, FormatText, opts)
	assert.Equal(t, "1:DP-1:true\n2:HDMI-1:false\n3:eDP-1:false\n", out)
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, FormatJSON, testOptions())
	assert.Contains(t, out, `"peek_style": "inline"`)

	var decoded dbus.StatusReply
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, model.TabCalendar, decoded.Tab)
	assert.Equal(t, model.ViewOpen, decoded.Surfaces[0].State)

	opts := testOptions()
	opts.Displays = true
	out = format(t, FormatJSON, opts)
	var displays []display.DisplayStatus
	require.NoError(t, json.Unmarshal([]byte(out), &displays))
	assert.Len(t, displays, 3)
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, FormatYAML, testOptions())
	assert.Contains(t, out, "peek_style: inline")
	assert.Contains(t, out, "tab: calendar")
	assert.Contains(t, out, "state: open")
	assert.NotContains(t, out, "status:")
}

func TestIDsFormatter(t *testing.T) {
	out := format(t, FormatIDs, testOptions())
	assert.Equal(t, "AAAA\nBBBB\n", out)
}

func TestDmenuFormatter(t *testing.T) {
	out := format(t, FormatDmenu, testOptions())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 | DP-1 | DELL U2720Q | primary, preferred, surface | AAAA", lines[0])
	assert.Equal(t, "2 | eDP-1 | Built-in | BBBB", lines[1])

	// A broken template falls back to the default format.
	opts := testOptions()
	opts.Template = "{{.Nope"
	assert.Equal(t, out, format(t, FormatDmenu, opts))
}

func TestWaybar(t *testing.T) {
	st := testStatus()

	ws := Waybar(st)
	assert.Equal(t, "peek", ws.Class)
	assert.Equal(t, "volume 46%", ws.Text)
	assert.Equal(t, 46, ws.Percentage)
	assert.Contains(t, ws.Tooltip, "DELL U2720Q (DP-1): open")

	st.Peek.Kind = model.PeekMusic
	assert.Equal(t, "music", Waybar(st).Text)

	st.Peek.Visible = false
	ws = Waybar(st)
	assert.Equal(t, "open", ws.Class)
	assert.Equal(t, "calendar", ws.Text)

	st.Surfaces[0].State = model.ViewClosed
	assert.Equal(t, "closed", Waybar(st).Class)

	st.Locked = true
	assert.Equal(t, "locked", Waybar(st).Alt)

	st.Surfaces = nil
	assert.Equal(t, "No surfaces", Waybar(st).Tooltip)
}

func TestWaybarFormatter(t *testing.T) {
	out := format(t, FormatWaybar, testOptions())
	var ws WaybarStatus
	require.NoError(t, json.Unmarshal([]byte(out), &ws))
	assert.Equal(t, "peek", ws.Alt)
}
