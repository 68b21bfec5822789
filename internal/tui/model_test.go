package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
)

type fakeController struct {
	reply     *dbus.StatusReply
	statusErr error
	calls     []string
	tab       model.Tab
	failWith  error
}

func (f *fakeController) Status() (*dbus.StatusReply, error) {
	return f.reply, f.statusErr
}

func (f *fakeController) Toggle() (model.DisplayIdentity, error) {
	f.calls = append(f.calls, "toggle")
	return "", f.failWith
}

func (f *fakeController) TogglePeek() error {
	f.calls = append(f.calls, "toggle-peek")
	return f.failWith
}

func (f *fakeController) ClearPeek() error {
	f.calls = append(f.calls, "clear-peek")
	return f.failWith
}

func (f *fakeController) SetTab(tab model.Tab) error {
	f.calls = append(f.calls, "tab")
	f.tab = tab
	return f.failWith
}

func (f *fakeController) Reconcile() error {
	f.calls = append(f.calls, "reconcile")
	return f.failWith
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testReply() *dbus.StatusReply {
	return &dbus.StatusReply{
		Status: display.Status{
			Tab:    model.TabHome,
			Locked: true,
			Peek:   model.PeekState{Kind: model.PeekVolume, Visible: true, Value: 0.4},
			Surfaces: []display.SurfaceStatus{{
				ID:          "s1",
				Display:     "DELL U2720Q",
				Handle:      "DP-1",
				Rect:        model.Rect{X: 640, Width: 640, Height: 210},
				State:       model.ViewOpen,
				OpenedAt:    testNow.Add(-2 * time.Second),
				AutoCloseAt: testNow.Add(time.Second),
			}},
			Reconciles: 3,
		},
	}
}

func newTestModel(ctl Controller) Model {
	m := New(ctl, time.Second)
	m.now = func() time.Time { return testNow }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_DefaultInterval(t *testing.T) {
	m := New(&fakeController{}, 0)
	assert.Equal(t, DefaultRefreshInterval, m.interval)
}

func TestModel_StatusRendered(t *testing.T) {
	ctl := &fakeController{reply: testReply()}
	m := newTestModel(ctl)

	assert.Contains(t, m.View(), "Connecting")

	m, _ = update(t, m, m.fetch()())
	view := m.View()
	assert.Contains(t, view, "locked")
	assert.Contains(t, view, "volume 40%")
	assert.Contains(t, view, "DELL U2720Q")
	assert.Contains(t, view, "DP-1")

	rows := m.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "open", rows[0][2])
	assert.Equal(t, "640x210+640+0", rows[0][3])
	assert.Equal(t, "-", rows[0][4])
	assert.Equal(t, "2 seconds ago", rows[0][5])
	assert.Equal(t, "1 second from now", rows[0][6])
}

func TestModel_DaemonNotRunning(t *testing.T) {
	ctl := &fakeController{statusErr: dbus.ErrDaemonNotRunning}
	m := newTestModel(ctl)

	m, _ = update(t, m, m.fetch()())
	assert.Contains(t, m.View(), "daemon not running")

	// Recovery clears the error.
	ctl.statusErr = nil
	ctl.reply = testReply()
	m, _ = update(t, m, m.fetch()())
	assert.NotContains(t, m.View(), "daemon not running")
}

func TestModel_Actions(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		call string
	}{
		{"toggle", runes("t"), "toggle"},
		{"toggle enter", tea.KeyMsg{Type: tea.KeyEnter}, "toggle"},
		{"toggle peek", runes("p"), "toggle-peek"},
		{"clear peek", runes("c"), "clear-peek"},
		{"reconcile", runes("r"), "reconcile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{reply: testReply()}
			m := newTestModel(ctl)

			_, cmd := update(t, m, tt.key)
			require.NotNil(t, cmd)
			msg := cmd()
			assert.IsType(t, actionResultMsg{}, msg)
			assert.Equal(t, []string{tt.call}, ctl.calls)
		})
	}
}

func TestModel_TabCycling(t *testing.T) {
	ctl := &fakeController{reply: testReply()}
	m := newTestModel(ctl)

	// Without a status there is no current tab to cycle from.
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)

	m, _ = update(t, m, m.fetch()())

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, model.TabHome.Next(), ctl.tab)

	_, cmd = update(t, m, runes("h"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, model.TabHome.Prev(), ctl.tab)
}

func TestModel_ActionResultStatusLine(t *testing.T) {
	m := newTestModel(&fakeController{reply: testReply()})

	m, cmd := update(t, m, actionResultMsg{text: "reconcile"})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "reconcile")
	assert.False(t, m.statusErr)

	m, _ = update(t, m, actionResultMsg{text: "toggle", err: errors.New("boom")})
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "toggle failed: boom")

	m, _ = update(t, m, clearStatusMsg{})
	assert.Empty(t, m.statusMsg)
}

func TestModel_HelpAndQuit(t *testing.T) {
	m := newTestModel(&fakeController{})

	m, _ = update(t, m, runes("?"))
	assert.True(t, m.showHelp)
	assert.True(t, m.help.ShowAll)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSurfaceRows_Region(t *testing.T) {
	reply := testReply()
	region := model.Rect{Width: 185, Height: 32}
	reply.Surfaces[0].Region = &region
	reply.Surfaces[0].DetectorArmed = true
	reply.Surfaces[0].OpenedAt = time.Time{}

	rows := surfaceRows(reply, testNow)
	require.Len(t, rows, 1)
	assert.Equal(t, "armed", rows[0][4])
	assert.Equal(t, "-", rows[0][5])

	assert.Nil(t, surfaceRows(nil, testNow))
}

func TestClipboardCommand(t *testing.T) {
	installed := func(names ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			for _, n := range names {
				if n == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		}
	}

	assert.Equal(t, []string{"wl-copy"}, clipboardCommand(true, installed("wl-copy", "xclip")))
	assert.Equal(t, []string{"xclip", "-selection", "clipboard"}, clipboardCommand(false, installed("wl-copy", "xclip")))
	assert.Equal(t, []string{"xsel", "--clipboard", "--input"}, clipboardCommand(true, installed("xsel")))
	assert.Nil(t, clipboardCommand(false, installed()))
}
