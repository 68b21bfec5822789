// Package tui provides the BubbleTea-based live view of a running daemon.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/model"
)

// DefaultRefreshInterval is how often the daemon status is polled.
const DefaultRefreshInterval = 500 * time.Millisecond

// Controller is the subset of the control client the TUI drives.
type Controller interface {
	Status() (*dbus.StatusReply, error)
	Toggle() (model.DisplayIdentity, error)
	TogglePeek() error
	ClearPeek() error
	SetTab(tab model.Tab) error
	Reconcile() error
}

// Model is the main TUI model.
type Model struct {
	ctl      Controller
	interval time.Duration
	now      func() time.Time

	// Components
	table table.Model
	help  help.Model
	keys  KeyMap

	// State
	status   *dbus.StatusReply
	err      error
	showHelp bool
	width    int
	height   int

	// Status message
	statusMsg string
	statusErr bool
}

type statusResultMsg struct {
	reply *dbus.StatusReply
	err   error
}

type tickMsg time.Time

type actionResultMsg struct {
	text string
	err  error
}

type clearStatusMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func surfaceColumns() []table.Column {
	return []table.Column{
		{Title: "Display", Width: 22},
		{Title: "Handle", Width: 10},
		{Title: "State", Width: 7},
		{Title: "Rect", Width: 18},
		{Title: "Region", Width: 7},
		{Title: "Opened", Width: 16},
		{Title: "Auto-close", Width: 16},
	}
}

// New creates a new TUI model.
func New(ctl Controller, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	t := table.New(
		table.WithColumns(surfaceColumns()),
		table.WithFocused(true),
		table.WithHeight(5),
	)

	return Model{
		ctl:      ctl,
		interval: interval,
		now:      time.Now,
		table:    t,
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
}

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m Model) fetch() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		reply, err := ctl.Status()
		return statusResultMsg{reply: reply, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(3, msg.Height-12))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case statusResultMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.reply
			m.table.SetRows(surfaceRows(msg.reply, m.now()))
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.statusMsg = msg.text + " failed: " + msg.err.Error()
			m.statusErr = true
		} else {
			m.statusMsg = msg.text
			m.statusErr = false
		}
		return m, tea.Batch(m.fetch(), tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		}))

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.ctl

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m, action("toggle", func() error {
			_, err := ctl.Toggle()
			return err
		})

	case key.Matches(msg, m.keys.TogglePeek):
		return m, action("toggle peek", ctl.TogglePeek)

	case key.Matches(msg, m.keys.ClearPeek):
		return m, action("clear peek", ctl.ClearPeek)

	case key.Matches(msg, m.keys.Reconcile):
		return m, action("reconcile", ctl.Reconcile)

	case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
		if m.status == nil {
			return m, nil
		}
		tab := m.status.Tab.Next()
		if key.Matches(msg, m.keys.PrevTab) {
			tab = m.status.Tab.Prev()
		}
		return m, action("tab "+string(tab), func() error {
			return ctl.SetTab(tab)
		})

	case key.Matches(msg, m.keys.Copy):
		if m.status == nil {
			return m, nil
		}
		status := *m.status
		return m, action("copied status", func() error {
			data, err := yaml.Marshal(status)
			if err != nil {
				return err
			}
			return copyText(string(data))
		})
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func action(text string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{text: text, err: fn()}
	}
}

// surfaceRows converts live surfaces into table rows.
func surfaceRows(reply *dbus.StatusReply, now time.Time) []table.Row {
	if reply == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(reply.Surfaces))
	for _, s := range reply.Surfaces {
		region := "-"
		if s.Region != nil {
			region = "idle"
			if s.DetectorArmed {
				region = "armed"
			}
		}
		rows = append(rows, table.Row{
			s.Display,
			s.Handle,
			s.State.String(),
			s.Rect.String(),
			region,
			relative(s.OpenedAt, now),
			relative(s.AutoCloseAt, now),
		})
	}
	return rows
}

func relative(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("notchd") + "\n\n")

	switch {
	case errors.Is(m.err, dbus.ErrDaemonNotRunning):
		b.WriteString(errStyle.Render("daemon not running") + "\n")
	case m.err != nil:
		b.WriteString(errStyle.Render("status failed: "+m.err.Error()) + "\n")
	case m.status == nil:
		b.WriteString("Connecting...\n")
	default:
		b.WriteString(renderSummary(m.status))
		b.WriteString("\n")
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		style := labelStyle
		if m.statusErr {
			style = errStyle
		}
		b.WriteString(style.Render(m.statusMsg) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderSummary renders the process-wide state above the surface table.
func renderSummary(st *dbus.StatusReply) string {
	var b strings.Builder

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)) + value + "\n")
	}
	flag := func(on bool, text string) string {
		if on {
			return onStyle.Render(text)
		}
		return text
	}

	lock := "unlocked"
	if st.Locked {
		lock = "locked"
	}
	if st.Masked {
		lock += " (masked)"
	}
	line("Session", flag(st.Locked, lock))
	line("Tab", string(st.Tab))

	peek := "hidden"
	if st.Peek.Visible {
		peek = fmt.Sprintf("%s %.0f%%", st.Peek.Kind, st.Peek.Value*100)
		if st.Peek.Icon != "" {
			peek += " [" + st.Peek.Icon + "]"
		}
	}
	line("Peek", flag(st.Peek.Visible, peek)+labelStyle.Render(" style "+string(st.PeekStyle)))

	expanded := "hidden"
	if st.Expanded.Visible {
		expanded = fmt.Sprintf("%s %.0f%%", st.Expanded.Kind, st.Expanded.Value*100)
		if st.Expanded.Source != "" {
			expanded += " from " + st.Expanded.Source
		}
	}
	line("Expanded", flag(st.Expanded.Visible, expanded))

	mode := "preferred display"
	if st.ShowOnAllDisplays {
		mode = "all displays"
	}
	if st.PreferredDisplay != "" && !st.ShowOnAllDisplays {
		mode += " " + string(st.PreferredDisplay)
	}
	line("Surfaces", fmt.Sprintf("%d on %s, %s reconciles", len(st.Surfaces), mode, humanize.Comma(int64(st.Reconciles))))
	return b.String()
}

// Run starts the TUI against ctl.
func Run(ctl Controller, interval time.Duration) error {
	p := tea.NewProgram(New(ctl, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
