package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// TextFormatter formats status as human readable text.
type TextFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts FormatterOptions) *TextFormatter {
	return &TextFormatter{opts: opts, template: parseTemplate("text", opts.Template)}
}

// Format writes the status summary, or the display list.
func (f *TextFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	var sb strings.Builder
	if f.opts.Displays {
		f.writeDisplays(&sb, st)
	} else {
		writeStatus(&sb, st, f.opts.Now())
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func relTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// writeStatus prints the process-wide state followed by every surface.
func writeStatus(sb *strings.Builder, st *dbus.StatusReply, now time.Time) {
	lock := "unlocked"
	if st.Locked {
		lock = "locked"
	}
	if st.Masked {
		lock += ", masked"
	}
	fmt.Fprintf(sb, "Session:   %s\n", lock)
	fmt.Fprintf(sb, "Tab:       %s\n", st.Tab)

	if st.Peek.Visible {
		peek := fmt.Sprintf("%s %d%%", st.Peek.Kind, percent(st.Peek.Value))
		if !st.Peek.ExpiresAt.IsZero() {
			peek += ", expires " + relTime(st.Peek.ExpiresAt, now)
		}
		fmt.Fprintf(sb, "Peek:      %s (%s)\n", peek, st.PeekStyle)
	} else {
		fmt.Fprintf(sb, "Peek:      hidden (%s)\n", st.PeekStyle)
	}

	if st.Expanded.Visible {
		expanded := fmt.Sprintf("%s %d%%", st.Expanded.Kind, percent(st.Expanded.Value))
		if st.Expanded.Source != "" {
			expanded += " from " + st.Expanded.Source
		}
		fmt.Fprintf(sb, "Expanded:  %s\n", expanded)
	} else {
		sb.WriteString("Expanded:  hidden\n")
	}
	if st.MicActive {
		sb.WriteString("Mic:       active\n")
	}

	mode := "preferred display"
	if st.ShowOnAllDisplays {
		mode = "all displays"
	}
	fmt.Fprintf(sb, "Placement: %s\n", mode)
	if !st.RegionDetection {
		sb.WriteString("Gestures:  disabled\n")
	}

	fmt.Fprintf(sb, "\n%s:\n", english.Plural(len(st.Surfaces), "surface", "surfaces"))
	for _, s := range st.Surfaces {
		line := fmt.Sprintf("  %-24s %-8s %-6s %s", s.Display, s.Handle, s.State, s.Rect)
		var extra []string
		if s.Privacy {
			extra = append(extra, "privacy")
		}
		if !s.OpenedAt.IsZero() {
			extra = append(extra, "opened "+relTime(s.OpenedAt, now))
		}
		if !s.AutoCloseAt.IsZero() {
			extra = append(extra, "closes "+relTime(s.AutoCloseAt, now))
		}
		if len(extra) > 0 {
			line += "  (" + strings.Join(extra, ", ") + ")"
		}
		sb.WriteString(line + "\n")
	}
}

// writeDisplays prints one line per display, including unresolved ones.
func (f *TextFormatter) writeDisplays(sb *strings.Builder, st *dbus.StatusReply) {
	for i, d := range st.Displays {
		data := newTemplateData(i+1, d, st)
		if line, ok := execute(f.template, data); ok {
			sb.WriteString(line + "\n")
			continue
		}

		id := string(d.Identity)
		if id == "" {
			id = "-"
		}
		line := fmt.Sprintf("%-36s  %-8s %-24s %s", id, d.Handle, d.Name, d.Bounds)
		if marks := data.Marks(); marks != "" {
			line += "  [" + marks + "]"
		}
		sb.WriteString(line + "\n")
	}
}
