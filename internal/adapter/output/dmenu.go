package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/notchd/internal/dbus"
	"github.com/jmylchreest/notchd/internal/display"
)

// DmenuFormatter formats the display list for dmenu/rofi/fuzzel pickers.
// Each line ends with the identity so the selection can be piped back
// into notch display use -.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{opts: opts, template: parseTemplate("dmenu", opts.Template)}
}

// Format writes one line per resolved display.
func (f *DmenuFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	index := 0
	for _, d := range st.Displays {
		if d.Identity == "" {
			continue
		}
		index++
		line := f.formatLine(newTemplateData(index, d, st))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single display line.
func (f *DmenuFormatter) formatLine(data templateData) string {
	// Use custom template if available
	if line, ok := execute(f.template, data); ok {
		return line
	}

	// Default format: index | handle | name | marks | identity
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	parts := []string{fmt.Sprintf("%d", data.Index), data.Display.Handle, data.Display.Name}
	if marks := data.Marks(); marks != "" {
		parts = append(parts, marks)
	}
	parts = append(parts, string(data.Display.Identity))
	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index     int
	Display   display.DisplayStatus
	Preferred bool
}

func newTemplateData(index int, d display.DisplayStatus, st *dbus.StatusReply) templateData {
	return templateData{
		Index:     index,
		Display:   d,
		Preferred: d.Identity != "" && d.Identity == st.PreferredDisplay,
	}
}

// Marks returns the comma separated role markers of the display.
func (t templateData) Marks() string {
	var marks []string
	if t.Display.Primary {
		marks = append(marks, "primary")
	}
	if t.Preferred {
		marks = append(marks, "preferred")
	}
	if t.Display.Eligible {
		marks = append(marks, "surface")
	}
	return strings.Join(marks, ", ")
}

// parseTemplate parses a custom template. Invalid templates fall back to
// the default format.
func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

func execute(tmpl *template.Template, data templateData) (string, bool) {
	if tmpl == nil {
		return "", false
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", false
	}
	return buf.String(), true
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%d%%", percent(v))
		},
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},
	}
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}
