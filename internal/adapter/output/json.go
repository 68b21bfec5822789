package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// JSONFormatter formats status as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the status, or the display array, as JSON.
func (f *JSONFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if f.opts.Displays {
		return encoder.Encode(st.Displays)
	}
	return encoder.Encode(st)
}

// YAMLFormatter formats status as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the status, or the display list, as YAML.
func (f *YAMLFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	var v any = st
	if f.opts.Displays {
		v = st.Displays
	}
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
