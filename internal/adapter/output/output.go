// Package output provides output formatters for daemon status.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// Formatter formats a status reply for output.
type Formatter interface {
	// Format writes the formatted status to the writer.
	Format(w io.Writer, st *dbus.StatusReply) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatText   FormatType = "text"
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatIDs    FormatType = "ids"
	FormatDmenu  FormatType = "dmenu"
	FormatWaybar FormatType = "waybar"
)

// ValidFormats returns all format names.
func ValidFormats() []FormatType {
	return []FormatType{FormatText, FormatJSON, FormatYAML, FormatIDs, FormatDmenu, FormatWaybar}
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch format {
	case FormatText, "":
		return NewTextFormatter(opts), nil
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatYAML:
		return NewYAMLFormatter(opts), nil
	case FormatIDs:
		return NewIDsFormatter(), nil
	case FormatDmenu:
		return NewDmenuFormatter(opts), nil
	case FormatWaybar:
		return NewWaybarFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: %v)", format, ValidFormats())
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Displays  bool             // Format the display list instead of the full status
	Template  string           // Custom per-display template for dmenu/text display lists
	Separator string           // Field separator for dmenu format
	Now       func() time.Time // Clock for relative times
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		Separator: " | ",
		Now:       time.Now,
	}
}
