package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/notchd/internal/dbus"
)

// IDsFormatter outputs just the display identities, one per line.
// Useful for piping to other commands (e.g., notch display use -).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes the identity of every resolved display, one per line.
func (f *IDsFormatter) Format(w io.Writer, st *dbus.StatusReply) error {
	for _, d := range st.Displays {
		if d.Identity == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, d.Identity); err != nil {
			return err
		}
	}
	return nil
}
