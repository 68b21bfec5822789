package display

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/notchd/internal/model"
)

var (
	// ErrNoDisplayUnderPointer is returned when no active display contains
	// the pointer location.
	ErrNoDisplayUnderPointer = errors.New("no display under pointer")
	// ErrNoSurface is returned when the target display has no surface.
	ErrNoSurface = errors.New("display has no surface")
	// ErrClosed is returned after CloseAll.
	ErrClosed = errors.New("surface manager closed")
)

// SurfaceError reports a failure affecting a single display's surface.
type SurfaceError struct {
	Identity model.DisplayIdentity
	Op       string
	Cause    error
}

func (e *SurfaceError) Error() string {
	msg := fmt.Sprintf("surface %s: %s", e.Identity, e.Op)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *SurfaceError) Unwrap() error {
	return e.Cause
}
