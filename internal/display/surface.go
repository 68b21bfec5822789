package display

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/notchd/internal/detector"
	"github.com/jmylchreest/notchd/internal/model"
	"github.com/jmylchreest/notchd/internal/platform"
	"github.com/jmylchreest/notchd/internal/sched"
)

// Surface is the live resource bundle for one display identity.
type Surface struct {
	ID       string
	Identity model.DisplayIdentity
	Display  model.Display
	Rect     model.Rect

	State     model.ViewState
	CreatedAt time.Time
	OpenedAt  time.Time

	// Alpha and Privacy mirror what was last applied to the window.
	Alpha   float64
	Privacy bool

	window    platform.Window
	detector  *detector.RegionDetector
	swipe     *detector.Swipe
	unsub     func()
	autoClose *sched.Timer
}

func newSurfaceID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

// Window returns the surface's window resource.
func (s *Surface) Window() platform.Window { return s.window }

// Detector returns the armed region detector, or nil.
func (s *Surface) Detector() *detector.RegionDetector { return s.detector }

// AutoCloseAt returns when a pending auto-close fires, or the zero time.
func (s *Surface) AutoCloseAt() time.Time {
	if !s.autoClose.Active() {
		return time.Time{}
	}
	return s.autoClose.Deadline()
}
