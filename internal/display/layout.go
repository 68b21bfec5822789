package display

import "github.com/jmylchreest/notchd/internal/model"

// WindowRect returns the window geometry for a display frame: the open
// surface size plus shadow padding, centred horizontally and top-aligned.
func WindowRect(frame model.Rect, prefs model.Preferences) model.Rect {
	return frame.TopCenter(prefs.WindowSize())
}

// RegionRect returns the region watched by a display's region detector: the
// open surface footprint at the top centre of the frame.
func RegionRect(frame model.Rect, prefs model.Preferences) model.Rect {
	return frame.TopCenter(prefs.SurfaceSize)
}
