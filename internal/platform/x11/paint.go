package x11

import "github.com/jmylchreest/notchd/internal/model"

// Closed pill footprint.
const (
	pillWidth  = 185
	pillHeight = 32
)

// Colors
const (
	ColorBackground = 0x000000
	ColorTrack      = 0x3a3a3a
	ColorAccent     = 0x3584e4
	ColorMuted      = 0xe01b24
	ColorTabActive  = 0xffffff
	ColorTabIdle    = 0x5e5c64
)

const (
	paintPadding = 8
	levelHeight  = 4
	tabDotSize   = 6
	tabDotGap    = 6
)

// fill is one solid rectangle in window-local coordinates.
type fill struct {
	Rect  model.Rect
	Color uint32
}

// surfaceGeometry returns the part of rect the window occupies for view.
// Closed and privacy surfaces shrink to the pill so they don't cover the
// screen below.
func surfaceGeometry(rect model.Rect, view model.SurfaceView, privacy bool) model.Rect {
	if view.State == model.ViewOpen && !privacy {
		return rect
	}
	size := model.Size{Width: pillWidth, Height: pillHeight}
	if view.Peek.Visible && !view.Peek.ShowsMediaOrBattery() {
		// Room for the level indicator beside the notch.
		size.Width += 2 * pillHeight
	}
	size.Width = min(size.Width, rect.Width)
	size.Height = min(size.Height, rect.Height)
	return rect.TopCenter(size)
}

// paintOps returns the fills that draw view into a window of size.
func paintOps(size model.Size, view model.SurfaceView, privacy bool) []fill {
	ops := []fill{{Rect: model.Rect{Width: size.Width, Height: size.Height}, Color: ColorBackground}}

	if view.Peek.Visible && !view.Peek.ShowsMediaOrBattery() {
		ops = append(ops, levelOps(size, view.Peek)...)
	}

	if view.State != model.ViewOpen || privacy {
		return ops
	}

	// Tab indicator dots along the top edge.
	for i, tab := range model.Tabs() {
		color := uint32(ColorTabIdle)
		if tab == view.Tab {
			color = ColorTabActive
		}
		ops = append(ops, fill{
			Rect: model.Rect{
				X:      paintPadding + i*(tabDotSize+tabDotGap),
				Y:      paintPadding,
				Width:  tabDotSize,
				Height: tabDotSize,
			},
			Color: color,
		})
	}

	if view.Expanded.Visible {
		track := model.Rect{
			X:      paintPadding,
			Y:      size.Height - paintPadding - levelHeight,
			Width:  size.Width - 2*paintPadding,
			Height: levelHeight,
		}
		ops = append(ops, fill{Rect: track, Color: ColorTrack})
		track.Width = int(float64(track.Width) * clamp01(view.Expanded.Value))
		if track.Width > 0 {
			ops = append(ops, fill{Rect: track, Color: ColorAccent})
		}
	}
	return ops
}

// levelOps draws a peek value as a short bar at the right of the pill.
func levelOps(size model.Size, peek model.PeekState) []fill {
	width := 2*pillHeight - 2*paintPadding
	track := model.Rect{
		X:      size.Width - paintPadding - width,
		Y:      min(pillHeight, size.Height)/2 - levelHeight/2,
		Width:  width,
		Height: levelHeight,
	}
	if track.X < 0 {
		return nil
	}

	color := uint32(ColorAccent)
	if peek.Kind == model.PeekMic && peek.Value <= 0 {
		color = ColorMuted
	}

	ops := []fill{{Rect: track, Color: ColorTrack}}
	track.Width = int(float64(track.Width) * clamp01(peek.Value))
	if track.Width > 0 {
		ops = append(ops, fill{Rect: track, Color: color})
	}
	return ops
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
