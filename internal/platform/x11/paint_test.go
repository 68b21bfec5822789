package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notchd/internal/model"
)

var openRect = model.Rect{X: 640, Y: 0, Width: 640, Height: 210}

func TestSurfaceGeometry(t *testing.T) {
	open := model.SurfaceView{State: model.ViewOpen}
	assert.Equal(t, openRect, surfaceGeometry(openRect, open, false))

	// Privacy keeps the pill even when open.
	pill := surfaceGeometry(openRect, open, true)
	assert.Equal(t, model.Rect{X: 868, Y: 0, Width: pillWidth, Height: pillHeight}, pill)

	closed := model.SurfaceView{State: model.ViewClosed}
	assert.Equal(t, pill, surfaceGeometry(openRect, closed, false))

	// A level peek widens the pill.
	closed.Peek = model.PeekState{Kind: model.PeekVolume, Visible: true, Value: 0.5}
	wide := surfaceGeometry(openRect, closed, false)
	assert.Equal(t, pillWidth+2*pillHeight, wide.Width)
	assert.Equal(t, openRect.X+openRect.Width/2, wide.X+wide.Width/2)

	// Media peeks don't.
	closed.Peek.Kind = model.PeekMusic
	assert.Equal(t, pill, surfaceGeometry(openRect, closed, false))

	// Never larger than the surface.
	tiny := model.Rect{Width: 100, Height: 20}
	assert.Equal(t, model.Size{Width: 100, Height: 20}, surfaceGeometry(tiny, model.SurfaceView{}, false).Size())
}

func TestPaintOps_Closed(t *testing.T) {
	size := model.Size{Width: pillWidth, Height: pillHeight}
	ops := paintOps(size, model.SurfaceView{}, false)
	require.Len(t, ops, 1)
	assert.Equal(t, model.Rect{Width: pillWidth, Height: pillHeight}, ops[0].Rect)
	assert.Equal(t, uint32(ColorBackground), ops[0].Color)
}

func TestPaintOps_LevelPeek(t *testing.T) {
	size := model.Size{Width: pillWidth + 2*pillHeight, Height: pillHeight}
	view := model.SurfaceView{Peek: model.PeekState{Kind: model.PeekVolume, Visible: true, Value: 0.5}}

	ops := paintOps(size, view, false)
	require.Len(t, ops, 3)
	track, level := ops[1], ops[2]
	assert.Equal(t, uint32(ColorTrack), track.Color)
	assert.Equal(t, uint32(ColorAccent), level.Color)
	assert.Equal(t, track.Rect.Width/2, level.Rect.Width)
	assert.Equal(t, size.Width-paintPadding, track.Rect.X+track.Rect.Width)

	// A muted mic draws an empty track only.
	view.Peek = model.PeekState{Kind: model.PeekMic, Visible: true, Value: 0}
	ops = paintOps(size, view, false)
	require.Len(t, ops, 2)

	// Values are clamped.
	view.Peek = model.PeekState{Kind: model.PeekBrightness, Visible: true, Value: 3}
	ops = paintOps(size, view, false)
	require.Len(t, ops, 3)
	assert.Equal(t, ops[1].Rect, ops[2].Rect)
}

func TestPaintOps_OpenTabs(t *testing.T) {
	size := openRect.Size()
	view := model.SurfaceView{State: model.ViewOpen, Tab: model.TabCalendar}

	ops := paintOps(size, view, false)
	require.Len(t, ops, 1+len(model.Tabs()))
	assert.Equal(t, uint32(ColorTabIdle), ops[1].Color)
	assert.Equal(t, uint32(ColorTabActive), ops[2].Color)
	assert.Equal(t, uint32(ColorTabIdle), ops[3].Color)

	// Privacy hides the open content.
	assert.Len(t, paintOps(size, view, true), 1)

	view.Expanded = model.ExpandedState{Kind: model.PeekDownload, Visible: true, Value: 0.25}
	ops = paintOps(size, view, false)
	require.Len(t, ops, 1+len(model.Tabs())+2)
	bar := ops[len(ops)-1]
	assert.Equal(t, uint32(ColorAccent), bar.Color)
	assert.Equal(t, (size.Width-2*paintPadding)/4, bar.Rect.Width)
}

func TestScrollDelta(t *testing.T) {
	dx, dy, ok := scrollDelta(buttonScrollDown)
	require.True(t, ok)
	assert.Equal(t, 0.0, dx)
	assert.Equal(t, float64(wheelStep), dy)

	dx, _, ok = scrollDelta(buttonScrollLeft)
	require.True(t, ok)
	assert.Equal(t, float64(-wheelStep), dx)

	_, _, ok = scrollDelta(1)
	assert.False(t, ok)
}
