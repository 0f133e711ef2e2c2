package scene

import (
	"image"
	"testing"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/gpu/soft"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turntableStub struct{}

func (turntableStub) FrameCount() int { return 256 }

func (turntableStub) Frame(int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 8, 4)), nil
}

func newViewScene(t *testing.T) *Scene {
	t.Helper()
	device := soft.New(200, 200)
	frame := engine2D.Size{W: 200, H: 200}
	r, err := engine2D.NewRenderer(device, frame, 1)
	require.NoError(t, err)
	return New(r, frame, 1)
}

func TestConstrainZoomFrame(t *testing.T) {
	s := newViewScene(t)
	original := engine2D.Rect{X: 10, Y: 10, W: 100, H: 100}

	tests := []struct {
		name string
		next engine2D.Rect
		want engine2D.Rect
	}{
		{"valid frame is kept", engine2D.Rect{X: 20, Y: 30, W: 120, H: 120}, engine2D.Rect{X: 20, Y: 30, W: 120, H: 120}},
		{"larger than the view", engine2D.Rect{X: 0, Y: 0, W: 300, H: 300}, original},
		{"smaller than the minimum", engine2D.Rect{X: 0, Y: 0, W: 40, H: 40}, original},
		{"shifted back from the bottom right", engine2D.Rect{X: 150, Y: 150, W: 100, H: 100}, engine2D.Rect{X: 100, Y: 100, W: 100, H: 100}},
		{"shifted back from the top left", engine2D.Rect{X: -20, Y: -5, W: 100, H: 100}, engine2D.Rect{X: 0, Y: 0, W: 100, H: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.constrainZoomFrame(tt.next, original)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, s.constrainZoomFrame(got, original), "idempotent")
		})
	}
}

func TestZoomingResetsZoomFrame(t *testing.T) {
	s := newViewScene(t)
	s.SetZooming(true)

	assert.True(t, s.Zooming())
	assert.Equal(t, s.ViewFrame(), s.ZoomFrame())
	assert.Equal(t, s.ViewFrame(), s.renderer.Simple.ViewFrame())
}

func TestPinchZoomsAboutTouch(t *testing.T) {
	s := newViewScene(t)
	s.SetZooming(true)

	s.Pinch(2, engine2D.Point{X: 100, Y: 100}, GestureBegan)
	assert.Equal(t, engine2D.Rect{X: 50, Y: 50, W: 100, H: 100}, s.ZoomFrame())
	assert.Equal(t, s.ZoomFrame(), s.renderer.Spinner.ViewFrame())

	// a further 2.5x would go below the minimum zoom size
	s.Pinch(5, engine2D.Point{X: 100, Y: 100}, GestureChanged)
	assert.Equal(t, engine2D.Rect{X: 50, Y: 50, W: 100, H: 100}, s.ZoomFrame())

	s.DoublePan(engine2D.Point{X: 10, Y: -20})
	assert.Equal(t, engine2D.Rect{X: 45, Y: 60, W: 100, H: 100}, s.ZoomFrame())
}

func TestZoomedViewBlocksContentGestures(t *testing.T) {
	s := newViewScene(t)
	s.SetZooming(true)

	// nothing selected and zoomed: these must not panic
	s.Pan(engine2D.Point{X: 5})
	s.Rotate(1)
	s.TouchBegan(engine2D.Point{X: 5, Y: 5})
	s.TouchMoved(engine2D.Point{X: 6, Y: 6})
	s.TouchEnded(engine2D.Point{X: 6, Y: 6})
	s.TouchCancelled()
	assert.True(t, s.panEnabled)
}

func TestScreenOutlineFollowsZoom(t *testing.T) {
	s := newViewScene(t)
	sp := s.AddSpinner(turntableStub{}, nil)
	_, ok := s.ScreenOutline(sp)
	assert.False(t, ok)

	s.WaitForFrames()
	s.Update(1)
	s.Draw()

	sp.SetScale(5)
	side := sp.Sprite().Size().W
	corners, ok := s.ScreenOutline(sp)
	require.True(t, ok)
	assert.InDelta(t, 100-side/2, corners[0].X, 1e-3)
	assert.InDelta(t, 100-side/2, corners[0].Y, 1e-3)
	assert.InDelta(t, 100+side/2, corners[2].X, 1e-3)
	assert.InDelta(t, 100+side/2, corners[2].Y, 1e-3)

	s.SetZooming(true)
	s.Pinch(2, engine2D.Point{X: 100, Y: 100}, GestureBegan)
	corners, _ = s.ScreenOutline(sp)
	assert.InDelta(t, 100-side, corners[0].X, 1e-3)
	assert.InDelta(t, 100+side, corners[2].Y, 1e-3)
}
