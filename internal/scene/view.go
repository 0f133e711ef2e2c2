package scene

import (
	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/spinner"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minZoomSize = 50
	// toolbarHeight is the height of UI bars overlapping the frame top and bottom.
	toolbarHeight = 0
)

// GestureState is the phase of a continuous gesture.
type GestureState int

const (
	GestureBegan GestureState = iota
	GestureChanged
	GestureEnded
)

func (s *Scene) ViewFrame() engine2D.Rect { return s.viewFrame }
func (s *Scene) ZoomFrame() engine2D.Rect { return s.zoomFrame }
func (s *Scene) Zooming() bool            { return s.zooming }

// SetZooming switches between the fitted view and the zoom frame, which starts at the view.
func (s *Scene) SetZooming(zooming bool) {
	s.zooming = zooming
	s.zoomFrame = s.viewFrame
	s.calcView()
}

func (s *Scene) setViewFrame(r engine2D.Rect) {
	s.viewFrame = r
	s.calcView()
}

func (s *Scene) setZoomFrame(r engine2D.Rect) {
	s.zoomFrame = r
	s.calcView()
}

func (s *Scene) zoomedViewFrame() engine2D.Rect {
	if s.zooming {
		return s.zoomFrame
	}
	return s.viewFrame
}

func (s *Scene) calcView() {
	s.renderer.SetSceneView(s.zoomedViewFrame())
	s.dirty = true
}

// constrainZoomFrame keeps a zoom frame inside the view. Frames larger than the view or
// smaller than minZoomSize fall back to original before being shifted back inside.
func (s *Scene) constrainZoomFrame(next, original engine2D.Rect) engine2D.Rect {
	view := s.viewFrame
	minSize := min(next.H, next.W)
	scale := minSize / min(view.H, view.W)

	// the view origin y is 0, so the bottom edge is derived from the frame height
	adjustedMaxY := view.MaxY()
	if view.H > s.frame.H-2*toolbarHeight {
		adjustedMaxY += scale / 2 * (view.H - s.frame.H + 2*toolbarHeight)
	}

	calibrated := next
	if next.W > view.W || next.H > view.H {
		calibrated = original
	} else if minSize < minZoomSize {
		calibrated = original
	}

	var dx, dy float32
	if calibrated.MinX() < view.MinX() {
		dx = view.MinX() - calibrated.MinX()
	} else if calibrated.MaxX() > view.MaxX() {
		dx = view.MaxX() - calibrated.MaxX()
	}

	if calibrated.MinY() < view.MinY() {
		dy = view.MinY() - calibrated.MinY()
	} else if calibrated.MaxY() > adjustedMaxY {
		dy = adjustedMaxY - calibrated.MaxY()
	}

	return calibrated.Offset(dx, dy)
}

// Pan is a one-finger drag: it spins the selection unless the view is zoomed.
func (s *Scene) Pan(translation engine2D.Point) {
	if s.zooming || !s.panEnabled || s.current == nil {
		return
	}
	s.current.Spin(translation)
	s.listener.ContentChanged()
}

// DoublePan is a two-finger drag: it pans the zoom frame, or moves the selection.
func (s *Scene) DoublePan(translation engine2D.Point) {
	if s.zooming {
		zoomScale := s.viewFrame.W / s.zoomFrame.W
		next := s.zoomFrame.Offset(-translation.X/zoomScale, -translation.Y/zoomScale)
		s.setZoomFrame(s.constrainZoomFrame(next, s.zoomFrame))
		return
	}
	if s.current == nil {
		return
	}
	viewScale := s.viewFrame.W / s.frame.W
	s.current.Drag(translation.Scale(viewScale))
	s.listener.ContentChanged()
}

// Pinch zooms about location while zoomed, otherwise scales the selection.
// scale is the cumulative pinch factor since the gesture began.
func (s *Scene) Pinch(scale float32, location engine2D.Point, state GestureState) {
	if state == GestureEnded || scale <= 0 {
		return
	}
	if state == GestureBegan {
		s.pinchLast = 1
		if s.current != nil {
			s.pinchBase = s.current.Scale()
		}
	}
	step := scale / s.pinchLast
	s.pinchLast = scale

	if s.zooming {
		k := 1 / step
		currentZoomScale := s.zoomFrame.W / s.viewFrame.W
		hRatio := s.viewFrame.H / s.frame.H
		wRatio := s.viewFrame.W / s.frame.W

		anchor := engine2D.Point{
			X: s.zoomFrame.MinX() + location.X*currentZoomScale*wRatio,
			Y: s.zoomFrame.MinY() + location.Y*currentZoomScale*hRatio,
		}
		next := s.zoomFrame.ScaleAbout(anchor, k)
		s.setZoomFrame(s.constrainZoomFrame(next, s.zoomFrame))
		return
	}

	if s.current == nil {
		return
	}
	s.current.SetScale(s.pinchBase * scale)
	s.listener.ContentChanged()
}

// Rotate turns the selection by radians unless the view is zoomed.
func (s *Scene) Rotate(radians float32) {
	if s.zooming || s.current == nil {
		return
	}
	s.current.SetRotation(s.current.Rotation() + radians)
	s.listener.ContentChanged()
}

// editing returns the selection if touches should paint its mask.
func (s *Scene) editing() *spinner.Spinner {
	if s.current == nil || !s.current.LockedForEditing {
		return nil
	}
	return s.current
}

// TouchBegan starts a mask stroke on the locked selection. Multi-touch is ignored.
func (s *Scene) TouchBegan(touches ...engine2D.Point) {
	if len(touches) != 1 {
		return
	}
	sp := s.editing()
	if sp == nil {
		return
	}
	s.panEnabled = false

	zoom := s.zoomFrame
	if zoom.IsEmpty() {
		zoom = s.viewFrame
	}
	zoomScale := s.viewFrame.W / zoom.W
	viewScale := s.frame.W / s.viewFrame.W
	sp.MaskDrawStart(s.convertPointToSpinner(touches[0], sp), viewScale*zoomScale)
}

func (s *Scene) TouchMoved(touches ...engine2D.Point) {
	if len(touches) != 1 {
		return
	}
	if sp := s.editing(); sp != nil {
		sp.MaskDrawTo(s.convertPointToSpinner(touches[0], sp))
	}
}

func (s *Scene) TouchEnded(touches ...engine2D.Point) {
	if s.current == nil {
		return
	}
	if sp := s.editing(); sp != nil && len(touches) == 1 {
		sp.MaskDrawTo(s.convertPointToSpinner(touches[0], sp))
	}
	s.panEnabled = true
	s.current.ClearLastTouchLocation()
}

// TouchCancelled drops the stroke in progress.
func (s *Scene) TouchCancelled() {
	if sp := s.editing(); sp != nil {
		sp.DiscardLastBrushStroke()
	}
	s.panEnabled = true
}

func (s *Scene) convertPointToSpinner(p engine2D.Point, sp *spinner.Spinner) engine2D.Point {
	vp := s.renderer.ViewportRect()
	ns := s.nativeScale
	viewRect := engine2D.Rect{
		X: float32(vp.Min.X) / ns,
		Y: float32(vp.Min.Y) / ns,
		W: float32(vp.Dx()) / ns,
		H: float32(vp.Dy()) / ns,
	}
	return sp.TranslatePoint(p, viewRect)
}

// ScreenOutline returns the corners of sp in window units, clockwise from the quad origin,
// using the same mapping as the last draw. It is false until sp has a sprite.
func (s *Scene) ScreenOutline(sp *spinner.Spinner) ([4]engine2D.Point, bool) {
	var out [4]engine2D.Point
	sprite := sp.Sprite()
	if sprite == nil {
		return out, false
	}
	r := s.renderer
	mv := r.Spinner.View().Mul4(sprite.ModelMatrix())
	vp := r.ViewportRect()
	ns := s.nativeScale
	k := float32(vp.Dx()) / ns / s.frame.W

	for i, c := range [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		p := mv.Mul4x1(mgl32.Vec4{c[0], c[1], 0, 1})
		out[i] = engine2D.Point{
			X: float32(vp.Min.X)/ns + p[0]*k,
			Y: float32(vp.Min.Y)/ns + p[1]*k,
		}
	}
	return out, true
}
