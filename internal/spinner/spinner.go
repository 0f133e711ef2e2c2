// Package spinner holds the editable state of one turntable object in the scene: where it
// sits, how it is scaled and rotated, which frame it shows and how it is graded.
package spinner

import (
	"image"
	"math"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/mask"
	"spinner-editor/internal/turntable"
	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	PixelsPerLongitude = 10
	PixelsPerLatitude  = 10

	MinScale     = 0.05
	MaxScale     = 5
	DefaultScale = 0.5
)

// ScreenScaleFactor sizes spinners relative to a 1024 point wide reference screen, 50% larger.
func ScreenScaleFactor(screenWidth float32) float32 {
	return 1.5 * screenWidth / 1024
}

// Host is the scene a spinner lives in. The spinner does not own it.
type Host interface {
	Redraw()
	Renderer() *engine2D.Renderer
}

// LoadFunc receives the outcome of a frame request.
type LoadFunc func(err error)

type request struct {
	task *turntable.Task
	done LoadFunc
}

type Spinner struct {
	// Effects is the saved effect set restored by UndoEffects. Nil means the defaults.
	Effects []engine2D.Effect
	// LockedForEditing routes touches to the mask instead of the transform.
	LockedForEditing bool

	host        Host
	loader      *turntable.Loader
	cursor      turntable.Cursor
	sprite      *engine2D.SpinnerSprite
	screenScale float32

	position   engine2D.Point
	scale      float32
	rotation   float32
	zDepth     float32
	dragOffset engine2D.Point
	bounce     engine2D.Bounce

	pending    []request
	frame      image.Image
	frameIndex int
}

// New places a spinner at the center of parentFrame. screenScale is ScreenScaleFactor for
// the current screen.
func New(host Host, loader *turntable.Loader, parentFrame engine2D.Rect, screenScale float32) *Spinner {
	s := &Spinner{
		host:        host,
		loader:      loader,
		cursor:      turntable.NewCursor(loader.Source().FrameCount()),
		screenScale: screenScale,
		dragOffset:  engine2D.Point{X: PixelsPerLongitude / 2, Y: PixelsPerLatitude / 2},
		bounce:      engine2D.NewBounce(),
		frameIndex:  -1,
	}
	s.SetPosition(engine2D.Point{X: parentFrame.W / 2, Y: parentFrame.H / 2})
	s.SetScale(DefaultScale)
	return s
}

func (s *Spinner) Sprite() *engine2D.SpinnerSprite { return s.sprite }
func (s *Spinner) Cursor() turntable.Cursor        { return s.cursor }
func (s *Spinner) Position() engine2D.Point        { return s.position }
func (s *Spinner) Scale() float32                  { return s.scale }
func (s *Spinner) Rotation() float32               { return s.rotation }
func (s *Spinner) ZDepth() float32                 { return s.zDepth }

// Loaded reports whether a first frame has arrived.
func (s *Spinner) Loaded() bool { return s.sprite != nil }

func (s *Spinner) SetZDepth(z float32) {
	s.zDepth = z
	if s.sprite != nil {
		s.sprite.SetZDepth(z)
	}
}

func (s *Spinner) SetPosition(p engine2D.Point) {
	s.position = p
	if s.sprite != nil {
		s.sprite.SetPosition(p)
	}
	s.host.Redraw()
}

// SetScale clamps scale to [MinScale, MaxScale].
func (s *Spinner) SetScale(scale float32) {
	s.scale = min(max(scale, MinScale), MaxScale)
	s.calculateSize()
	s.host.Redraw()
}

// SetRotation keeps the angle within one turn.
func (s *Spinner) SetRotation(radians float32) {
	s.rotation = float32(math.Mod(float64(radians), 2*math.Pi))
	if s.sprite != nil {
		s.sprite.SetRotation(s.rotation)
	}
	s.host.Redraw()
}

func (s *Spinner) calculateSize() {
	if s.sprite == nil {
		return
	}
	side := s.sprite.TextureSize().H * s.scale * s.screenScale
	if side <= 0 {
		return
	}
	s.sprite.SetSize(engine2D.Size{W: side, H: side})
}

func (s *Spinner) Drag(offset engine2D.Point) {
	s.SetPosition(s.position.Add(offset))
}

// Spin turns the object: every PixelsPerLongitude of horizontal movement steps one longitude,
// every PixelsPerLatitude of vertical movement one latitude. The offset is taken in the
// sprite's own frame, so a rotated sprite spins along its own axes.
func (s *Spinner) Spin(offset engine2D.Point) {
	turned := offset.Rotate(-s.rotation)

	s.dragOffset.X -= turned.X
	lonSteps := int(s.dragOffset.X / PixelsPerLongitude)
	s.dragOffset.X = float32(math.Mod(float64(s.dragOffset.X), PixelsPerLongitude))

	s.dragOffset.Y -= turned.Y
	latSteps := int(s.dragOffset.Y / PixelsPerLatitude)
	s.dragOffset.Y = float32(math.Mod(float64(s.dragOffset.Y), PixelsPerLatitude))

	if s.cursor.Rotate(s.cursor.Latitude+latSteps, s.cursor.Longitude+lonSteps) {
		s.loadCurrentFrame(nil)
	}
}

// Load requests the first frame. Once it arrives the sprite is created and the effects reset.
func (s *Spinner) Load(done LoadFunc) {
	s.request(s.cursor.FrameIndex(), func(err error) {
		if err == nil {
			s.resetEffects()
		}
		if done != nil {
			done(err)
		}
	})
}

func (s *Spinner) loadCurrentFrame(done LoadFunc) {
	index := s.cursor.FrameIndex()
	if s.frame != nil && s.frameIndex == index {
		s.applyFrame(s.frame)
		if done != nil {
			done(nil)
		}
		return
	}
	s.request(index, done)
}

func (s *Spinner) request(index int, done LoadFunc) {
	s.pending = append(s.pending, request{task: s.loader.Request(index), done: done})
}

// Pending reports whether frame requests are still outstanding.
func (s *Spinner) Pending() bool { return len(s.pending) > 0 }

// WaitFrames blocks until every requested frame is decoded. Poll still has to apply them.
func (s *Spinner) WaitFrames() { s.loader.Wait() }

// Poll applies finished frame requests in request order. It must run on the render thread.
// Frames superseded by a later spin are dropped; callbacks still run.
func (s *Spinner) Poll() {
	for len(s.pending) > 0 {
		req := s.pending[0]
		img, err, done := req.task.Poll()
		if !done {
			return
		}
		s.pending = s.pending[1:]

		if err == nil {
			s.frame, s.frameIndex = img, req.task.Index
			if req.task.Index == s.cursor.FrameIndex() || s.sprite == nil {
				s.applyFrame(img)
			}
		}
		if req.done != nil {
			req.done(err)
		}
	}
}

func (s *Spinner) applyFrame(img image.Image) {
	r := s.host.Renderer()
	if s.sprite == nil {
		s.sprite = engine2D.NewSpinnerSprite(r, img)
		s.sprite.SetPosition(s.position)
		s.sprite.SetRotation(s.rotation)
		s.sprite.SetZDepth(s.zDepth)
		s.calculateSize()
	} else if s.sprite.Flattened() {
		// the bake stays until the spinner is selected again
		return
	} else {
		s.sprite.Load(r, img)
	}
	s.host.Redraw()
}

// UpdateAnimation advances the selection bounce by dt seconds.
func (s *Spinner) UpdateAnimation(dt float64) {
	if !s.bounce.Running() {
		return
	}
	scale := s.bounce.Advance(dt)
	if s.sprite != nil {
		s.sprite.SetAnimatedScale(scale)
	}
	s.host.Redraw()
}

func (s *Spinner) Bouncing() bool { return s.bounce.Running() }

func (s *Spinner) startBounce() {
	s.bounce.Start()
	s.host.Redraw()
}

func (s *Spinner) Render(r *engine2D.Renderer, snapshotting bool) {
	if s.sprite != nil {
		s.sprite.Render(r, snapshotting)
	}
}

// Select shows the live frame again and plays the bounce.
func (s *Spinner) Select() {
	if s.sprite != nil {
		s.sprite.Expand()
	}
	s.loadCurrentFrame(func(error) { s.startBounce() })
}

// Deselect bakes the sprite.
func (s *Spinner) Deselect() {
	if s.sprite != nil {
		s.sprite.Flatten(s.host.Renderer())
	}
}

func (s *Spinner) UpdateEffect(name string, value float32) {
	if s.sprite != nil {
		s.sprite.Effects[name] = value
	}
	s.host.Redraw()
}

// SaveEffects stores the set UndoEffects goes back to.
func (s *Spinner) SaveEffects(effects []engine2D.Effect) {
	s.Effects = append([]engine2D.Effect(nil), effects...)
}

func (s *Spinner) UndoEffects() { s.resetEffects() }

func (s *Spinner) resetEffects() {
	effects := s.Effects
	if effects == nil {
		effects = engine2D.DefaultEffects()
	}
	for _, e := range effects {
		s.UpdateEffect(e.Name, e.Value)
	}
	s.host.Redraw()
}

func (s *Spinner) brush() *mask.Brush {
	if s.sprite == nil {
		return nil
	}
	return s.sprite.Brush
}

func (s *Spinner) MaskDrawStart(p engine2D.Point, drawScale float32) {
	if b := s.brush(); b != nil {
		b.DrawStart(mgl32.Vec2{p.X, p.Y}, drawScale)
	}
	s.host.Redraw()
}

func (s *Spinner) MaskDrawTo(p engine2D.Point) {
	if b := s.brush(); b != nil {
		if err := b.DrawTo(mgl32.Vec2{p.X, p.Y}); err != nil {
			utils.Warn("Spinner: Mask stroke - %v", err)
		}
	}
	s.host.Redraw()
}

func (s *Spinner) MaskDrawStop() {
	if b := s.brush(); b != nil {
		b.DrawStop()
	}
	s.host.Redraw()
}

// ClearLastTouchLocation ends the stroke without a redraw.
func (s *Spinner) ClearLastTouchLocation() {
	if b := s.brush(); b != nil {
		b.DrawStop()
	}
}

func (s *Spinner) DiscardLastBrushStroke() {
	if b := s.brush(); b != nil {
		b.DiscardLastStroke()
	}
	s.host.Redraw()
}

// DiscardBrushStrokes reverts the editing session and unlocks the spinner.
func (s *Spinner) DiscardBrushStrokes() {
	if b := s.brush(); b != nil {
		b.DiscardChanges()
	}
	s.LockedForEditing = false
	s.host.Redraw()
}

// SaveBrushStrokes commits the editing session and unlocks the spinner.
func (s *Spinner) SaveBrushStrokes() {
	if b := s.brush(); b != nil {
		b.SaveChanges()
	}
	s.LockedForEditing = false
	s.host.Redraw()
}

func (s *Spinner) SetBrushType(t mask.Type) {
	if b := s.brush(); b != nil {
		b.Type = t
	}
}

func (s *Spinner) SetBrushSize(size float32) {
	if b := s.brush(); b != nil {
		b.LineSize = size
	}
}

// TranslatePoint maps a scene point to mask pixels. Without a sprite the point is returned as is.
func (s *Spinner) TranslatePoint(p engine2D.Point, viewRect engine2D.Rect) engine2D.Point {
	if s.sprite == nil {
		return p
	}
	return s.sprite.TranslatePoint(p, viewRect, false)
}

// Delete frees the sprite. Outstanding frame requests are abandoned.
func (s *Spinner) Delete() {
	s.pending = nil
	if s.sprite != nil {
		s.sprite.Delete()
		s.sprite = nil
	}
}
