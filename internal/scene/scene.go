// Package scene composites a background, the spinners and a watermark, and turns host
// input into spinner edits.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/export"
	"spinner-editor/internal/mask"
	"spinner-editor/internal/spinner"
	"spinner-editor/internal/turntable"
	"spinner-editor/internal/utils"
)

// BackgroundColor fills the frame around and behind the background.
var BackgroundColor = color.RGBA{52, 52, 52, 255}

const (
	backgroundZ = -100

	watermarkPadding    = 10
	watermarkWidthScale = 0.25
	watermarkAlpha      = 0.3

	// alpha 255 is what the clear leaves behind, so only indices below it can be picked
	maxPickable = 255

	DefaultMaxTextureSize = 4096
)

var ErrNoBackground = errors.New("scene: no background loaded")

// Listener is told about content changes the host may want to reflect.
type Listener interface {
	ContentRemoved(s *spinner.Spinner)
	ContentCountChanged()
	ContentChanged()
}

type nopListener struct{}

func (nopListener) ContentRemoved(*spinner.Spinner) {}
func (nopListener) ContentCountChanged()            {}
func (nopListener) ContentChanged()                 {}

type Option func(*Scene)

func WithListener(l Listener) Option {
	return func(s *Scene) { s.listener = l }
}

// WithScreenScale sets the spinner size factor, see spinner.ScreenScaleFactor.
func WithScreenScale(f float32) Option {
	return func(s *Scene) { s.screenScale = f }
}

// WithWatermark sets the image placed in the bottom-right corner of every background.
func WithWatermark(img image.Image) Option {
	return func(s *Scene) { s.watermarkImage = img }
}

// WithDecodeWorkers bounds the concurrent frame decodes per spinner.
func WithDecodeWorkers(n int) Option {
	return func(s *Scene) { s.workers = n }
}

func WithMaxTextureSize(n int) Option {
	return func(s *Scene) { s.maxTextureSize = n }
}

type Scene struct {
	// BackgroundSelectionMode hides the spinners while the user picks a background.
	BackgroundSelectionMode bool

	renderer    *engine2D.Renderer
	frame       engine2D.Size
	nativeScale float32

	listener       Listener
	screenScale    float32
	workers        int
	maxTextureSize int

	background     *engine2D.ContentSprite
	watermark      *engine2D.ContentSprite
	watermarkImage image.Image
	photoSize      engine2D.Size

	spinners []*spinner.Spinner
	current  *spinner.Spinner

	dirty        bool
	beforeRender []func()

	viewFrame engine2D.Rect
	zoomFrame engine2D.Rect
	zooming   bool

	panEnabled bool
	pinchBase  float32
	pinchLast  float32
}

// New builds a scene drawing into a frame of frameSize on-screen units.
func New(renderer *engine2D.Renderer, frameSize engine2D.Size, nativeScale float32, opts ...Option) *Scene {
	if nativeScale <= 0 {
		nativeScale = 1
	}
	s := &Scene{
		renderer:       renderer,
		frame:          frameSize,
		nativeScale:    nativeScale,
		listener:       nopListener{},
		screenScale:    spinner.ScreenScaleFactor(frameSize.W),
		maxTextureSize: DefaultMaxTextureSize,
		panEnabled:     true,
		pinchLast:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	renderer.FrameSize = frameSize
	renderer.NativeScale = nativeScale
	renderer.RestoreRenderState()
	renderer.Device.EnableBlend(true)

	s.setViewFrame(engine2D.Rect{W: frameSize.W, H: frameSize.H})
	utils.Info("Scene: Ready - frame %.0fx%.0f, spinner scale %.2f", frameSize.W, frameSize.H, s.screenScale)
	return s
}

// Renderer and Redraw make the scene a spinner.Host.
func (s *Scene) Renderer() *engine2D.Renderer { return s.renderer }

// Redraw schedules a draw on the next Draw call.
func (s *Scene) Redraw() { s.dirty = true }

func (s *Scene) Dirty() bool { return s.dirty }

func (s *Scene) Current() *spinner.Spinner { return s.current }

func (s *Scene) ContentCount() int { return len(s.spinners) }

// Spinners returns the content in draw order, back to front.
func (s *Scene) Spinners() []*spinner.Spinner { return slices.Clone(s.spinners) }

// Loading reports whether a spinner is still waiting for its first frame.
func (s *Scene) Loading() bool {
	return slices.ContainsFunc(s.spinners, func(sp *spinner.Spinner) bool {
		return !sp.Loaded() && sp.Pending()
	})
}

func (s *Scene) PhotoSize() engine2D.Size { return s.photoSize }

func (s *Scene) contains(sp *spinner.Spinner) bool {
	return slices.Contains(s.spinners, sp)
}

// Update advances animations and applies decoded frames. It runs on the render thread.
func (s *Scene) Update(dt float64) {
	for _, sp := range slices.Clone(s.spinners) {
		if !s.contains(sp) {
			continue
		}
		sp.Poll()
		sp.UpdateAnimation(dt)
	}
}

// WaitForFrames blocks until every outstanding frame decode finished, then applies them.
func (s *Scene) WaitForFrames() {
	for _, sp := range s.spinners {
		sp.WaitFrames()
	}
	s.Update(0)
}

// Draw renders the scene if something changed since the last draw and reports whether it did.
func (s *Scene) Draw() bool {
	if !s.dirty {
		return false
	}
	s.renderer.RestoreRenderState()
	s.drawScene(false)
	s.callBeforeRender()
	s.dirty = false
	return true
}

func (s *Scene) drawScene(snapshotting bool) {
	dev := s.renderer.Device
	dev.ColorMask(true, true, true, true)
	c := BackgroundColor
	dev.ClearColor(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, 1)
	dev.Clear()

	if s.background != nil {
		s.background.Render(s.renderer, snapshotting)
	}

	if !s.BackgroundSelectionMode {
		for i, sp := range s.spinners {
			sp.SetZDepth(float32(i))
			sp.Render(s.renderer, snapshotting)
		}
	}

	if s.watermark != nil {
		s.watermark.Render(s.renderer, snapshotting)
	}
}

func (s *Scene) beforeNextRender(forceRedraw bool, fn func()) {
	if forceRedraw {
		s.dirty = true
	}
	s.beforeRender = append(s.beforeRender, fn)
}

func (s *Scene) callBeforeRender() {
	funcs := s.beforeRender
	s.beforeRender = nil
	for _, fn := range funcs {
		fn()
	}
}

// LoadBackground fits img into the frame and makes it the backdrop of the scene.
// With forceFullFrame the image is stretched over the whole frame.
func (s *Scene) LoadBackground(img image.Image, selectionMode, forceFullFrame bool) {
	s.BackgroundSelectionMode = selectionMode

	b := img.Bounds()
	s.photoSize = engine2D.Size{W: float32(b.Dx()), H: float32(b.Dy())}

	if s.background != nil {
		s.background.Delete()
	}
	bg := engine2D.NewContentSprite(s.renderer, export.ScaleToFit(img, s.maxTextureSize, s.maxTextureSize), s.renderer.Simple)
	s.background = bg
	size := s.photoSize
	frame := s.frame

	if forceFullFrame {
		s.setViewFrame(engine2D.Rect{W: frame.W, H: frame.H})
		bg.SetSize(frame)
		bg.SetPosition(engine2D.Point{X: frame.W / 2, Y: frame.H / 2})
	} else {
		ratio := frame.W / size.W
		if size.H*ratio >= frame.H {
			ratio = frame.H / size.H
			size = engine2D.Size{W: size.W * ratio, H: frame.H}
			s.setViewFrame(engine2D.Rect{X: frame.W/2 - size.W/2, Y: s.viewFrame.Y, W: size.W, H: size.H})
			bg.SetPosition(engine2D.Point{X: frame.W / 2, Y: size.H / 2})
		} else {
			size = engine2D.Size{W: frame.W, H: size.H * ratio}
			s.setViewFrame(engine2D.Rect{W: size.W, H: size.H})
			bg.SetPosition(engine2D.Point{X: size.W / 2, Y: size.H / 2})
		}
		bg.SetSize(size)
	}
	bg.SetZDepth(backgroundZ)
	s.renderer.BackgroundSize = bg.Size()

	s.addWatermark()
	s.SetZooming(false)
	s.setZoomFrame(engine2D.Rect{})
	s.dirty = true
	utils.Debug("Scene: Background %.0fx%.0f - view %v", s.photoSize.W, s.photoSize.H, s.viewFrame)
}

// BypassBackground backs the scene with a plain frame-sized background.
func (s *Scene) BypassBackground(c color.RGBA) {
	s.LoadBackground(shader.SolidImage(c, max(int(s.frame.W), 1), max(int(s.frame.H), 1)), false, false)
}

func (s *Scene) addWatermark() {
	if s.watermark != nil {
		s.watermark.Delete()
		s.watermark = nil
	}
	if s.watermarkImage == nil {
		return
	}

	wm := engine2D.NewContentSprite(s.renderer, export.ScaleToFit(s.watermarkImage, s.maxTextureSize, s.maxTextureSize), s.renderer.Simple)
	tex := wm.TextureSize()
	width := s.viewFrame.W * watermarkWidthScale
	size := engine2D.Size{W: width, H: width * tex.H / tex.W}
	wm.SetSize(size)
	wm.SetPosition(engine2D.Point{
		X: s.viewFrame.W - size.W/2 - watermarkPadding,
		Y: s.viewFrame.H - size.H/2 - watermarkPadding,
	})
	wm.Premultiplied = true
	wm.Alpha = watermarkAlpha
	s.watermark = wm
}

// WatermarkHidden is true when there is no watermark to show.
func (s *Scene) WatermarkHidden() bool {
	return s.watermark == nil || s.watermark.Hidden
}

func (s *Scene) SetWatermarkHidden(hidden bool) {
	if s.watermark == nil || s.watermark.Hidden == hidden {
		return
	}
	s.watermark.Hidden = hidden
	s.dirty = true
}

// AddSpinner appends a spinner showing source and starts loading its first frame.
// Once the frame arrives the spinner becomes the selection. done may be nil.
func (s *Scene) AddSpinner(source turntable.Source, done func(sp *spinner.Spinner, err error)) *spinner.Spinner {
	loader := turntable.NewLoader(source, s.workers)
	sp := spinner.New(s, loader, s.viewFrame, s.screenScale)
	s.spinners = append(s.spinners, sp)
	if len(s.spinners) > maxPickable {
		utils.Warn("Scene: %d spinners - only the first %d can be picked", len(s.spinners), maxPickable)
	}

	sp.Load(func(err error) {
		if !s.contains(sp) {
			return
		}
		if err != nil {
			utils.Error("Scene: Spinner failed to load - %v", err)
		} else {
			s.spinnerLoaded(sp)
		}
		if done != nil {
			done(sp, err)
		}
	})
	return sp
}

func (s *Scene) spinnerLoaded(sp *spinner.Spinner) {
	if s.current != nil && s.current != sp {
		s.current.Deselect()
	}
	s.current = sp
	sp.Select()
	s.dirty = true
	s.listener.ContentCountChanged()
}

// RemoveContent drops sp. If it was selected, the topmost remaining spinner takes over.
func (s *Scene) RemoveContent(sp *spinner.Spinner) {
	if !s.contains(sp) {
		return
	}
	sp.Deselect()
	s.spinners = slices.DeleteFunc(s.spinners, func(o *spinner.Spinner) bool { return o == sp })

	if s.current == sp {
		s.current = nil
		if n := len(s.spinners); n > 0 {
			s.current = s.spinners[n-1]
			s.current.Select()
		}
	}
	sp.Delete()

	s.listener.ContentRemoved(sp)
	s.listener.ContentCountChanged()
	s.dirty = true
}

func (s *Scene) RemoveAllContent() {
	for _, sp := range s.spinners {
		sp.Delete()
	}
	s.spinners = nil
	s.current = nil
	s.listener.ContentCountChanged()
	s.dirty = true
}

// ClearScene releases the content, the background and the watermark.
func (s *Scene) ClearScene() {
	for _, sp := range s.spinners {
		sp.Delete()
	}
	s.spinners = nil
	s.current = nil
	if s.background != nil {
		s.background.Delete()
		s.background = nil
	}
	if s.watermark != nil {
		s.watermark.Delete()
		s.watermark = nil
	}
	s.renderer.BackgroundSize = engine2D.Size{}
	s.photoSize = engine2D.Size{}
	s.SetZooming(false)
}

// SelectNext moves the selection one spinner up, wrapping to the bottom.
func (s *Scene) SelectNext() {
	if len(s.spinners) == 0 {
		return
	}
	if s.current != nil && len(s.spinners) > 1 {
		if i := slices.Index(s.spinners, s.current); i >= 0 {
			s.current.Deselect()
			s.current = s.spinners[(i+1)%len(s.spinners)]
			s.current.Select()
			return
		}
	}
	s.current = s.spinners[0]
	s.current.Select()
}

// Select makes sp the selection. Reselecting a spinner locked for editing does nothing.
func (s *Scene) Select(sp *spinner.Spinner) {
	if sp == nil || !s.contains(sp) {
		return
	}
	if s.current != nil && s.current.LockedForEditing && s.current == sp {
		return
	}
	if sp != s.current {
		if s.current != nil {
			s.current.Deselect()
		}
		s.current = sp
	}
	s.current.Select()
}

type ZLocation int

const (
	Front ZLocation = iota
	Back
	Up
	Down
)

func (z ZLocation) String() string {
	switch z {
	case Front:
		return "to front"
	case Back:
		return "to back"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("ZLocation(%d)", int(z))
}

// MoveContent reorders sp. Moving the top spinner up or the bottom one down does nothing.
func (s *Scene) MoveContent(sp *spinner.Spinner, loc ZLocation) {
	i := slices.Index(s.spinners, sp)
	if i < 0 {
		return
	}
	switch loc {
	case Front:
		s.spinners = append(slices.Delete(s.spinners, i, i+1), sp)
	case Back:
		s.spinners = slices.Insert(slices.Delete(s.spinners, i, i+1), 0, sp)
	case Up:
		if i >= len(s.spinners)-1 {
			return
		}
		s.spinners[i], s.spinners[i+1] = s.spinners[i+1], s.spinners[i]
	case Down:
		if i == 0 {
			return
		}
		s.spinners[i], s.spinners[i-1] = s.spinners[i-1], s.spinners[i]
	}
	utils.Debug("Scene: Moved spinner %s", loc)
	s.dirty = true
}

// UpdateEffect sets one effect on the selection.
func (s *Scene) UpdateEffect(name string, value float32) {
	if s.current != nil {
		s.current.UpdateEffect(name, value)
	}
}

func (s *Scene) SaveEffects(effects []engine2D.Effect) {
	if s.current != nil {
		s.current.SaveEffects(effects)
	}
}

func (s *Scene) UndoEffects() {
	if s.current != nil {
		s.current.UndoEffects()
	}
}

func (s *Scene) DiscardLastBrushStroke() {
	if s.current != nil {
		s.current.DiscardLastBrushStroke()
	}
}

func (s *Scene) DiscardBrushStrokes() {
	if s.current != nil {
		s.current.DiscardBrushStrokes()
	}
}

func (s *Scene) SaveBrushStrokes() {
	if s.current != nil {
		s.current.SaveBrushStrokes()
	}
}

func (s *Scene) SetBrushType(t mask.Type) {
	if s.current != nil {
		s.current.SetBrushType(t)
	}
}

func (s *Scene) SetBrushSize(size float32) {
	if s.current != nil {
		s.current.SetBrushSize(size)
	}
}

// EnableContentEditorMode zooms in on the view and routes touches to the selection's mask.
func (s *Scene) EnableContentEditorMode() {
	s.SetZooming(true)
	if s.current != nil {
		s.current.LockedForEditing = true
	}
}

// SpinnerAt resolves point to the spinner drawn there. cb runs after the next draw,
// which is forced.
func (s *Scene) SpinnerAt(point engine2D.Point, cb func(sp *spinner.Spinner)) {
	s.beforeNextRender(true, func() {
		cb(s.findSpinnerUsingFramebufferAlpha(point))
	})
}

func (s *Scene) findSpinnerUsingFramebufferAlpha(point engine2D.Point) *spinner.Spinner {
	x := int(point.X * s.nativeScale)
	y := int((s.frame.H - point.Y) * s.nativeScale)
	px := s.renderer.ReadPixel(x, y)

	// the readback leaves the framebuffer unusable for presenting
	s.Redraw()

	index := int(px[3])
	if index >= len(s.spinners) || index >= maxPickable {
		return nil
	}
	return s.spinners[index]
}

// Tap selects the spinner under point, if any.
func (s *Scene) Tap(point engine2D.Point) {
	s.SpinnerAt(point, func(sp *spinner.Spinner) {
		if sp != nil {
			s.Select(sp)
		}
	})
}

// Snapshot renders the scene at the background's native size without the picking pass.
// The result is premultiplied RGBA, rows top-down.
func (s *Scene) Snapshot() (*image.RGBA, error) {
	w, h := int(s.photoSize.W), int(s.photoSize.H)
	if w <= 0 || h <= 0 {
		return nil, ErrNoBackground
	}

	previousViewFrame := s.viewFrame
	projection := s.renderer.SceneProjection()

	s.renderer.BeginSnapshot(w, h)
	defer func() {
		s.renderer.SetSceneProjection(projection)
		s.renderer.EndSnapshot()
		s.setViewFrame(previousViewFrame)
	}()

	s.renderer.SetSceneProjection(engine2D.OffscreenProjection(s.frame.W, s.frame.H))

	dev := s.renderer.Device
	dev.ColorMask(true, true, true, true)
	dev.ClearColor(0, 0, 0, 0)
	dev.Clear()
	s.drawScene(true)

	img := s.renderer.ReadSnapshot()
	if img == nil {
		return nil, errors.New("scene: snapshot target missing")
	}
	utils.Debug("Scene: Snapshot %dx%d", w, h)
	return img, nil
}

// Delete releases everything the scene owns. The renderer stays with the caller.
func (s *Scene) Delete() {
	s.ClearScene()
}
