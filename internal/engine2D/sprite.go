package engine2D

import (
	"image"

	"spinner-editor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// spriteVariant is what a sprite kind adds around the shared quad draw.
// The set of variants is closed: *ContentSprite and *SpinnerSprite.
type spriteVariant interface {
	prepareRender(r *Renderer, snapshotting bool)
	renderQuad(r *Renderer, snapshotting bool)
	cleanupRender(r *Renderer, snapshotting bool)
}

// ContentSprite is a textured quad placed by a Transform.
type ContentSprite struct {
	Transform

	Hidden        bool
	Premultiplied bool
	Alpha         float32

	program *ContentProgram
	texture *gpu.Texture
}

// NewContentSprite uploads img and sizes the sprite to it.
func NewContentSprite(r *Renderer, img image.Image, program *ContentProgram) *ContentSprite {
	s := &ContentSprite{}
	s.init(r, img, program)
	return s
}

func (s *ContentSprite) init(r *Renderer, img image.Image, program *ContentProgram) {
	s.Transform = NewTransform()
	s.Premultiplied = true
	s.Alpha = 1
	s.program = program
	if img != nil {
		s.texture = gpu.NewTexture(r.Device, img)
		size := s.texture.Size()
		s.SetSize(Size{W: float32(size.X), H: float32(size.Y)})
	}
}

func (s *ContentSprite) Program() *ContentProgram { return s.program }
func (s *ContentSprite) Texture() *gpu.Texture    { return s.texture }

// TextureSize is the pixel size of the current texture, zero without one.
func (s *ContentSprite) TextureSize() Size {
	p := s.texture.Size()
	return Size{W: float32(p.X), H: float32(p.Y)}
}

// Load replaces the image, keeping the texture handle.
func (s *ContentSprite) Load(r *Renderer, img image.Image) {
	s.load(r, img)
}

func (s *ContentSprite) load(r *Renderer, img image.Image) {
	if s.texture == nil {
		s.texture = gpu.NewTexture(r.Device, img)
		return
	}
	s.texture.Load(img)
}

func (s *ContentSprite) Render(r *Renderer, snapshotting bool) {
	renderSprite(r, s, s, snapshotting)
}

// renderSprite runs prepare, the quad draw and cleanup of v. A hidden sprite or one
// without a texture draws nothing.
func renderSprite(r *Renderer, base *ContentSprite, v spriteVariant, snapshotting bool) {
	if base.Hidden || base.program == nil || base.texture == nil {
		return
	}
	v.prepareRender(r, snapshotting)

	loc := base.program.PositionIndex()
	r.Device.EnableVertexAttrib(loc)
	v.renderQuad(r, snapshotting)
	r.Device.DisableVertexAttrib(loc)

	v.cleanupRender(r, snapshotting)
}

func (s *ContentSprite) prepareRender(*Renderer, bool) {}
func (s *ContentSprite) cleanupRender(*Renderer, bool) {}

func (s *ContentSprite) renderQuad(r *Renderer, _ bool) {
	s.beginVisible(r)
	s.renderProgram(r, s.program, nil)
}

// beginVisible sets up the color pass. Alpha is left untouched for the hit-test pass.
func (s *ContentSprite) beginVisible(r *Renderer) {
	r.Device.ColorMask(true, true, true, false)
	r.Device.EnableBlend(true)
	if s.Premultiplied {
		r.Device.BlendFunc(gpu.BlendOne, gpu.BlendOneMinusSrcAlpha)
	} else {
		r.Device.BlendFunc(gpu.BlendSrcAlpha, gpu.BlendOneMinusSrcAlpha)
	}
}

func (s *ContentSprite) renderProgram(r *Renderer, p *ContentProgram, extra func(p *ContentProgram)) {
	p.Use()
	s.setProgramParameters(p)
	if extra != nil {
		extra(p)
	}
	r.Device.DrawQuad()
}

func (s *ContentSprite) setProgramParameters(p *ContentProgram) {
	p.SetTextureHandle(s.texture.Handle())
	p.SetAlpha(s.Alpha)
	p.SetModelView(p.View().Mul4(s.ModelMatrix()))
}

// TranslatePoint maps a view point onto the sprite. Normalized results are in quad
// units; otherwise in pixels of one half of the turntable frame.
func (s *ContentSprite) TranslatePoint(p Point, viewRect Rect, normalized bool) Point {
	if s.program == nil {
		return Point{}
	}
	win := mgl32.Vec3{p.X, viewRect.H - p.Y, 0}
	modelView := s.program.View().Mul4(s.ModelMatrix())
	obj, err := mgl32.UnProject(win, modelView, s.program.Projection(),
		int(viewRect.MinX()), int(viewRect.H-viewRect.MaxY()), int(viewRect.W), int(viewRect.H))
	if err != nil {
		return Point{}
	}
	if normalized {
		return Point{X: obj[0], Y: obj[1]}
	}
	size := s.TextureSize()
	return Point{X: obj[0] * size.W / 2, Y: obj[1] * size.H}
}

// Delete frees the texture.
func (s *ContentSprite) Delete() {
	if s.texture != nil {
		s.texture.Unload()
		s.texture = nil
	}
}
