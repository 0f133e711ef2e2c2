package engine2D

import (
	"image"

	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu"
	"spinner-editor/internal/mask"

	"github.com/go-gl/mathgl/mgl32"
)

// SpinnerSprite draws one turntable frame with color grading, blur and a paint mask.
// Unselected sprites are flattened: the graded frame is baked into a half-width texture
// and drawn with the simple program.
type SpinnerSprite struct {
	ContentSprite

	Effects EffectValues
	Brush   *mask.Brush

	hitTest *ContentProgram
	simple  *ContentProgram
	blur    *ContentProgram

	original           *gpu.Texture
	flattened          bool
	renderedBlurRadius float32
}

func NewSpinnerSprite(r *Renderer, img image.Image) *SpinnerSprite {
	s := &SpinnerSprite{
		Effects: ValuesOf(DefaultEffects()),
		hitTest: r.HitTest,
		simple:  r.Simple,
		blur:    r.Blur,
	}
	s.init(r, img, r.Spinner)
	size := s.TextureSize()
	s.Brush = mask.NewBrush(r.Device, int(size.W/2), int(size.H), r.DefaultMask())
	s.afterLoad(r)
	return s
}

func (s *SpinnerSprite) Flattened() bool { return s.flattened }

// SetSize also keeps the brush scale in step with the on-screen size.
func (s *SpinnerSprite) SetSize(size Size) {
	s.ContentSprite.SetSize(size)
	if th := s.TextureSize().H; th > 0 && s.Brush != nil {
		s.Brush.SpinnerScale = size.H / th
	}
}

// BlurRadius is the requested blur, clamped to MaxBlurRadius.
func (s *SpinnerSprite) BlurRadius() float32 {
	return s.Effects.BlurRadius()
}

// Load uploads a new frame into the unblurred texture and recomputes the blur.
func (s *SpinnerSprite) Load(r *Renderer, img image.Image) {
	if s.original != nil && s.texture != s.original {
		s.texture.Unload()
		s.texture = s.original
	}
	s.load(r, img)
	s.afterLoad(r)
}

func (s *SpinnerSprite) afterLoad(r *Renderer) {
	s.renderedBlurRadius = 0
	s.original = s.texture
	s.updateBlur(r)
}

// UpdateBlur re-renders the blur if the requested radius changed since the last pass.
func (s *SpinnerSprite) UpdateBlur(r *Renderer) {
	s.updateBlur(r)
}

func (s *SpinnerSprite) updateBlur(r *Renderer) {
	radius := s.BlurRadius()
	if s.flattened || s.renderedBlurRadius == radius {
		return
	}
	previous := s.texture
	s.texture = s.original
	s.texture = s.renderBlurPass(r)
	if previous != nil && previous != s.original && previous != s.texture {
		previous.Unload()
	}
	s.renderedBlurRadius = radius
}

// renderBlurPass blurs the current texture with separable passes of growing radius.
// It returns the current texture itself when no blur is requested.
func (s *SpinnerSprite) renderBlurPass(r *Renderer) *gpu.Texture {
	tex := s.texture
	if tex == nil || s.blur == nil {
		return tex
	}
	radius := s.BlurRadius()
	if radius == 0 {
		return tex
	}

	size := tex.Size()
	w, h := float32(size.X), float32(size.Y)
	dev := r.Device

	r.Offscreen.Bind()
	dev.ColorMask(true, true, true, true)
	dev.EnableBlend(false)
	dev.Viewport(0, 0, size.X, size.Y)

	loc := s.blur.PositionIndex()
	dev.EnableVertexAttrib(loc)

	s.blur.Use()
	s.blur.SetProjection(OffscreenProjection(w, h))
	s.blur.SetModelView(mgl32.Scale3D(w, h, 1))

	horizontal := mgl32.Vec2{1 / w, 0}
	vertical := mgl32.Vec2{0, 1 / h}

	first := gpu.Allocate(dev, size.X, size.Y)
	second := gpu.Allocate(dev, size.X, size.Y)
	blurred := tex

	remaining := int(radius)
	step := 8
	for remaining > 0 {
		if remaining > step {
			s.blur.SetFloat(shader.UniformRadius, float32(step))
			remaining -= step
			step *= 8
		} else {
			s.blur.SetFloat(shader.UniformRadius, float32(remaining))
			remaining = 0
		}

		r.Offscreen.Attach(first)
		s.blur.SetTextureHandle(blurred.Handle())
		s.blur.SetVec2(shader.UniformDirection, horizontal)
		dev.DrawQuad()

		r.Offscreen.Attach(second)
		s.blur.SetTextureHandle(first.Handle())
		s.blur.SetVec2(shader.UniformDirection, vertical)
		dev.DrawQuad()

		blurred = second
	}

	dev.DisableVertexAttrib(loc)
	first.Unload()
	if blurred != second {
		second.Unload()
	}

	r.RestoreRenderState()
	return blurred
}

// Flatten bakes the graded, masked frame and drops the unblurred original.
func (s *SpinnerSprite) Flatten(r *Renderer) {
	if s.flattened {
		return
	}
	if s.texture == nil {
		s.original = nil
		s.flattened = true
		return
	}

	baked := s.renderToTexture(r)
	if s.original != nil && s.original != s.texture {
		s.original.Unload()
	}
	s.texture.Unload()
	s.texture = baked
	s.original = nil
	s.flattened = true
}

func (s *SpinnerSprite) renderToTexture(r *Renderer) *gpu.Texture {
	dev := r.Device
	r.Offscreen.Bind()

	size := s.texture.Size()
	fw, fh := size.X/2, size.Y
	baked := gpu.Allocate(dev, fw, fh)
	r.Offscreen.Attach(baked)
	dev.Viewport(0, 0, fw, fh)
	dev.ColorMask(true, true, true, true)
	dev.EnableBlend(true)
	dev.BlendFunc(gpu.BlendOne, gpu.BlendOneMinusSrcAlpha)

	p := s.program
	projection := p.Projection()
	p.SetProjection(OffscreenProjection(float32(fw), float32(fh)))

	loc := p.PositionIndex()
	dev.EnableVertexAttrib(loc)

	p.Use()
	p.SetTextureHandle(s.texture.Handle())
	p.SetAlpha(s.Alpha)
	p.SetModelView(mgl32.Scale3D(float32(fw), float32(fh), 1))
	s.setSpriteProgramParameters(p)

	dev.ClearColor(0, 0, 0, 0)
	dev.Clear()
	dev.DrawQuad()

	dev.DisableVertexAttrib(loc)
	p.SetProjection(projection)
	r.RestoreRenderState()
	return baked
}

// Expand drops the baked texture. The caller reloads the current frame afterwards.
func (s *SpinnerSprite) Expand() {
	if !s.flattened {
		return
	}
	if s.texture != nil {
		s.texture.Unload()
		s.texture = nil
	}
	s.flattened = false
}

func (s *SpinnerSprite) Render(r *Renderer, snapshotting bool) {
	renderSprite(r, &s.ContentSprite, s, snapshotting)
}

func (s *SpinnerSprite) prepareRender(r *Renderer, _ bool) {
	s.updateBlur(r)
}

func (s *SpinnerSprite) cleanupRender(*Renderer, bool) {}

func (s *SpinnerSprite) renderQuad(r *Renderer, snapshotting bool) {
	s.beginVisible(r)
	if s.flattened && s.simple != nil {
		s.renderProgram(r, s.simple, s.setSpriteProgramParameters)
	} else {
		s.renderProgram(r, s.program, s.setSpriteProgramParameters)
	}

	if !snapshotting {
		s.renderHitTestAlpha(r)
	}
}

// renderHitTestAlpha writes the sprite's depth into the alpha channel where it is opaque.
func (s *SpinnerSprite) renderHitTestAlpha(r *Renderer) {
	if s.hitTest == nil {
		return
	}
	r.Device.EnableBlend(true)
	r.Device.BlendFunc(gpu.BlendOne, gpu.BlendZero)
	r.Device.ColorMask(false, false, false, true)
	s.renderProgram(r, s.hitTest, s.setSpriteProgramParameters)
}

func (s *SpinnerSprite) setSpriteProgramParameters(p *ContentProgram) {
	p.SetTexture(shader.UniformMask, shader.MaskTextureUnit, s.Brush.Texture().Handle())
	if s.flattened {
		p.SetBool(shader.UniformFlattened, true)
		return
	}

	for name, value := range s.Effects {
		switch name {
		case EffectTemperature:
			p.SetVec3(shader.UniformTempRGB, TemperatureToRGB(value))
		case EffectOpacity:
			p.SetAlpha(value)
		default:
			p.SetFloat(shader.EffectUniform(name), value)
		}
	}
	p.SetBool(shader.UniformFlattened, false)
}

// Delete frees every texture the sprite owns, including the mask.
func (s *SpinnerSprite) Delete() {
	if s.original != nil && s.original != s.texture {
		s.original.Unload()
	}
	s.original = nil
	s.ContentSprite.Delete()
	s.Brush.Delete()
}
