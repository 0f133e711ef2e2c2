package engine2D

import (
	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minDepth = -256
	maxDepth = 256
)

// ContentProgram is a quad program carrying the projection and view used to place sprites.
type ContentProgram struct {
	*gpu.Program

	projection mgl32.Mat4
	view       mgl32.Mat4
	viewSize   Size
	viewFrame  Rect
}

// NewContentProgram wraps program with a y-down orthographic projection over orthoSize.
func NewContentProgram(program *gpu.Program, orthoSize Size) *ContentProgram {
	p := &ContentProgram{
		Program:    program,
		projection: mgl32.Ortho(0, orthoSize.W, orthoSize.H, 0, minDepth, maxDepth),
		viewSize:   orthoSize,
	}
	p.SetViewFrame(Rect{W: orthoSize.W, H: orthoSize.H})
	return p
}

// OffscreenProjection is the y-up projection used when rendering into a w x h texture.
func OffscreenProjection(w, h float32) mgl32.Mat4 {
	return mgl32.Ortho(0, w, 0, h, minDepth, maxDepth)
}

func (p *ContentProgram) Projection() mgl32.Mat4     { return p.projection }
func (p *ContentProgram) SetProjection(m mgl32.Mat4) { p.projection = m }
func (p *ContentProgram) View() mgl32.Mat4           { return p.view }
func (p *ContentProgram) ViewFrame() Rect            { return p.viewFrame }

// SetViewFrame maps the frame onto the whole ortho size.
func (p *ContentProgram) SetViewFrame(frame Rect) {
	p.viewFrame = frame
	if frame.IsEmpty() {
		p.view = mgl32.Ident4()
		return
	}
	p.view = mgl32.Scale3D(p.viewSize.W/frame.W, p.viewSize.H/frame.H, 1).
		Mul4(mgl32.Translate3D(-frame.X, -frame.Y, 0))
}

func (p *ContentProgram) SetTextureHandle(tex gpu.TextureHandle) {
	p.SetTexture(shader.UniformTexture, shader.ColorTextureUnit, tex)
}

func (p *ContentProgram) SetAlpha(alpha float32) {
	p.SetFloat(shader.UniformAlpha, alpha)
}

// SetModelView uploads projection * mv as the vertex matrix.
func (p *ContentProgram) SetModelView(mv mgl32.Mat4) {
	p.SetMatrix(shader.UniformMatrix, p.projection.Mul4(mv))
}

func (p *ContentProgram) PositionIndex() gpu.Location {
	return p.AttributeLocation(shader.AttribPosition)
}
