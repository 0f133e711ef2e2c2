// Package gpu wraps the small GL-shaped command set the compositor needs behind the
// Device interface, plus the program, texture and offscreen-target resources built on it.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

type (
	ProgramHandle     uint32
	TextureHandle     uint32
	FramebufferHandle uint32
)

// Location identifies a uniform or attribute within a program.
type Location int32

// NotFound is returned by location lookups for names the program does not declare.
// Every setter treats it as a no-op.
const NotFound Location = -1

// DefaultFramebuffer is the on-screen render target.
const DefaultFramebuffer FramebufferHandle = 0

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

func (f BlendFactor) String() string {
	switch f {
	case BlendZero:
		return "ZERO"
	case BlendOne:
		return "ONE"
	case BlendSrcAlpha:
		return "SRC_ALPHA"
	case BlendOneMinusSrcAlpha:
		return "ONE_MINUS_SRC_ALPHA"
	}
	return "UNKNOWN"
}

// ProgramSource is a named vertex/fragment pair.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// Device is the rendering context. All calls happen on the render thread.
type Device interface {
	CompileProgram(source ProgramSource) (ProgramHandle, error)
	DeleteProgram(program ProgramHandle)
	UseProgram(program ProgramHandle)
	UniformLocation(program ProgramHandle, name string) Location
	AttributeLocation(program ProgramHandle, name string) Location

	// Uniform writes apply to the program in use.
	Uniform1f(loc Location, v float32)
	Uniform2f(loc Location, x, y float32)
	Uniform3f(loc Location, x, y, z float32)
	Uniform1i(loc Location, v int32)
	UniformMatrix4(loc Location, m mgl32.Mat4)
	// BindSampler binds tex to the texture unit and writes the unit index into loc.
	BindSampler(loc Location, unit int, tex TextureHandle)

	CreateTexture() TextureHandle
	// TexImage (re)specifies the texture storage. A nil pixels slice leaves it uninitialized.
	TexImage(tex TextureHandle, width, height int, pixels []byte)
	DeleteTexture(tex TextureHandle)

	CreateFramebuffer() FramebufferHandle
	BindFramebuffer(fb FramebufferHandle)
	FramebufferTexture(fb FramebufferHandle, tex TextureHandle)
	DeleteFramebuffer(fb FramebufferHandle)

	Viewport(x, y, width, height int)
	ColorMask(r, g, b, a bool)
	EnableBlend(enabled bool)
	BlendFunc(src, dst BlendFactor)
	ClearColor(r, g, b, a float32)
	Clear()

	EnableVertexAttrib(loc Location)
	DisableVertexAttrib(loc Location)
	// DrawQuad draws the unit quad (0,0)-(1,1) as a 4 vertex triangle strip.
	DrawQuad()

	// ReadPixels returns RGBA8 rows starting at the bottom row, like glReadPixels.
	ReadPixels(x, y, width, height int) []byte
}
