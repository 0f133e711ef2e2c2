// Package rlgpu implements gpu.Device on raylib's rlgl layer (OpenGL 3.3).
// It needs an open raylib window and must only be called from the window thread.
package rlgpu

import (
	"fmt"
	"image/color"
	"math"

	"spinner-editor/internal/gpu"
	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

type Device struct {
	next     uint32
	shaders  map[gpu.ProgramHandle]rl.Shader
	textures map[gpu.TextureHandle]rl.Texture2D
	fbos     map[gpu.FramebufferHandle]uint32
	attached map[gpu.FramebufferHandle]gpu.TextureHandle

	current  rl.Shader
	bound    gpu.FramebufferHandle
	units    map[int]gpu.TextureHandle
	clearRGB color.RGBA
}

var _ gpu.Device = (*Device)(nil)

// New wraps the current raylib context. Face culling is turned off since the
// compositor draws with both y-up and y-down projections.
func New() *Device {
	rl.DisableBackfaceCulling()
	return &Device{
		shaders:  make(map[gpu.ProgramHandle]rl.Shader),
		textures: make(map[gpu.TextureHandle]rl.Texture2D),
		fbos:     make(map[gpu.FramebufferHandle]uint32),
		attached: make(map[gpu.FramebufferHandle]gpu.TextureHandle),
		units:    make(map[int]gpu.TextureHandle),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// flush draws whatever rlgl has batched so state changes apply to later draws only.
func flush() {
	rl.DrawRenderBatchActive()
}

func (d *Device) CompileProgram(source gpu.ProgramSource) (gpu.ProgramHandle, error) {
	shader := rl.LoadShaderFromMemory(source.Vertex, source.Fragment)
	if shader.ID == 0 || shader.ID == rl.GetShaderIdDefault() {
		return 0, fmt.Errorf("rlgpu: %s failed to link", source.Name)
	}
	h := gpu.ProgramHandle(d.handle())
	d.shaders[h] = shader
	return h, nil
}

func (d *Device) DeleteProgram(h gpu.ProgramHandle) {
	if shader, ok := d.shaders[h]; ok {
		if d.current.ID == shader.ID {
			flush()
			rl.EndShaderMode()
			d.current = rl.Shader{}
		}
		rl.UnloadShader(shader)
		delete(d.shaders, h)
	}
}

func (d *Device) UseProgram(h gpu.ProgramHandle) {
	shader, ok := d.shaders[h]
	if !ok {
		return
	}
	flush()
	rl.BeginShaderMode(shader)
	rl.EnableShader(shader.ID)
	d.current = shader
}

func (d *Device) UniformLocation(h gpu.ProgramHandle, name string) gpu.Location {
	if shader, ok := d.shaders[h]; ok {
		return gpu.Location(rl.GetLocationUniform(shader.ID, name))
	}
	return gpu.NotFound
}

func (d *Device) AttributeLocation(h gpu.ProgramHandle, name string) gpu.Location {
	if shader, ok := d.shaders[h]; ok {
		return gpu.Location(rl.GetLocationAttrib(shader.ID, name))
	}
	return gpu.NotFound
}

// rlgl unbinds the program after each batch, so uniform writes rebind it first.
func (d *Device) setUniform(loc gpu.Location, values []float32, kind rl.ShaderUniformDataType) {
	if loc == gpu.NotFound || d.current.ID == 0 {
		return
	}
	rl.EnableShader(d.current.ID)
	rl.SetUniform(int32(loc), values, int32(kind))
}

func (d *Device) Uniform1f(loc gpu.Location, v float32) {
	d.setUniform(loc, []float32{v}, rl.ShaderUniformFloat)
}

func (d *Device) Uniform2f(loc gpu.Location, x, y float32) {
	d.setUniform(loc, []float32{x, y}, rl.ShaderUniformVec2)
}

func (d *Device) Uniform3f(loc gpu.Location, x, y, z float32) {
	d.setUniform(loc, []float32{x, y, z}, rl.ShaderUniformVec3)
}

// Uniform1i passes the int's bits through SetUniform's float slice.
func (d *Device) Uniform1i(loc gpu.Location, v int32) {
	d.setUniform(loc, []float32{math.Float32frombits(uint32(v))}, rl.ShaderUniformInt)
}

func (d *Device) UniformMatrix4(loc gpu.Location, m mgl32.Mat4) {
	if loc == gpu.NotFound || d.current.ID == 0 {
		return
	}
	rl.EnableShader(d.current.ID)
	rl.SetUniformMatrix(int32(loc), toMatrix(m))
}

// BindSampler binds unit 0 through the batch texture; rlgl assigns its own slots
// for the other units and writes the slot index into loc.
func (d *Device) BindSampler(loc gpu.Location, unit int, tex gpu.TextureHandle) {
	d.units[unit] = tex
	if unit == 0 {
		d.Uniform1i(loc, 0)
		return
	}
	if loc == gpu.NotFound || d.current.ID == 0 {
		return
	}
	rl.EnableShader(d.current.ID)
	rl.SetUniformSampler(int32(loc), d.textures[tex].ID)
}

func (d *Device) CreateTexture() gpu.TextureHandle {
	h := gpu.TextureHandle(d.handle())
	d.textures[h] = rl.Texture2D{}
	return h
}

func (d *Device) TexImage(tex gpu.TextureHandle, width, height int, pixels []byte) {
	current, ok := d.textures[tex]
	if !ok {
		utils.Warn("rlgpu: TexImage on unknown texture %d", tex)
		return
	}

	if current.ID != 0 && int(current.Width) == width && int(current.Height) == height && pixels != nil {
		rl.UpdateTexture(current, toColors(pixels))
		return
	}
	if current.ID != 0 {
		rl.UnloadTexture(current)
	}

	var img *rl.Image
	if pixels == nil || width == 0 || height == 0 {
		img = rl.GenImageColor(max(width, 1), max(height, 1), rl.Blank)
	} else {
		img = rl.NewImage(pixels, int32(width), int32(height), 1, rl.UncompressedR8g8b8a8)
	}
	loaded := rl.LoadTextureFromImage(img)
	if pixels == nil {
		rl.UnloadImage(img)
	}
	rl.SetTextureFilter(loaded, rl.FilterBilinear)
	rl.SetTextureWrap(loaded, rl.WrapClamp)
	d.textures[tex] = loaded

	for fb, attachedTex := range d.attached {
		if attachedTex == tex {
			d.FramebufferTexture(fb, tex)
		}
	}
}

func (d *Device) DeleteTexture(tex gpu.TextureHandle) {
	if t, ok := d.textures[tex]; ok {
		if t.ID != 0 {
			rl.UnloadTexture(t)
		}
		delete(d.textures, tex)
	}
}

func (d *Device) CreateFramebuffer() gpu.FramebufferHandle {
	h := gpu.FramebufferHandle(d.handle())
	d.fbos[h] = rl.LoadFramebuffer()
	return h
}

func (d *Device) BindFramebuffer(fb gpu.FramebufferHandle) {
	flush()
	d.bound = fb
	if fb == gpu.DefaultFramebuffer {
		rl.DisableFramebuffer()
		return
	}
	rl.EnableFramebuffer(d.fbos[fb])
}

func (d *Device) FramebufferTexture(fb gpu.FramebufferHandle, tex gpu.TextureHandle) {
	id, ok := d.fbos[fb]
	if !ok {
		return
	}
	flush()
	d.attached[fb] = tex
	rl.FramebufferAttach(id, d.textures[tex].ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if d.bound == fb {
		rl.EnableFramebuffer(id)
	}
}

func (d *Device) DeleteFramebuffer(fb gpu.FramebufferHandle) {
	if id, ok := d.fbos[fb]; ok {
		flush()
		rl.UnloadFramebuffer(id)
		delete(d.fbos, fb)
		delete(d.attached, fb)
	}
	if d.bound == fb {
		d.BindFramebuffer(gpu.DefaultFramebuffer)
	}
}

func (d *Device) Viewport(x, y, width, height int) {
	flush()
	rl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) ColorMask(r, g, b, a bool) {
	flush()
	rl.ColorMask(r, g, b, a)
}

func (d *Device) EnableBlend(enabled bool) {
	flush()
	if enabled {
		rl.EnableColorBlend()
	} else {
		rl.DisableColorBlend()
	}
}

func (d *Device) BlendFunc(src, dst gpu.BlendFactor) {
	flush()
	rl.SetBlendFactors(glFactor(src), glFactor(dst), rl.FuncAdd)
	rl.SetBlendMode(rl.BlendCustom)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clearRGB = color.RGBA{unorm8(r), unorm8(g), unorm8(b), unorm8(a)}
}

func (d *Device) Clear() {
	flush()
	rl.ClearColor(d.clearRGB.R, d.clearRGB.G, d.clearRGB.B, d.clearRGB.A)
	rl.ClearScreenBuffers()
}

func (d *Device) EnableVertexAttrib(loc gpu.Location) {
	if loc != gpu.NotFound {
		rl.EnableVertexAttribute(uint32(loc))
	}
}

func (d *Device) DisableVertexAttrib(loc gpu.Location) {
	if loc != gpu.NotFound {
		rl.DisableVertexAttribute(uint32(loc))
	}
}

// DrawQuad pushes the unit quad through the rlgl batch and flushes it at once.
// Texture coordinates equal positions, matching the vertex shader.
func (d *Device) DrawQuad() {
	if d.current.ID == 0 {
		return
	}
	rl.SetTexture(d.textures[d.units[0]].ID)
	rl.Begin(rl.Quads)
	rl.Color4ub(255, 255, 255, 255)
	for _, corner := range [4][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}} {
		rl.TexCoord2f(corner[0], corner[1])
		rl.Vertex2f(corner[0], corner[1])
	}
	rl.End()
	rl.SetTexture(0)
	flush()
}

// ReadPixels reads from the attached texture or the screen. Both come back top-down
// from raylib and are reordered to bottom-up rows.
func (d *Device) ReadPixels(x, y, width, height int) []byte {
	flush()
	out := make([]byte, 4*width*height)

	var img *rl.Image
	flipped := false
	if d.bound == gpu.DefaultFramebuffer {
		img = rl.LoadImageFromScreen()
		flipped = true
	} else {
		tex, ok := d.textures[d.attached[d.bound]]
		if !ok || tex.ID == 0 {
			return out
		}
		img = rl.LoadImageFromTexture(tex)
	}
	defer rl.UnloadImage(img)

	colors := rl.LoadImageColors(img)
	defer rl.UnloadImageColors(colors)

	w, h := int(img.Width), int(img.Height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			sx, sy := x+col, y+row
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			srcRow := sy
			if flipped {
				srcRow = h - 1 - sy
			}
			c := colors[srcRow*w+sx]
			i := 4 * (row*width + col)
			out[i], out[i+1], out[i+2], out[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}

func glFactor(f gpu.BlendFactor) int32 {
	switch f {
	case gpu.BlendOne:
		return rl.One
	case gpu.BlendSrcAlpha:
		return rl.SrcAlpha
	case gpu.BlendOneMinusSrcAlpha:
		return rl.OneMinusSrcAlpha
	}
	return rl.Zero
}

// toMatrix copies a column-major mgl32 matrix into raylib's layout.
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func toColors(pixels []byte) []color.RGBA {
	colors := make([]color.RGBA, len(pixels)/4)
	for i := range colors {
		colors[i] = color.RGBA{pixels[4*i], pixels[4*i+1], pixels[4*i+2], pixels[4*i+3]}
	}
	return colors
}

func unorm8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Release hands the context back to raylib's own 2D drawing for a width x height pixel screen.
func (d *Device) Release(width, height int) {
	flush()
	if d.current.ID != 0 {
		rl.EndShaderMode()
		d.current = rl.Shader{}
	}
	if d.bound != gpu.DefaultFramebuffer {
		d.BindFramebuffer(gpu.DefaultFramebuffer)
	}
	rl.ColorMask(true, true, true, true)
	rl.SetBlendMode(rl.BlendAlpha)
	rl.Viewport(0, 0, int32(width), int32(height))
}
