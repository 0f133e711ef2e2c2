// Package soft is a pure Go gpu.Device. It runs the compositor headless and
// backs the tests: each program name maps to a Go kernel that mirrors its GLSL.
package soft

import (
	"fmt"
	"image"

	"spinner-editor/internal/gpu"
	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

type Device struct {
	screen *surface

	next         uint32
	programs     map[gpu.ProgramHandle]*program
	textures     map[gpu.TextureHandle]*surface
	framebuffers map[gpu.FramebufferHandle]gpu.TextureHandle

	current  *program
	bound    gpu.FramebufferHandle
	units    map[int]gpu.TextureHandle
	viewport image.Rectangle
	mask     [4]bool
	blend    bool
	src, dst gpu.BlendFactor
	clear    rgba
	attribs  map[gpu.Location]bool

	// LocationQueries counts uniform and attribute lookups that reached the device.
	LocationQueries int
	// DrawCalls counts DrawQuad calls that had a program and a target.
	DrawCalls int
}

var _ gpu.Device = (*Device)(nil)

// New creates a device whose default framebuffer is width x height.
func New(width, height int) *Device {
	return &Device{
		screen:       newSurface(width, height),
		programs:     make(map[gpu.ProgramHandle]*program),
		textures:     make(map[gpu.TextureHandle]*surface),
		framebuffers: make(map[gpu.FramebufferHandle]gpu.TextureHandle),
		units:        make(map[int]gpu.TextureHandle),
		viewport:     image.Rect(0, 0, width, height),
		mask:         [4]bool{true, true, true, true},
		src:          gpu.BlendOne,
		dst:          gpu.BlendZero,
		attribs:      make(map[gpu.Location]bool),
	}
}

// Resize reallocates the default framebuffer, dropping its contents.
func (d *Device) Resize(width, height int) {
	d.screen = newSurface(width, height)
}

// ScreenSize reports the default framebuffer size.
func (d *Device) ScreenSize() image.Point {
	return image.Pt(d.screen.width, d.screen.height)
}

// Bound reports the framebuffer currently receiving draws.
func (d *Device) Bound() gpu.FramebufferHandle { return d.bound }

// CurrentViewport reports the last viewport set.
func (d *Device) CurrentViewport() image.Rectangle { return d.viewport }

// TextureCount reports how many live textures the device holds.
func (d *Device) TextureCount() int { return len(d.textures) }

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CompileProgram(source gpu.ProgramSource) (gpu.ProgramHandle, error) {
	p, err := link(source)
	if err != nil {
		return 0, fmt.Errorf("soft: %w", err)
	}
	h := gpu.ProgramHandle(d.handle())
	d.programs[h] = p
	return h, nil
}

func (d *Device) DeleteProgram(h gpu.ProgramHandle) {
	if p := d.programs[h]; p != nil && p == d.current {
		d.current = nil
	}
	delete(d.programs, h)
}

func (d *Device) UseProgram(h gpu.ProgramHandle) {
	d.current = d.programs[h]
}

func (d *Device) UniformLocation(h gpu.ProgramHandle, name string) gpu.Location {
	d.LocationQueries++
	if p := d.programs[h]; p != nil {
		if loc, ok := p.uniforms[name]; ok {
			return loc
		}
	}
	return gpu.NotFound
}

func (d *Device) AttributeLocation(h gpu.ProgramHandle, name string) gpu.Location {
	d.LocationQueries++
	if p := d.programs[h]; p != nil {
		if loc, ok := p.attributes[name]; ok {
			return loc
		}
	}
	return gpu.NotFound
}

func (d *Device) Uniform1f(loc gpu.Location, v float32) {
	d.setFloats(loc, rgba{v})
}

func (d *Device) Uniform2f(loc gpu.Location, x, y float32) {
	d.setFloats(loc, rgba{x, y})
}

func (d *Device) Uniform3f(loc gpu.Location, x, y, z float32) {
	d.setFloats(loc, rgba{x, y, z})
}

func (d *Device) setFloats(loc gpu.Location, v rgba) {
	if d.current == nil || loc == gpu.NotFound {
		return
	}
	d.current.floats[loc] = v
}

func (d *Device) Uniform1i(loc gpu.Location, v int32) {
	if d.current == nil || loc == gpu.NotFound {
		return
	}
	d.current.ints[loc] = v
}

func (d *Device) UniformMatrix4(loc gpu.Location, m mgl32.Mat4) {
	if d.current == nil || loc == gpu.NotFound {
		return
	}
	d.current.matrices[loc] = m
}

func (d *Device) BindSampler(loc gpu.Location, unit int, tex gpu.TextureHandle) {
	d.units[unit] = tex
	d.Uniform1i(loc, int32(unit))
}

func (d *Device) CreateTexture() gpu.TextureHandle {
	h := gpu.TextureHandle(d.handle())
	d.textures[h] = newSurface(0, 0)
	return h
}

// TexImage copies pixels, first row becoming t = 0.
func (d *Device) TexImage(tex gpu.TextureHandle, width, height int, pixels []byte) {
	if _, ok := d.textures[tex]; !ok {
		utils.Warn("Soft: TexImage on unknown texture %d", tex)
		return
	}
	s := newSurface(width, height)
	copy(s.pix, pixels)
	d.textures[tex] = s
}

func (d *Device) DeleteTexture(tex gpu.TextureHandle) {
	delete(d.textures, tex)
	for unit, h := range d.units {
		if h == tex {
			delete(d.units, unit)
		}
	}
}

func (d *Device) CreateFramebuffer() gpu.FramebufferHandle {
	h := gpu.FramebufferHandle(d.handle())
	d.framebuffers[h] = 0
	return h
}

func (d *Device) BindFramebuffer(fb gpu.FramebufferHandle) {
	d.bound = fb
}

func (d *Device) FramebufferTexture(fb gpu.FramebufferHandle, tex gpu.TextureHandle) {
	if _, ok := d.framebuffers[fb]; ok {
		d.framebuffers[fb] = tex
	}
}

func (d *Device) DeleteFramebuffer(fb gpu.FramebufferHandle) {
	delete(d.framebuffers, fb)
	if d.bound == fb {
		d.bound = gpu.DefaultFramebuffer
	}
}

func (d *Device) Viewport(x, y, width, height int) {
	d.viewport = image.Rect(x, y, x+width, y+height)
}

func (d *Device) ColorMask(r, g, b, a bool) {
	d.mask = [4]bool{r, g, b, a}
}

func (d *Device) EnableBlend(enabled bool) {
	d.blend = enabled
}

func (d *Device) BlendFunc(src, dst gpu.BlendFactor) {
	d.src, d.dst = src, dst
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clear = rgba{r, g, b, a}
}

// Clear fills the whole target, honoring the color mask but not the viewport.
func (d *Device) Clear() {
	target := d.target()
	if target == nil {
		return
	}
	for y := 0; y < target.height; y++ {
		for x := 0; x < target.width; x++ {
			target.set(x, y, d.clear, d.mask)
		}
	}
}

func (d *Device) EnableVertexAttrib(loc gpu.Location) {
	if loc != gpu.NotFound {
		d.attribs[loc] = true
	}
}

func (d *Device) DisableVertexAttrib(loc gpu.Location) {
	delete(d.attribs, loc)
}

// ReadPixels returns rows bottom-up from the bound target. Pixels outside it read as zero.
func (d *Device) ReadPixels(x, y, width, height int) []byte {
	out := make([]byte, 4*width*height)
	target := d.target()
	if target == nil {
		return out
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			sx, sy := x+col, y+row
			if sx < 0 || sy < 0 || sx >= target.width || sy >= target.height {
				continue
			}
			si := 4 * (sy*target.width + sx)
			di := 4 * (row*width + col)
			copy(out[di:di+4], target.pix[si:si+4])
		}
	}
	return out
}

func (d *Device) target() *surface {
	if d.bound == gpu.DefaultFramebuffer {
		return d.screen
	}
	tex, ok := d.framebuffers[d.bound]
	if !ok || tex == 0 {
		return nil
	}
	return d.textures[tex]
}
