package gpu

import (
	"image"

	"golang.org/x/image/draw"
)

// Texture owns one device texture. Reloading keeps the handle so cached ids stay valid.
type Texture struct {
	device Device
	handle TextureHandle
	width  int
	height int
	pixels []byte
}

func NewTexture(device Device, img image.Image) *Texture {
	t := &Texture{device: device}
	t.Load(img)
	return t
}

// Allocate creates an uninitialized render-target texture.
func Allocate(device Device, width, height int) *Texture {
	t := &Texture{device: device}
	t.handle = device.CreateTexture()
	t.width, t.height = width, height
	device.TexImage(t.handle, width, height, nil)
	return t
}

// Load uploads img, reusing the existing handle. Load(nil) frees the texture.
func (t *Texture) Load(img image.Image) {
	if img == nil {
		t.Unload()
		return
	}
	rgba := ToRGBA(img)
	t.LoadPixels(rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Pix)
}

// LoadPixels uploads tightly packed premultiplied RGBA8 rows, top row first.
func (t *Texture) LoadPixels(width, height int, pixels []byte) {
	if t.handle == 0 {
		t.handle = t.device.CreateTexture()
	}
	t.width, t.height = width, height
	t.pixels = pixels
	t.device.TexImage(t.handle, width, height, pixels)
}

func (t *Texture) Unload() {
	if t.handle != 0 {
		t.device.DeleteTexture(t.handle)
	}
	t.handle = 0
	t.width, t.height = 0, 0
	t.pixels = nil
}

func (t *Texture) Handle() TextureHandle {
	if t == nil {
		return 0
	}
	return t.handle
}

func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

func (t *Texture) Size() image.Point {
	if t == nil {
		return image.Point{}
	}
	return image.Pt(t.width, t.height)
}

// Pixels returns the bytes of the last upload, nil for render targets.
func (t *Texture) Pixels() []byte { return t.pixels }

// ToRGBA returns img as a tightly packed, zero-origin *image.RGBA (premultiplied).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
