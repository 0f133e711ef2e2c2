// Package mask paints the per-sprite erase mask. White keeps the sprite, black erases it.
package mask

import (
	"image"

	"spinner-editor/internal/gpu"
	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
)

type Type int

const (
	Erase Type = iota
	Restore
)

func (t Type) String() string {
	if t == Restore {
		return "restore"
	}
	return "erase"
}

const DefaultLineSize = 20

// Brush owns the mask bitmap of one sprite and the texture mirroring it.
// It keeps two undo levels: the state before the editing session and before the last stroke.
type Brush struct {
	Type     Type
	LineSize float32
	// SpinnerScale is the sprite height over its texture height.
	SpinnerScale float32

	device   gpu.Device
	width    int
	height   int
	fallback *gpu.Texture

	canvas  *gg.Context
	texture *gpu.Texture

	sessionUndo []byte
	strokeUndo  []byte

	previous  *mgl32.Vec2
	drawScale float32
}

// NewBrush creates an untouched width x height mask. Until the first stroke the sprite
// samples fallback, which must be white.
func NewBrush(device gpu.Device, width, height int, fallback *gpu.Texture) *Brush {
	return &Brush{
		Type:         Erase,
		LineSize:     DefaultLineSize,
		SpinnerScale: 1,
		device:       device,
		width:        width,
		height:       height,
		fallback:     fallback,
		drawScale:    1,
	}
}

// Texture is the mask to sample: the painted one, or the fallback if nothing was painted yet.
func (b *Brush) Texture() *gpu.Texture {
	if b.texture != nil {
		return b.texture
	}
	return b.fallback
}

func (b *Brush) Size() image.Point { return image.Pt(b.width, b.height) }

// Painted reports whether the mask has its own bitmap.
func (b *Brush) Painted() bool { return b.canvas != nil }

// DrawStart begins a stroke at p, in mask pixels. drawScale is the current view magnification.
func (b *Brush) DrawStart(p mgl32.Vec2, drawScale float32) {
	b.initialize()
	b.previous = &p
	b.drawScale = drawScale
}

// DrawTo strokes from the previous point to p. The first call after DrawStop only moves.
func (b *Brush) DrawTo(p mgl32.Vec2) error {
	defer func() { b.previous = &p }()
	if b.previous == nil || b.canvas == nil {
		return nil
	}

	dc := b.canvas
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineWidth(float64(b.lineWidth()))
	if b.Type == Erase {
		dc.SetColor(gg.Black.Color())
	} else {
		dc.SetColor(gg.White.Color())
	}
	dc.MoveTo(float64(b.previous[0]), float64(b.previous[1]))
	dc.LineTo(float64(p[0]), float64(p[1]))
	if err := dc.Stroke(); err != nil {
		utils.Warn("Mask: stroke failed - %v", err)
		return err
	}

	b.upload()
	return nil
}

func (b *Brush) DrawStop() {
	b.previous = nil
}

func (b *Brush) lineWidth() float32 {
	scale := b.SpinnerScale * b.drawScale
	if scale <= 0 {
		return b.LineSize
	}
	return b.LineSize / scale
}

// DiscardLastStroke restores the mask to how it was before the last DrawStart.
func (b *Brush) DiscardLastStroke() {
	if b.strokeUndo == nil {
		return
	}
	b.restore(b.strokeUndo)
	b.strokeUndo = nil
}

// DiscardChanges restores the mask to how it was when the editing session began.
func (b *Brush) DiscardChanges() {
	if b.sessionUndo == nil {
		return
	}
	b.restore(b.sessionUndo)
	b.sessionUndo = nil
}

// SaveChanges commits the session: both undo levels are dropped.
func (b *Brush) SaveChanges() {
	b.sessionUndo = nil
	b.strokeUndo = nil
}

// CanDiscardStroke and CanDiscardChanges report which undo levels are available.
func (b *Brush) CanDiscardStroke() bool  { return b.strokeUndo != nil }
func (b *Brush) CanDiscardChanges() bool { return b.sessionUndo != nil }

// Bitmap returns a copy of the current mask. An untouched mask is all white.
func (b *Brush) Bitmap() *image.RGBA {
	if b.canvas == nil {
		img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		return img
	}
	return b.canvas.ResizeTarget().ToImage()
}

// Delete frees the painted texture. The fallback belongs to the renderer.
func (b *Brush) Delete() {
	if b.texture != nil {
		b.texture.Unload()
		b.texture = nil
	}
	if b.canvas != nil {
		_ = b.canvas.Close()
		b.canvas = nil
	}
	b.sessionUndo, b.strokeUndo = nil, nil
	b.previous = nil
}

func (b *Brush) initialize() {
	if b.canvas == nil {
		b.canvas = gg.NewContext(b.width, b.height)
		b.canvas.ClearWithColor(gg.White)
	}
	if b.texture == nil {
		b.texture = gpu.NewTexture(b.device, b.canvas.ResizeTarget().ToImage())
	}
	if b.sessionUndo == nil {
		b.sessionUndo = b.snapshot()
	}
	b.strokeUndo = b.snapshot()
}

func (b *Brush) snapshot() []byte {
	return append([]byte(nil), b.canvas.ResizeTarget().Data()...)
}

func (b *Brush) restore(pixels []byte) {
	if b.canvas == nil {
		return
	}
	copy(b.canvas.ResizeTarget().Data(), pixels)
	b.upload()
}

func (b *Brush) upload() {
	if b.texture == nil {
		return
	}
	b.texture.LoadPixels(b.width, b.height, b.snapshot())
}
