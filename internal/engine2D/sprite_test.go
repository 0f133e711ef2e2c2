package engine2D_test

import (
	"image"
	"image/color"
	"testing"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu"
	"spinner-editor/internal/gpu/soft"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, w, h int) (*engine2D.Renderer, *soft.Device) {
	t.Helper()
	device := soft.New(w, h)
	r, err := engine2D.NewRenderer(device, engine2D.Size{W: float32(w), H: float32(h)}, 1)
	require.NoError(t, err)
	r.RestoreRenderState()
	return r, device
}

func clearOpaque(device gpu.Device) {
	device.ColorMask(true, true, true, true)
	device.ClearColor(0, 0, 0, 1)
	device.Clear()
}

func pixel(device gpu.Device, x, y int) [4]byte {
	var px [4]byte
	copy(px[:], device.ReadPixels(x, y, 1, 1))
	return px
}

func TestNewRendererCompilesEveryProgram(t *testing.T) {
	r, device := newRenderer(t, 4, 4)

	for _, p := range []*engine2D.ContentProgram{r.Simple, r.Spinner, r.HitTest, r.Blur} {
		assert.True(t, p.Valid(), p.Name())
	}
	assert.Equal(t, image.Rect(0, 0, 4, 4), r.ViewportRect())
	assert.Equal(t, 1, device.TextureCount(), "only the default mask")
}

func TestViewportCentersOnBackground(t *testing.T) {
	r, device := newRenderer(t, 20, 10)
	r.NativeScale = 2
	r.BackgroundSize = engine2D.Size{W: 10, H: 10}
	r.UpdateViewport()

	assert.Equal(t, image.Rect(10, 0, 30, 20), r.ViewportRect())
	assert.Equal(t, r.ViewportRect(), device.CurrentViewport())
}

func TestContentSpriteDrawsTopDown(t *testing.T) {
	r, device := newRenderer(t, 8, 8)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 0, 0, 255}, 2, 2), r.Simple)
	assert.Equal(t, engine2D.Size{W: 2, H: 2}, sprite.Size())

	sprite.SetSize(engine2D.Size{W: 4, H: 4})
	sprite.SetPosition(engine2D.Point{X: 2, Y: 2})

	clearOpaque(device)
	sprite.Render(r, false)

	// scene y grows downwards, framebuffer rows grow upwards
	assert.Equal(t, [4]byte{255, 0, 0, 255}, pixel(device, 1, 6))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, pixel(device, 1, 1))
	assert.Equal(t, [4]byte{0, 0, 0, 255}, pixel(device, 6, 6))
}

func TestHiddenSpriteDrawsNothing(t *testing.T) {
	r, device := newRenderer(t, 4, 4)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 0, 0, 255}, 2, 2), r.Simple)
	sprite.SetPosition(engine2D.Point{X: 2, Y: 2})
	sprite.Hidden = true

	sprite.Render(r, false)
	assert.Zero(t, device.DrawCalls)
}

func TestContentSpriteAlphaBlends(t *testing.T) {
	r, device := newRenderer(t, 4, 4)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 255, 255, 255}, 2, 2), r.Simple)
	sprite.SetSize(engine2D.Size{W: 4, H: 4})
	sprite.SetPosition(engine2D.Point{X: 2, Y: 2})
	sprite.Alpha = 0.5

	clearOpaque(device)
	sprite.Render(r, false)

	px := pixel(device, 2, 2)
	assert.InDelta(t, 128, px[0], 1)
	assert.Equal(t, byte(255), px[3], "the color pass never writes alpha")
}

func TestLoadKeepsTextureHandle(t *testing.T) {
	r, _ := newRenderer(t, 4, 4)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 0, 0, 255}, 2, 2), r.Simple)
	handle := sprite.Texture().Handle()

	sprite.Load(r, shader.SolidImage(color.RGBA{0, 0, 255, 255}, 4, 2))

	assert.Equal(t, handle, sprite.Texture().Handle())
	assert.Equal(t, engine2D.Size{W: 4, H: 2}, sprite.TextureSize())
}

func TestTranslatePoint(t *testing.T) {
	r, _ := newRenderer(t, 8, 8)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 0, 0, 255}, 2, 2), r.Simple)
	sprite.SetSize(engine2D.Size{W: 4, H: 4})
	sprite.SetPosition(engine2D.Point{X: 4, Y: 4})
	view := engine2D.Rect{W: 8, H: 8}

	center := sprite.TranslatePoint(engine2D.Point{X: 4, Y: 4}, view, true)
	assert.InDelta(t, 0.5, center.X, 1e-4)
	assert.InDelta(t, 0.5, center.Y, 1e-4)

	topLeft := sprite.TranslatePoint(engine2D.Point{X: 2, Y: 2}, view, true)
	assert.InDelta(t, 0, topLeft.X, 1e-4)
	assert.InDelta(t, 0, topLeft.Y, 1e-4)

	// pixels of the color half of a turntable frame
	corner := sprite.TranslatePoint(engine2D.Point{X: 6, Y: 6}, view, false)
	assert.InDelta(t, 1, corner.X, 1e-4)
	assert.InDelta(t, 2, corner.Y, 1e-4)
}

func TestTranslatePointFollowsViewFrame(t *testing.T) {
	r, _ := newRenderer(t, 8, 8)
	sprite := engine2D.NewContentSprite(r, shader.SolidImage(color.RGBA{255, 0, 0, 255}, 2, 2), r.Simple)
	sprite.SetSize(engine2D.Size{W: 4, H: 4})
	sprite.SetPosition(engine2D.Point{X: 4, Y: 4})

	// zoomed 2x onto the top-left quarter: the sprite's top-left corner is now mid-frame
	r.SetSceneView(engine2D.Rect{W: 4, H: 4})
	p := sprite.TranslatePoint(engine2D.Point{X: 4, Y: 4}, engine2D.Rect{W: 8, H: 8}, true)
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 0, p.Y, 1e-4)
}

func TestSnapshotRestoresOnScreenTarget(t *testing.T) {
	r, device := newRenderer(t, 8, 8)
	textures := device.TextureCount()

	r.BeginSnapshot(16, 16)
	assert.True(t, r.Snapshotting())
	assert.NotEqual(t, gpu.DefaultFramebuffer, device.Bound())
	assert.Equal(t, image.Rect(0, 0, 16, 16), device.CurrentViewport())

	img := r.ReadSnapshot()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Rect)

	r.EndSnapshot()
	assert.False(t, r.Snapshotting())
	assert.Equal(t, gpu.DefaultFramebuffer, device.Bound())
	assert.Equal(t, r.ViewportRect(), device.CurrentViewport())
	assert.Equal(t, textures, device.TextureCount())
}
