package app

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"spinner-editor/internal/config"
	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu/soft"
	"spinner-editor/internal/scene"
	"spinner-editor/internal/turntable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// writeTurntable packs 256 red frames with an opaque matte.
func writeTurntable(t *testing.T, path string) {
	t.Helper()
	frame := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			frame.SetRGBA(x, y, red)
			frame.SetRGBA(4+x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	w := turntable.NewPackWriter(f, 8, 4)
	for i := 0; i < 256; i++ {
		require.NoError(t, w.Add(frame))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "room.png"), shader.SolidImage(blue, 40, 40))
	writeTurntable(t, filepath.Join(dir, "chair.spinpack"))

	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 40, 40
	cfg.Background = filepath.Join(dir, "room")
	cfg.Turntables = []string{filepath.Join(dir, "chair.spinpack")}
	// spinners become 4 x 0.5 x 6 = 12 units wide
	cfg.ScreenWidth = 4096
	return cfg
}

func newScene(t *testing.T, cfg config.Config) (*scene.Scene, *soft.Device) {
	t.Helper()
	device := soft.New(cfg.Window.Width, cfg.Window.Height)
	frame := engine2D.Size{W: float32(cfg.Window.Width), H: float32(cfg.Window.Height)}
	r, err := engine2D.NewRenderer(device, frame, 1)
	require.NoError(t, err)
	sc := scene.New(r, frame, 1, SceneOptions(cfg, cfg.ScreenWidth, nil)...)
	t.Cleanup(func() {
		sc.Delete()
		r.Delete()
	})
	return sc, device
}

func TestLoadBackgroundKeepsSpinnersVisible(t *testing.T) {
	cfg := testConfig(t)
	sc, device := newScene(t, cfg)

	require.NoError(t, LoadBackground(sc, cfg))
	assert.False(t, sc.BackgroundSelectionMode)
	assert.Equal(t, engine2D.Size{W: 40, H: 40}, sc.PhotoSize())

	assert.Equal(t, 1, LoadTurntables(sc, cfg))
	sc.WaitForFrames()
	sc.Update(engine2D.NewBounce().Duration)
	sc.Draw()

	center := device.ReadPixels(20, 20, 1, 1)
	assert.InDelta(t, 255, center[0], 2)
	assert.Zero(t, center[2])
	assert.Equal(t, []byte{0, 0, 255}, device.ReadPixels(2, 2, 1, 1)[:3])
}

func TestSetBackgroundLeavesSelectionMode(t *testing.T) {
	cfg := testConfig(t)
	sc, _ := newScene(t, cfg)
	sc.BackgroundSelectionMode = true

	SetBackground(sc, shader.SolidImage(blue, 20, 10), true)
	assert.False(t, sc.BackgroundSelectionMode)
	assert.Equal(t, engine2D.Rect{W: 40, H: 40}, sc.ViewFrame())
}

func TestMissingBackgroundFallsBackToPlaceholder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Background = filepath.Join(t.TempDir(), "gone.png")
	sc, _ := newScene(t, cfg)

	assert.Error(t, LoadBackground(sc, cfg))
	assert.False(t, sc.BackgroundSelectionMode)
	assert.Equal(t, engine2D.Size{W: 40, H: 40}, sc.PhotoSize())
}

func TestAddTurntableRejectsMissingPath(t *testing.T) {
	cfg := testConfig(t)
	sc, _ := newScene(t, cfg)

	assert.ErrorIs(t, AddTurntable(sc, filepath.Join(t.TempDir(), "none"), 20), os.ErrNotExist)
	assert.Zero(t, sc.ContentCount())
}

func TestRenderHeadlessDrawsTurntablesOverBackground(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output = filepath.Join(t.TempDir(), "out", "scene.png")

	require.NoError(t, RenderHeadless(cfg))

	f, err := os.Open(cfg.Output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())

	center := color.RGBAModel.Convert(img.At(20, 20)).(color.RGBA)
	assert.InDelta(t, 255, center.R, 2)
	assert.Zero(t, center.B)
	assert.Equal(t, blue, color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA))
}
