package spinner_test

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/gpu/soft"
	"spinner-editor/internal/mask"
	"spinner-editor/internal/spinner"
	"spinner-editor/internal/turntable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type host struct {
	r       *engine2D.Renderer
	redraws int
}

func (h *host) Redraw()                       { h.redraws++ }
func (h *host) Renderer() *engine2D.Renderer { return h.r }

// indexedSource serves 4x4 turntable frames whose red channel is the frame index.
type indexedSource struct {
	count int
	err   error
}

func (s indexedSource) FrameCount() int { return s.count }

func (s indexedSource) Frame(index int) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(index), 0, 0, 255})
			img.SetRGBA(4+x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return img, nil
}

func newHost(t *testing.T) (*host, *soft.Device) {
	t.Helper()
	device := soft.New(16, 16)
	r, err := engine2D.NewRenderer(device, engine2D.Size{W: 16, H: 16}, 1)
	require.NoError(t, err)
	return &host{r: r}, device
}

func newSpinner(t *testing.T, src turntable.Source) (*spinner.Spinner, *host, *soft.Device) {
	t.Helper()
	h, device := newHost(t)
	s := spinner.New(h, turntable.NewLoader(src, 2), engine2D.Rect{W: 16, H: 16}, 2)
	return s, h, device
}

func settle(s *spinner.Spinner) {
	s.WaitFrames()
	s.Poll()
}

// shownFrame is the frame index uploaded into the sprite's texture.
func shownFrame(t *testing.T, s *spinner.Spinner) int {
	t.Helper()
	require.NotNil(t, s.Sprite())
	require.NotNil(t, s.Sprite().Texture())
	return int(s.Sprite().Texture().Pixels()[0])
}

func loaded(t *testing.T, src turntable.Source) (*spinner.Spinner, *host, *soft.Device) {
	t.Helper()
	s, h, device := newSpinner(t, src)
	var loadErr error
	called := false
	s.Load(func(err error) { called, loadErr = true, err })
	settle(s)
	require.True(t, called)
	require.NoError(t, loadErr)
	return s, h, device
}

func TestNewSpinnerDefaults(t *testing.T) {
	s, h, _ := newSpinner(t, indexedSource{count: 256})

	assert.Equal(t, engine2D.Point{X: 8, Y: 8}, s.Position())
	assert.Equal(t, float32(spinner.DefaultScale), s.Scale())
	assert.Equal(t, 81, s.Cursor().FrameIndex())
	assert.False(t, s.Loaded())
	assert.Positive(t, h.redraws)
}

func TestScaleIsClamped(t *testing.T) {
	s, _, _ := newSpinner(t, indexedSource{count: 256})

	s.SetScale(10)
	assert.Equal(t, float32(spinner.MaxScale), s.Scale())
	s.SetScale(0)
	assert.Equal(t, float32(spinner.MinScale), s.Scale())
}

func TestRotationStaysWithinOneTurn(t *testing.T) {
	s, _, _ := newSpinner(t, indexedSource{count: 256})

	s.SetRotation(2*math.Pi + 1)
	assert.InDelta(t, 1, s.Rotation(), 1e-5)
}

func TestScreenScaleFactor(t *testing.T) {
	assert.InDelta(t, 1.5, spinner.ScreenScaleFactor(1024), 1e-6)
	assert.InDelta(t, 2.8125, spinner.ScreenScaleFactor(1920), 1e-6)
}

func TestLoadCreatesSprite(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	require.True(t, s.Loaded())
	sprite := s.Sprite()
	// texture height 4 x scale 0.5 x screen scale 2
	assert.Equal(t, engine2D.Size{W: 4, H: 4}, sprite.Size())
	assert.Equal(t, engine2D.Point{X: 8, Y: 8}, sprite.Position())
	assert.Equal(t, 81, shownFrame(t, s))
	assert.Equal(t, float32(1), sprite.Effects[engine2D.EffectGamma])
	assert.False(t, s.Pending())
}

func TestLoadReportsErrors(t *testing.T) {
	s, _, _ := newSpinner(t, indexedSource{count: 256, err: errors.New("truncated")})

	var loadErr error
	s.Load(func(err error) { loadErr = err })
	settle(s)

	assert.ErrorContains(t, loadErr, "truncated")
	assert.False(t, s.Loaded())
}

func TestSpinStepsEveryTenPixels(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	// the drag offset starts half a step in
	s.Spin(engine2D.Point{X: -4})
	assert.Equal(t, 1, s.Cursor().Longitude)
	assert.False(t, s.Pending())

	s.Spin(engine2D.Point{X: -21})
	assert.Equal(t, 4, s.Cursor().Longitude)
	assert.True(t, s.Pending())

	s.Spin(engine2D.Point{Y: -10})
	assert.Equal(t, 6, s.Cursor().Latitude)

	settle(s)
	assert.Equal(t, 6*16+4, shownFrame(t, s))
}

func TestSpinFollowsSpriteRotation(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})
	s.SetRotation(math.Pi)

	s.Spin(engine2D.Point{X: 26})
	assert.Equal(t, 4, s.Cursor().Longitude)
	assert.Equal(t, 5, s.Cursor().Latitude)
}

func TestSpinClampsLatitude(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	s.Spin(engine2D.Point{Y: -1000})
	assert.Equal(t, 15, s.Cursor().Latitude)
}

func TestDragMovesSprite(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	s.Drag(engine2D.Point{X: 2, Y: -3})
	assert.Equal(t, engine2D.Point{X: 10, Y: 5}, s.Sprite().Position())
}

func TestSelectBounces(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	s.Select()
	require.True(t, s.Bouncing())

	s.UpdateAnimation(0.5)
	assert.InDelta(t, 1, s.Sprite().AnimatedScale(), 1e-6, "the first tick starts the pulse")

	s.UpdateAnimation(0.1)
	assert.InDelta(t, 1.1, s.Sprite().AnimatedScale(), 1e-5)

	s.UpdateAnimation(0.1)
	assert.Equal(t, float32(1), s.Sprite().AnimatedScale())
	assert.False(t, s.Bouncing())
}

func TestDeselectKeepsBakeUntilSelected(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	s.Deselect()
	require.True(t, s.Sprite().Flattened())
	assert.Equal(t, image.Pt(4, 4), s.Sprite().Texture().Size())

	s.Spin(engine2D.Point{X: -10})
	settle(s)
	assert.True(t, s.Sprite().Flattened(), "frames arriving while baked are held back")

	s.Select()
	assert.False(t, s.Sprite().Flattened())
	assert.Equal(t, 82, shownFrame(t, s))
	assert.False(t, s.Pending(), "the held frame is reused")
}

func TestUndoEffectsRestoresSavedSet(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})

	s.UpdateEffect(engine2D.EffectGamma, 1.8)
	s.UndoEffects()
	assert.Equal(t, float32(1), s.Sprite().Effects[engine2D.EffectGamma])

	saved := engine2D.DefaultEffects()
	saved[2].Value = 0.4
	s.SaveEffects(saved)
	saved[2].Value = 2

	s.UpdateEffect(engine2D.EffectGamma, 1.8)
	s.UndoEffects()
	assert.InDelta(t, 0.4, s.Sprite().Effects[engine2D.EffectGamma], 1e-6)
}

func TestBrushSessionUnlocks(t *testing.T) {
	s, _, _ := loaded(t, indexedSource{count: 256})
	s.LockedForEditing = true
	s.SetBrushType(mask.Restore)
	s.SetBrushSize(6)

	brush := s.Sprite().Brush
	assert.Equal(t, mask.Restore, brush.Type)
	assert.Equal(t, float32(6), brush.LineSize)

	s.MaskDrawStart(engine2D.Point{X: 1, Y: 1}, 1)
	s.MaskDrawTo(engine2D.Point{X: 2, Y: 2})
	s.MaskDrawStop()
	assert.True(t, brush.CanDiscardChanges())

	s.SaveBrushStrokes()
	assert.False(t, s.LockedForEditing)
	assert.False(t, brush.CanDiscardChanges())

	s.LockedForEditing = true
	s.DiscardBrushStrokes()
	assert.False(t, s.LockedForEditing)
}

func TestTranslatePointWithoutSprite(t *testing.T) {
	s, _, _ := newSpinner(t, indexedSource{count: 256})
	p := engine2D.Point{X: 3, Y: 4}
	assert.Equal(t, p, s.TranslatePoint(p, engine2D.Rect{W: 16, H: 16}))
}

func TestDeleteFreesSprite(t *testing.T) {
	s, _, device := loaded(t, indexedSource{count: 256})

	s.Delete()
	assert.Nil(t, s.Sprite())
	assert.Equal(t, 1, device.TextureCount(), "only the renderer's default mask")
}
