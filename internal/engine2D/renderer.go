package engine2D

import (
	"fmt"
	"image"

	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu"
	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer is the rendering context shared by every sprite of one scene: the device,
// the offscreen target, the compiled programs and the current render target state.
type Renderer struct {
	Device    gpu.Device
	Offscreen *gpu.Offscreen

	Simple  *ContentProgram
	Spinner *ContentProgram
	HitTest *ContentProgram
	Blur    *ContentProgram

	// FrameSize is the drawable size in on-screen units; NativeScale converts to pixels.
	FrameSize   Size
	NativeScale float32
	// BackgroundSize centers the viewport on the background when non-zero.
	BackgroundSize Size

	viewport image.Rectangle

	snapshotting     bool
	snapshotTarget   *gpu.Texture
	snapshotViewport image.Rectangle

	whiteMask *gpu.Texture
}

// NewRenderer compiles the built-in programs. Any compile failure is fatal for the scene.
func NewRenderer(device gpu.Device, frame Size, nativeScale float32) (*Renderer, error) {
	if nativeScale <= 0 {
		nativeScale = 1
	}
	programs, err := shader.LoadAll(device)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	r := &Renderer{
		Device:      device,
		Offscreen:   gpu.NewOffscreen(device),
		Simple:      NewContentProgram(programs[shader.Simple], frame),
		Spinner:     NewContentProgram(programs[shader.Spinner], frame),
		HitTest:     NewContentProgram(programs[shader.HitTest], frame),
		Blur:        NewContentProgram(programs[shader.GaussianBlur], frame),
		FrameSize:   frame,
		NativeScale: nativeScale,
		whiteMask:   gpu.NewTexture(device, shader.WhiteImage()),
	}
	utils.Info("Renderer: Ready - frame %.0fx%.0f @%.2fx", frame.W, frame.H, nativeScale)
	return r, nil
}

// SceneProgramsDo calls fn for every program that draws into the scene.
func (r *Renderer) SceneProgramsDo(fn func(p *ContentProgram)) {
	for _, p := range []*ContentProgram{r.Simple, r.Spinner, r.HitTest} {
		fn(p)
	}
}

// SetSceneView points the scene programs at frame.
func (r *Renderer) SetSceneView(frame Rect) {
	r.SceneProgramsDo(func(p *ContentProgram) { p.SetViewFrame(frame) })
}

func (r *Renderer) SetSceneProjection(m mgl32.Mat4) {
	r.SceneProgramsDo(func(p *ContentProgram) { p.SetProjection(m) })
}

func (r *Renderer) SceneProjection() mgl32.Mat4 {
	return r.Simple.Projection()
}

// DefaultMask is the 1x1 white texture used by sprites without a painted mask.
func (r *Renderer) DefaultMask() *gpu.Texture { return r.whiteMask }

// UpdateViewport centers the viewport on the background, or covers the frame without one.
func (r *Renderer) UpdateViewport() {
	ns := r.NativeScale
	var x, y, w, h int
	if r.BackgroundSize.W > 0 && r.BackgroundSize.H > 0 {
		x = int((r.FrameSize.W - r.BackgroundSize.W) / 2 * ns)
		y = int((r.FrameSize.H - r.BackgroundSize.H) / 2 * ns)
		w = int(r.BackgroundSize.W * ns)
		h = int(r.BackgroundSize.H * ns)
	} else {
		w = int(r.FrameSize.W * ns)
		h = int(r.FrameSize.H * ns)
	}
	r.viewport = image.Rect(x, y, x+w, y+h)
	r.Device.Viewport(x, y, w, h)
}

// ViewportRect is the last on-screen viewport, in pixels.
func (r *Renderer) ViewportRect() image.Rectangle { return r.viewport }

// RestoreRenderState rebinds the target the scene was drawing into before an offscreen pass.
func (r *Renderer) RestoreRenderState() {
	if r.snapshotting {
		r.Offscreen.Bind()
		if r.snapshotTarget != nil {
			r.Offscreen.Attach(r.snapshotTarget)
		}
		v := r.snapshotViewport
		r.Device.Viewport(v.Min.X, v.Min.Y, v.Dx(), v.Dy())
		return
	}
	r.Device.BindFramebuffer(gpu.DefaultFramebuffer)
	r.UpdateViewport()
}

func (r *Renderer) Snapshotting() bool { return r.snapshotting }

// BeginSnapshot redirects drawing into a fresh width x height texture.
func (r *Renderer) BeginSnapshot(width, height int) {
	r.snapshotting = true
	r.snapshotTarget = gpu.Allocate(r.Device, width, height)
	r.snapshotViewport = image.Rect(0, 0, width, height)
	r.RestoreRenderState()
}

// ReadSnapshot reads the snapshot target back, rows top-down.
func (r *Renderer) ReadSnapshot() *image.RGBA {
	if r.snapshotTarget == nil {
		return nil
	}
	w, h := r.snapshotViewport.Dx(), r.snapshotViewport.Dy()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// Scene y = 0 lands on row 0 under the y-up snapshot projection, so rows come back top-down.
	copy(img.Pix, r.Device.ReadPixels(0, 0, w, h))
	return img
}

// EndSnapshot drops the snapshot target and returns to on-screen drawing.
func (r *Renderer) EndSnapshot() {
	if r.snapshotTarget != nil {
		r.snapshotTarget.Unload()
		r.snapshotTarget = nil
	}
	r.snapshotting = false
	r.RestoreRenderState()
}

// ReadPixel reads one on-screen pixel at a y-up pixel position.
func (r *Renderer) ReadPixel(x, y int) [4]byte {
	var px [4]byte
	copy(px[:], r.Device.ReadPixels(x, y, 1, 1))
	return px
}

func (r *Renderer) Delete() {
	for _, p := range []*ContentProgram{r.Simple, r.Spinner, r.HitTest, r.Blur} {
		if p != nil {
			p.Delete()
		}
	}
	r.whiteMask.Unload()
	r.Offscreen.Delete()
}
