package main

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"spinner-editor/internal/app"
	"spinner-editor/internal/config"
	"spinner-editor/internal/debug"
	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/export"
	"spinner-editor/internal/gpu/rlgpu"
	"spinner-editor/internal/mask"
	"spinner-editor/internal/scene"
	"spinner-editor/internal/spinner"
	"spinner-editor/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	// tapSlop is how far the pointer may move between press and release for a tap.
	tapSlop     = 4
	wheelPinch  = 0.1
	rotateSpeed = 1.5 // radians per second
	effectStep  = 0.02
)

type Window struct {
	cfg      config.Config
	device   *rlgpu.Device
	renderer *engine2D.Renderer
	scene    *scene.Scene
	overlay  debug.Overlay
	clock    *engine2D.Clock

	pressPos engine2D.Point
	dragging bool
	touching bool

	effects   []engine2D.Effect
	effect    int
	brushType mask.Type
}

func runWindow(cfg config.Config) error {
	rl.SetTraceLogCallback(utils.RaylibLogCallback)
	flags := uint32(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	if cfg.Window.Fullscreen {
		flags |= rl.FlagFullscreenMode
	}
	rl.SetConfigFlags(flags)

	// query before the window exists so the scale factor matches the desktop
	screenW := screenWidth(cfg, cfg.Window.Width)

	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "Spinner Editor")
	defer rl.CloseWindow()
	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(int32(cfg.Window.FPS))

	window, err := NewWindow(cfg, screenW)
	if err != nil {
		return err
	}
	defer window.Close()

	window.Run()
	return nil
}

func NewWindow(cfg config.Config, screenW int) (*Window, error) {
	ns := rl.GetWindowScaleDPI().X
	if ns <= 0 {
		ns = 1
	}
	frame := engine2D.Size{W: float32(rl.GetScreenWidth()), H: float32(rl.GetScreenHeight())}

	device := rlgpu.New()
	renderer, err := engine2D.NewRenderer(device, frame, ns)
	if err != nil {
		return nil, err
	}

	window := &Window{
		cfg:      cfg,
		device:   device,
		renderer: renderer,
		clock:    engine2D.NewClock(),
		effects:  engine2D.DefaultEffects(),
	}
	window.scene = scene.New(renderer, frame, ns, app.SceneOptions(cfg, screenW, window)...)

	if err := app.LoadBackground(window.scene, cfg); err != nil {
		utils.Error("Window: Background - %v", err)
	}
	app.LoadTurntables(window.scene, cfg)
	window.updateStatus()
	return window, nil
}

func (window *Window) Run() {
	for !rl.WindowShouldClose() {
		window.Update()

		rl.BeginDrawing()
		window.Draw()
		rl.EndDrawing()
	}
}

func (window *Window) Close() {
	window.scene.Delete()
	window.renderer.Delete()
}

// ContentRemoved, ContentCountChanged and ContentChanged make the window a scene.Listener.
func (window *Window) ContentRemoved(sp *spinner.Spinner) {
	utils.Debug("Window: Spinner removed")
}

func (window *Window) ContentCountChanged() {
	utils.Info("Window: %d spinners", window.scene.ContentCount())
	window.syncEffects()
}

func (window *Window) ContentChanged() {}

func (window *Window) Update() {
	dt := window.clock.Tick()
	sc := window.scene

	window.handleDrops()
	window.handlePointer()
	window.handleKeys(float32(dt))

	sc.Update(dt)
}

func (window *Window) Draw() {
	// the back buffer does not keep the previous frame
	window.scene.Redraw()
	window.scene.Draw()
	window.device.Release(rl.GetRenderWidth(), rl.GetRenderHeight())

	if window.scene.Loading() {
		rl.DrawText("Loading...", 10, int32(rl.GetScreenHeight())-30, 20, rl.RayWhite)
	}
	window.overlay.Draw(window.scene)
}

func mousePoint() engine2D.Point {
	p := rl.GetMousePosition()
	return engine2D.Point{X: p.X, Y: p.Y}
}

func (window *Window) handlePointer() {
	sc := window.scene
	p := mousePoint()
	d := rl.GetMouseDelta()
	delta := engine2D.Point{X: d.X, Y: d.Y}
	editing := sc.Current() != nil && sc.Current().LockedForEditing

	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		window.pressPos = p
		window.dragging = false
		if editing {
			window.touching = true
			sc.TouchBegan(p)
		}
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		if math.Hypot(float64(p.X-window.pressPos.X), float64(p.Y-window.pressPos.Y)) > tapSlop {
			window.dragging = true
		}
		if window.touching {
			sc.TouchMoved(p)
		} else if window.dragging && (delta.X != 0 || delta.Y != 0) {
			sc.Pan(delta)
		}
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		switch {
		case window.touching:
			window.touching = false
			sc.TouchEnded(p)
		case !window.dragging:
			sc.Tap(p)
		default:
			sc.TouchEnded()
		}
	}

	if rl.IsMouseButtonDown(rl.MouseButtonRight) && (delta.X != 0 || delta.Y != 0) {
		sc.DoublePan(delta)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		if rl.IsKeyDown(rl.KeyLeftControl) {
			sc.Rotate(wheel * 0.1)
			return
		}
		scale := float32(1 + wheel*wheelPinch)
		sc.Pinch(scale, p, scene.GestureBegan)
		sc.Pinch(scale, p, scene.GestureEnded)
	}
}

func (window *Window) handleKeys(dt float32) {
	sc := window.scene
	current := sc.Current()
	ctrl := rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl)

	switch {
	case rl.IsKeyPressed(rl.KeyF8):
		window.overlay.Enabled = !window.overlay.Enabled
	case rl.IsKeyPressed(rl.KeyF11):
		rl.ToggleFullscreen()
	case rl.IsKeyPressed(rl.KeyTab):
		sc.SelectNext()
		window.syncEffects()
	case rl.IsKeyPressed(rl.KeyDelete) && current != nil:
		sc.RemoveContent(current)
	case rl.IsKeyPressed(rl.KeyPageUp) && current != nil:
		sc.MoveContent(current, scene.Up)
	case rl.IsKeyPressed(rl.KeyPageDown) && current != nil:
		sc.MoveContent(current, scene.Down)
	case rl.IsKeyPressed(rl.KeyHome) && current != nil:
		sc.MoveContent(current, scene.Front)
	case rl.IsKeyPressed(rl.KeyEnd) && current != nil:
		sc.MoveContent(current, scene.Back)
	case rl.IsKeyPressed(rl.KeyZ) && ctrl:
		sc.UndoEffects()
		window.syncEffects()
	case rl.IsKeyPressed(rl.KeyZ):
		sc.SetZooming(!sc.Zooming())
	case rl.IsKeyPressed(rl.KeyM):
		sc.EnableContentEditorMode()
	case rl.IsKeyPressed(rl.KeyB):
		window.brushType = 1 - window.brushType
		sc.SetBrushType(window.brushType)
	case rl.IsKeyPressed(rl.KeyEnter):
		if current != nil && current.LockedForEditing {
			sc.SaveBrushStrokes()
			sc.SetZooming(false)
		} else {
			sc.SaveEffects(window.effects)
		}
	case rl.IsKeyPressed(rl.KeyEscape):
		if current != nil && current.LockedForEditing {
			sc.DiscardBrushStrokes()
			sc.SetZooming(false)
		}
	case rl.IsKeyPressed(rl.KeyBackspace):
		sc.DiscardLastBrushStroke()
	case rl.IsKeyPressed(rl.KeyEqual):
		window.cfg.BrushSize *= 1.25
		sc.SetBrushSize(window.cfg.BrushSize)
	case rl.IsKeyPressed(rl.KeyMinus):
		window.cfg.BrushSize /= 1.25
		sc.SetBrushSize(window.cfg.BrushSize)
	case rl.IsKeyPressed(rl.KeyW):
		sc.SetWatermarkHidden(!sc.WatermarkHidden())
	case rl.IsKeyPressed(rl.KeyS) && ctrl:
		window.saveSnapshot()
	case rl.IsKeyPressed(rl.KeyUp):
		window.stepEffect(effectStep)
	case rl.IsKeyPressed(rl.KeyDown):
		window.stepEffect(-effectStep)
	}

	for i := range window.effects {
		if rl.IsKeyPressed(int32(rl.KeyOne) + int32(i)) {
			window.effect = i
		}
	}

	if rl.IsKeyDown(rl.KeyQ) {
		sc.Rotate(-rotateSpeed * dt)
	}
	if rl.IsKeyDown(rl.KeyE) {
		sc.Rotate(rotateSpeed * dt)
	}
	window.updateStatus()
}

// syncEffects reloads the effect panel from the selection.
func (window *Window) syncEffects() {
	window.effects = engine2D.DefaultEffects()
	current := window.scene.Current()
	if current == nil || current.Sprite() == nil {
		return
	}
	values := current.Sprite().Effects
	for i := range window.effects {
		if v, ok := values[window.effects[i].Name]; ok {
			window.effects[i].Value = v
		}
	}
}

func (window *Window) stepEffect(fraction float32) {
	if window.scene.Current() == nil {
		return
	}
	e := &window.effects[window.effect]
	e.Step(fraction)
	window.scene.UpdateEffect(e.Name, e.Value)
}

func (window *Window) updateStatus() {
	e := window.effects[window.effect]
	window.overlay.Status = fmt.Sprintf("%s %.2f  brush %s %.0f",
		e.DisplayName, e.Converted(), window.brushType, window.cfg.BrushSize)
}

func (window *Window) saveSnapshot() {
	img, err := window.scene.Snapshot()
	if err != nil {
		utils.Error("Window: Snapshot - %v", err)
		return
	}
	path := fmt.Sprintf("snapshot-%s.png", time.Now().Format("20060102-150405"))
	if err := export.WriteFile(path, img); err != nil {
		utils.Error("Window: Snapshot - %v", err)
	}
}

// handleDrops adds dropped turntables and replaces the background with a dropped photo.
func (window *Window) handleDrops() {
	if !rl.IsFileDropped() {
		return
	}
	files := rl.LoadDroppedFiles()
	defer rl.UnloadDroppedFiles()

	for _, path := range files {
		if utils.HasImageExtension(path) {
			img, err := app.LoadImage(path)
			if err != nil {
				utils.Error("Window: %v", err)
				continue
			}
			app.SetBackground(window.scene, img, window.cfg.FullFrame)
			utils.Info("Window: Background %s", filepath.Base(path))
			continue
		}
		if err := app.AddTurntable(window.scene, path, window.cfg.BrushSize); err != nil {
			utils.Error("Window: %v", err)
		}
	}
}
