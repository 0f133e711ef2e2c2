package app

import (
	"fmt"
	"time"

	"spinner-editor/internal/config"
	"spinner-editor/internal/engine2D"
	"spinner-editor/internal/export"
	"spinner-editor/internal/gpu/soft"
	"spinner-editor/internal/scene"
	"spinner-editor/internal/utils"
)

// RenderHeadless composes the configured scene on the software device and writes one snapshot.
func RenderHeadless(cfg config.Config) error {
	start := time.Now()
	w, h := cfg.Window.Width, cfg.Window.Height
	frame := engine2D.Size{W: float32(w), H: float32(h)}

	renderer, err := engine2D.NewRenderer(soft.New(w, h), frame, 1)
	if err != nil {
		return err
	}
	defer renderer.Delete()

	screenW := cfg.ScreenWidth
	if screenW == 0 {
		screenW = w
	}
	sc := scene.New(renderer, frame, 1, SceneOptions(cfg, screenW, nil)...)
	defer sc.Delete()

	if err := LoadBackground(sc, cfg); err != nil {
		return err
	}
	if LoadTurntables(sc, cfg) == 0 && len(cfg.Turntables) > 0 {
		return fmt.Errorf("none of the %d turntables could be opened", len(cfg.Turntables))
	}

	sc.WaitForFrames()
	// finish the selection bounce so the snapshot shows the resting size
	sc.Update(engine2D.NewBounce().Duration)
	sc.Update(engine2D.NewBounce().Duration)
	sc.Draw()

	img, err := sc.Snapshot()
	if err != nil {
		return err
	}
	if err := export.WriteFile(cfg.Output, img); err != nil {
		return err
	}
	utils.Info("Headless: %d spinners rendered in %v", sc.ContentCount(), time.Since(start).Round(time.Millisecond))
	return nil
}
