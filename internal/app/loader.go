// Package app wires the configured background, watermark and turntables into a scene.
// Both the window host and the headless renderer go through it.
package app

import (
	"fmt"
	"image"
	"image/color"

	"spinner-editor/internal/config"
	"spinner-editor/internal/scene"
	"spinner-editor/internal/spinner"
	"spinner-editor/internal/turntable"
	"spinner-editor/internal/utils"
)

// PlaceholderColor backs the scene when no background photo is configured.
var PlaceholderColor = color.RGBA{70, 90, 120, 255}

// LoadImage decodes a still. path may leave out the extension.
func LoadImage(path string) (image.Image, error) {
	resolved := utils.FindImageFile(path)
	if resolved == "" {
		resolved = utils.ResolveAssetPath(path)
	}
	img, err := turntable.DecodeFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	utils.Debug("Loader: Decoded %s (%dx%d)", resolved, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func SceneOptions(cfg config.Config, screenW int, listener scene.Listener) []scene.Option {
	opts := []scene.Option{
		scene.WithScreenScale(spinner.ScreenScaleFactor(float32(screenW))),
		scene.WithDecodeWorkers(cfg.Workers),
	}
	if listener != nil {
		opts = append(opts, scene.WithListener(listener))
	}
	if cfg.Watermark != "" {
		if img, err := LoadImage(cfg.Watermark); err != nil {
			utils.Warn("Loader: Watermark skipped - %v", err)
		} else {
			opts = append(opts, scene.WithWatermark(img))
		}
	}
	return opts
}

// SetBackground makes img the backdrop of the editor. The spinners stay visible.
func SetBackground(sc *scene.Scene, img image.Image, fullFrame bool) {
	sc.LoadBackground(img, false, fullFrame)
}

func LoadBackground(sc *scene.Scene, cfg config.Config) error {
	if cfg.Background == "" {
		sc.BypassBackground(PlaceholderColor)
		return nil
	}
	img, err := LoadImage(cfg.Background)
	if err != nil {
		sc.BypassBackground(PlaceholderColor)
		return err
	}
	SetBackground(sc, img, cfg.FullFrame)
	return nil
}

// AddTurntable opens path and adds it to the scene. The brush size applies once the
// first frame is in.
func AddTurntable(sc *scene.Scene, path string, brushSize float32) error {
	source, err := turntable.Open(utils.ResolveAssetPath(path))
	if err != nil {
		return err
	}
	utils.Info("Loader: Turntable %s - %d frames", path, source.FrameCount())
	sc.AddSpinner(source, func(sp *spinner.Spinner, err error) {
		if err != nil {
			utils.Error("Loader: %s - %v", path, err)
			return
		}
		sp.SetBrushSize(brushSize)
	})
	return nil
}

func LoadTurntables(sc *scene.Scene, cfg config.Config) int {
	added := 0
	for _, path := range cfg.Turntables {
		if err := AddTurntable(sc, path, cfg.BrushSize); err != nil {
			utils.Error("Loader: %v", err)
			continue
		}
		added++
	}
	return added
}
