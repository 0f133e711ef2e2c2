package main

import (
	"errors"
	"flag"
	"os"

	"spinner-editor/internal/app"
	"spinner-editor/internal/config"
	"spinner-editor/internal/convert"
	"spinner-editor/internal/utils"

	"github.com/gogpu/gg"
)

func main() {
	var flags config.Flags
	flags.Register(flag.CommandLine)
	packDir := flag.String("pack", "", "Pack the frames of this directory into -output and exit")
	extractPack := flag.String("extract", "", "Extract the frames of this pack into the -output directory and exit")
	flag.Parse()

	cfg := config.Default()
	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			utils.Error("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Resolve(flags); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}

	utils.CurrentLevel = utils.ParseLevel(cfg.LogLevel)
	utils.AssetsDir = cfg.AssetsDir
	gg.SetLogger(utils.NewSlogLogger("gg"))

	if *packDir != "" || *extractPack != "" {
		if err := runConvert(*packDir, *extractPack, cfg.Output); err != nil {
			utils.Error("Convert: %v", err)
			os.Exit(1)
		}
		return
	}

	utils.Info("--- Spinner Editor Start ---")

	if cfg.Headless() {
		if err := app.RenderHeadless(cfg); err != nil {
			utils.Error("Headless: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runWindow(cfg); err != nil {
		utils.Error("Window: %v", err)
		os.Exit(1)
	}
}

func runConvert(packDir, extractPack, output string) error {
	if output == "" {
		return errors.New("-output is required")
	}
	if packDir != "" {
		_, err := convert.BuildPack(packDir, output)
		return err
	}
	_, err := convert.ExtractPack(extractPack, output)
	return err
}

// screenWidth is the width the spinner scale factor is based on.
func screenWidth(cfg config.Config, fallback int) int {
	if cfg.ScreenWidth > 0 {
		return cfg.ScreenWidth
	}
	w, _, err := utils.ScreenSize()
	utils.CloseX11()
	if err != nil || w <= 0 {
		utils.Warn("Screen: X11 query failed, using %d - %v", fallback, err)
		return fallback
	}
	return w
}
