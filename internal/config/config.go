// Package config loads the editor settings from a JSON file and merges command line overrides.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"spinner-editor/internal/utils"
)

type Window struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	FPS        int  `json:"fps"`
}

type Config struct {
	Window Window `json:"window"`

	AssetsDir  string `json:"assets"`
	Background string `json:"background"`
	// FullFrame stretches the background over the whole frame instead of fitting it.
	FullFrame bool   `json:"fullFrame"`
	Watermark string `json:"watermark"`
	// Turntables are frame directories or .spinpack files, one spinner each.
	Turntables []string `json:"turntables"`

	BrushSize float32 `json:"brushSize"`
	LogLevel  string  `json:"logLevel"`

	// Output switches to headless mode: the scene is rendered once and written here.
	Output string `json:"output"`
	// ScreenWidth feeds the spinner scale factor. 0 asks the X server.
	ScreenWidth int `json:"screenWidth"`
	Workers     int `json:"workers"`
}

func Default() Config {
	return Config{
		Window:    Window{Width: 1280, Height: 720, FPS: 60},
		BrushSize: 30,
		LogLevel:  "warn",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	utils.Debug("Config: Loaded %s", path)
	return cfg, nil
}

// Flags are the command line overrides. Zero values leave the config untouched.
type Flags struct {
	ConfigPath  string
	Width       int
	Height      int
	Fullscreen  bool
	FPS         int
	AssetsDir   string
	Background  string
	FullFrame   bool
	Watermark   string
	Turntables  string
	BrushSize   float64
	LogLevel    string
	Debug       bool
	Output      string
	ScreenWidth int
	Workers     int
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a JSON config file")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Start fullscreen")
	fs.IntVar(&f.FPS, "fps", 0, "Target frames per second")
	fs.StringVar(&f.AssetsDir, "assets", "", "Extra directory searched for relative paths")
	fs.StringVar(&f.Background, "background", "", "Background photo")
	fs.BoolVar(&f.FullFrame, "full-frame", false, "Stretch the background over the whole frame")
	fs.StringVar(&f.Watermark, "watermark", "", "Watermark image")
	fs.StringVar(&f.Turntables, "turntables", "", "Comma separated turntable directories or packs")
	fs.Float64Var(&f.BrushSize, "brush", 0, "Mask brush size")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&f.Debug, "debug", false, "Enable verbose debug logging")
	fs.StringVar(&f.Output, "output", "", "Render headless and write a .png or .webp snapshot here")
	fs.IntVar(&f.ScreenWidth, "screen-width", 0, "Screen width for the spinner scale (0 = query X11)")
	fs.IntVar(&f.Workers, "workers", 0, "Frame decode workers per spinner (0 = one per CPU)")
}

// Resolve applies the non-zero flags on top of c and validates the result.
func (c *Config) Resolve(f Flags) error {
	if f.Width > 0 {
		c.Window.Width = f.Width
	}
	if f.Height > 0 {
		c.Window.Height = f.Height
	}
	if f.Fullscreen {
		c.Window.Fullscreen = true
	}
	if f.FPS > 0 {
		c.Window.FPS = f.FPS
	}
	if f.AssetsDir != "" {
		c.AssetsDir = f.AssetsDir
	}
	if f.Background != "" {
		c.Background = f.Background
	}
	if f.FullFrame {
		c.FullFrame = true
	}
	if f.Watermark != "" {
		c.Watermark = f.Watermark
	}
	if f.Turntables != "" {
		c.Turntables = nil
		for _, t := range strings.Split(f.Turntables, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.Turntables = append(c.Turntables, t)
			}
		}
	}
	if f.BrushSize > 0 {
		c.BrushSize = float32(f.BrushSize)
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.Debug {
		c.LogLevel = "debug"
	}
	if f.Output != "" {
		c.Output = f.Output
	}
	if f.ScreenWidth > 0 {
		c.ScreenWidth = f.ScreenWidth
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	return c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d", c.Window.FPS))
	}
	if c.BrushSize <= 0 {
		errs = append(errs, fmt.Errorf("brush size %g", c.BrushSize))
	}
	if c.ScreenWidth < 0 {
		errs = append(errs, fmt.Errorf("screen width %d", c.ScreenWidth))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Headless reports whether the run should render once to Output instead of opening a window.
func (c Config) Headless() bool { return c.Output != "" }
