// Package export writes scene snapshots to disk and prepares images for upload.
package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"spinner-editor/internal/utils"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// FormatFor picks the format from a file extension. Unknown extensions fall back to PNG.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return WebP
	default:
		return PNG
	}
}

func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("export: unsupported format %q", format)
}

// WriteFile encodes img into path, creating parent directories as needed.
func WriteFile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	format := FormatFor(path)
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	b := img.Bounds()
	utils.Info("Export: Wrote %s (%s %dx%d)", path, format, b.Dx(), b.Dy())
	return nil
}

// ScaleToFit shrinks img to fit maxW x maxH, keeping its aspect ratio.
// Images that already fit are returned unchanged.
func ScaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH || w == 0 || h == 0 {
		return img
	}

	ratio := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(int(float64(w)*ratio+0.5), 1)
	nh := max(int(float64(h)*ratio+0.5), 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	utils.Debug("Export: Scaled %dx%d down to %dx%d", w, h, nw, nh)
	return dst
}
