package turntable

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"spinner-editor/internal/utils"

	_ "github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
)

// Source yields the frames of one capture. Frame must be safe for concurrent use.
type Source interface {
	FrameCount() int
	Frame(index int) (image.Image, error)
}

// Open picks the source for path: a directory of stills or a frame pack file.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("turntable: %w", err)
	}
	if info.IsDir() {
		return OpenDir(path)
	}
	return OpenPack(path)
}

// DirSource reads frames from the image files of a directory, in name order.
type DirSource struct {
	dir   string
	files []string
}

func OpenDir(dir string) (*DirSource, error) {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("turntable: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("turntable: no frames in %s", dir)
	}

	utils.Debug("Turntable: %s - %d frames", dir, len(files))
	return &DirSource{dir: dir, files: files}, nil
}

func (d *DirSource) FrameCount() int { return len(d.files) }

func (d *DirSource) Frame(index int) (image.Image, error) {
	if index < 0 || index >= len(d.files) {
		return nil, fmt.Errorf("turntable: frame %d out of range [0, %d)", index, len(d.files))
	}
	return DecodeFile(d.files[index])
}

// DecodeFile decodes any registered still image format: PNG, JPEG, TGA or WebP.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("turntable: read %s: %w", path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("turntable: decode %s: %w", path, err)
	}
	utils.Debug("Turntable: Decoded %s (%s %dx%d)", filepath.Base(path), format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// ImageSource serves frames already in memory.
type ImageSource []image.Image

func (s ImageSource) FrameCount() int { return len(s) }

func (s ImageSource) Frame(index int) (image.Image, error) {
	if index < 0 || index >= len(s) {
		return nil, fmt.Errorf("turntable: frame %d out of range [0, %d)", index, len(s))
	}
	return s[index], nil
}
