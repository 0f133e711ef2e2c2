// Package convert moves turntable captures between frame directories and frame packs.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"spinner-editor/internal/export"
	"spinner-editor/internal/turntable"
	"spinner-editor/internal/utils"
)

// maxConcurrency bounds the frames held in memory at once.
const maxConcurrency = 10

// FrameName is the file name ExtractPack gives frame index. It sorts in frame order.
func FrameName(index int) string {
	return fmt.Sprintf("frame_%04d.png", index)
}

// ExtractPack writes every frame of the pack at packPath as a PNG into outDir and
// returns how many were written. Frames that fail are logged and reported together.
func ExtractPack(packPath, outDir string) (int, error) {
	utils.Debug("Unpacker: Opening pack %s", packPath)
	pack, err := turntable.OpenPack(packPath)
	if err != nil {
		return 0, err
	}
	defer pack.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	var (
		written int32
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
	)
	sem := make(chan struct{}, maxConcurrency)

	count := pack.FrameCount()
	for i := 0; i < count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int) {
			defer wg.Done()
			defer func() { <-sem }()

			err := extractFrame(pack, index, outDir)
			if err != nil {
				utils.Error("Unpacker: Frame %d/%d - %v", index+1, count, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			atomic.AddInt32(&written, 1)
		}(i)
	}
	wg.Wait()

	utils.Info("Unpacker: Extracted %d/%d frames to %s", written, count, outDir)
	return int(written), errors.Join(errs...)
}

func extractFrame(pack *turntable.PackSource, index int, outDir string) error {
	img, err := pack.Frame(index)
	if err != nil {
		return err
	}
	return export.WriteFile(filepath.Join(outDir, FrameName(index)), img)
}

// BuildPack packs the frames of dir, in name order, into a new file at outPath.
// Frames are decoded in parallel and written in order.
func BuildPack(dir, outPath string) (int, error) {
	source, err := turntable.OpenDir(dir)
	if err != nil {
		return 0, err
	}

	loader := turntable.NewLoader(source, maxConcurrency)
	tasks := make([]*turntable.Task, source.FrameCount())
	for i := range tasks {
		tasks[i] = loader.Request(i)
	}
	defer loader.Wait()

	first, err := tasks[0].Wait()
	if err != nil {
		return 0, err
	}
	size := first.Bounds().Size()

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return 0, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pw := turntable.NewPackWriter(f, size.X, size.Y)
	for i, t := range tasks {
		img, err := t.Wait()
		if err == nil {
			err = pw.Add(img)
		}
		if err != nil {
			return i, fmt.Errorf("frame %d: %w", i, err)
		}
		if i%16 == 0 || i == len(tasks)-1 {
			utils.Debug("Unpacker: Packed frame %d/%d", i+1, len(tasks))
		}
	}
	if err := pw.Flush(); err != nil {
		return 0, err
	}
	utils.Info("Unpacker: Packed %d frames of %dx%d into %s", len(tasks), size.X, size.Y, outPath)
	return len(tasks), f.Close()
}
