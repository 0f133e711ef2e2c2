package utils

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindImageFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "room.jpg"))
	touch(t, filepath.Join(dir, "logo.webp"))

	assert.Equal(t, filepath.Join(dir, "room.jpg"), FindImageFile(filepath.Join(dir, "room")))
	assert.Equal(t, filepath.Join(dir, "logo.webp"), FindImageFile(filepath.Join(dir, "logo.png")))
	assert.Empty(t, FindImageFile(filepath.Join(dir, "missing")))
	assert.Empty(t, FindImageFile(""))
}

func TestResolveAssetPathUsesAssetsDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "watermark.png"))

	old := AssetsDir
	AssetsDir = dir
	t.Cleanup(func() { AssetsDir = old })

	assert.Equal(t, filepath.Join(dir, "watermark.png"), ResolveAssetPath("watermark.png"))
	assert.Equal(t, "/abs/x.png", ResolveAssetPath("/abs/x.png"))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.png", "notes.txt"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.png"), 0o755))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.PNG")}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelWarn, ParseLevel("verbose"))
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	old := CurrentLevel
	CurrentLevel = LevelWarn
	t.Cleanup(func() { CurrentLevel = old })

	logger := NewSlogLogger("gg").With("w", 4)
	logger.Info("hidden")
	logger.Warn("stroke failed", "err", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "gg: stroke failed w=4 err=boom")
	assert.Contains(t, out, "[WARN]")
}
