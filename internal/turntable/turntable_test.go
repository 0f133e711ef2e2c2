package turntable_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"spinner-editor/internal/turntable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCursorStartsAtFrontView(t *testing.T) {
	c := turntable.NewCursor(256)
	assert.Equal(t, 16, c.LatitudeCount)
	assert.Equal(t, 5, c.Latitude)
	assert.Equal(t, 1, c.Longitude)
	assert.Equal(t, 81, c.FrameIndex())

	assert.Equal(t, 16, turntable.NewCursor(0).LatitudeCount)
	assert.Equal(t, 4, turntable.NewCursor(64).LatitudeCount)
}

func TestCursorRotate(t *testing.T) {
	c := turntable.NewCursor(256)

	assert.False(t, c.Rotate(5, 1))

	assert.True(t, c.Rotate(20, 1))
	assert.Equal(t, 15, c.Latitude, "latitude clamps")

	assert.True(t, c.Rotate(-3, 1))
	assert.Equal(t, 0, c.Latitude)

	assert.True(t, c.Rotate(0, 17))
	assert.Equal(t, 1, c.Longitude, "longitude wraps")

	assert.True(t, c.Rotate(0, -1))
	assert.Equal(t, 15, c.Longitude)

	assert.False(t, c.Rotate(-1, 31), "same frame after clamp and wrap")
}

func frames(n, w, h int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, color.NRGBA{uint8(i), uint8(x), uint8(y), 255})
			}
		}
		out[i] = img
	}
	return out
}

func TestPackRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := turntable.NewPackWriter(&buf, 8, 4)
	for _, f := range frames(3, 8, 4) {
		require.NoError(t, w.Add(f))
	}
	require.NoError(t, w.Flush())

	p, err := readPack(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, p.FrameCount())
	assert.Equal(t, image.Pt(8, 4), p.FrameSize())

	img, err := p.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{2, 5, 3, 255}, img.At(5, 3))

	_, err = p.Frame(3)
	assert.Error(t, err)
}

func TestPackCompressesRedundantFrames(t *testing.T) {
	var buf bytes.Buffer
	w := turntable.NewPackWriter(&buf, 64, 64)
	white := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	require.NoError(t, w.Add(white))
	require.Error(t, w.Add(image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, w.Flush())

	assert.Less(t, buf.Len(), 64*64*4, "uniform frame is stored as an lz4 block")

	p, err := readPack(buf.Bytes())
	require.NoError(t, err)
	img, err := p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.At(63, 63))
}

func TestPackRejectsBadMagic(t *testing.T) {
	_, err := readPack([]byte("NOTAPACKxxxxxxxxxxxxxxxx"))
	assert.ErrorContains(t, err, "invalid magic")
}

// rawPack assembles a one-frame pack by hand.
func rawPack(t *testing.T, format turntable.Format, w, h int, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(turntable.PackMagic)
	for _, v := range []uint32{1, uint32(w), uint32(h), 1, uint32(format), 0, uint32(len(payload)), uint32(len(payload))} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.Write(payload)
	return buf.Bytes()
}

func TestPackDecodesDXT1(t *testing.T) {
	// one 4x4 block: color0 pure red (RGB565 0xF800), every index selects color0
	block := []byte{0x00, 0xF8, 0x00, 0x00, 0, 0, 0, 0}

	p, err := readPack(rawPack(t, turntable.FormatDXT1, 4, 4, block))
	require.NoError(t, err)
	img, err := p.Frame(0)
	require.NoError(t, err)

	r, g, b, a := img.At(2, 2).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Zero(t, g>>8)
	assert.Zero(t, b>>8)
	assert.Equal(t, uint32(255), a>>8)
}

func TestPackDecodesMatte(t *testing.T) {
	p, err := readPack(rawPack(t, turntable.FormatR8, 2, 2, []byte{0, 64, 128, 255}))
	require.NoError(t, err)
	img, err := p.Frame(0)
	require.NoError(t, err)

	assert.Equal(t, color.Gray{Y: 128}, img.At(0, 1))
}

func readPack(data []byte) (*turntable.PackSource, error) {
	return turntable.ReadPack(bytes.NewReader(data), int64(len(data)))
}

// packHeader writes the fixed header and one frame header, without payload.
func packHeader(t *testing.T, w, h, count uint32, frame ...uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(turntable.PackMagic)
	for _, v := range append([]uint32{1, w, h, count}, frame...) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	return buf.Bytes()
}

func TestPackRejectsShortPayload(t *testing.T) {
	_, err := readPack(rawPack(t, turntable.FormatRGBA8, 2, 2, []byte{1, 2, 3}))
	assert.ErrorContains(t, err, "want 16")
}

func TestPackRejectsCorruptHeaders(t *testing.T) {
	rgba := uint32(turntable.FormatRGBA8)
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"data size past the end", packHeader(t, 2, 2, 1, rgba, 0, 16, 1<<30), "want 16"},
		{"lz4 size mismatch", packHeader(t, 2, 2, 1, rgba, 1, 1<<30, 8), "decompressed size"},
		{"lz4 block too large", packHeader(t, 2, 2, 1, rgba, 1, 16, 1<<20), "lz4 block"},
		{"truncated payload", packHeader(t, 2, 2, 1, rgba, 0, 16, 16), "truncated"},
		{"frame count", packHeader(t, 2, 2, 1<<31), "exceeds pack size"},
		{"zero size", packHeader(t, 0, 2, 0), "invalid frame size"},
		{"oversized frame", packHeader(t, turntable.MaxFrameSide+1, 2, 0), "invalid frame size"},
		{"unknown format", packHeader(t, 2, 2, 1, 9, 0, 16, 16), "unsupported format"},
		{"bad lz4 flag", packHeader(t, 2, 2, 1, rgba, 2, 16, 16), "invalid lz4 flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := readPack(tt.data)
			assert.Nil(t, p)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestDirSourceOrdersByName(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame_001.png"), color.NRGBA{0, 0, 255, 255})
	writePNG(t, filepath.Join(dir, "frame_000.png"), color.NRGBA{255, 0, 0, 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src, err := turntable.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, src.FrameCount())

	img, err := src.Frame(0)
	require.NoError(t, err)
	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, b)

	_, err = src.Frame(2)
	assert.Error(t, err)
}

func TestOpenDirWithoutFrames(t *testing.T) {
	_, err := turntable.OpenDir(t.TempDir())
	assert.ErrorContains(t, err, "no frames")
}

func TestOpenPackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.spinpack")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := turntable.NewPackWriter(f, 2, 2)
	require.NoError(t, w.Add(frames(1, 2, 2)[0]))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	src, err := turntable.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, src.FrameCount())
	require.NoError(t, src.(*turntable.PackSource).Close())
}

type failingSource struct{}

func (failingSource) FrameCount() int { return 1 }

func (failingSource) Frame(int) (image.Image, error) { panic("corrupt frame") }

func TestLoaderResolvesTasks(t *testing.T) {
	l := turntable.NewLoader(turntable.ImageSource(frames(4, 2, 2)), 2)

	tasks := []*turntable.Task{l.Request(0), l.Request(3), l.Request(9)}
	l.Wait()

	img, err, done := tasks[1].Poll()
	require.True(t, done)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{3, 1, 1, 255}, img.At(1, 1))

	_, err = tasks[2].Wait()
	assert.Error(t, err)
}

func TestLoaderRecoversDecoderPanic(t *testing.T) {
	l := turntable.NewLoader(failingSource{}, 1)
	_, err := l.Request(0).Wait()
	assert.ErrorContains(t, err, "corrupt frame")
}
