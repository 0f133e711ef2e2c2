package turntable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"spinner-editor/internal/utils"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"
)

// PackMagic opens every frame pack. The header that follows is little endian:
// version, frame width, frame height, frame count, then one entry per frame.
const PackMagic = "SPINPACK"

const packVersion = 1

type Format uint32

const (
	FormatRGBA8 Format = iota
	FormatDXT1
	FormatDXT5
	// FormatR8 is a single gray channel, used for matte-only captures.
	FormatR8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT5:
		return "DXT5"
	case FormatR8:
		return "R8"
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// payloadSize is the decompressed byte count of a w x h frame.
func (f Format) payloadSize(w, h int) int {
	blocks := ((w + 3) / 4) * ((h + 3) / 4)
	switch f {
	case FormatDXT1:
		return blocks * 8
	case FormatDXT5:
		return blocks * 16
	case FormatR8:
		return w * h
	}
	return w * h * 4
}

type packHeader struct {
	Version    uint32
	Width      uint32
	Height     uint32
	FrameCount uint32
}

type frameHeader struct {
	Format           uint32
	LZ4              uint32
	DecompressedSize uint32
	DataSize         uint32
}

type frameEntry struct {
	frameHeader
	offset int64
}

// PackSource reads frames from a pack file on demand.
type PackSource struct {
	r      io.ReaderAt
	closer io.Closer
	width  int
	height int
	frames []frameEntry

	mu sync.Mutex
}

// OpenPack indexes the pack at path. Frames are decoded lazily by Frame.
func OpenPack(path string) (*PackSource, error) {
	utils.Debug("Turntable: Opening pack %s", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("turntable: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("turntable: %w", err)
	}
	p, err := ReadPack(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("turntable: %s: %w", path, err)
	}
	p.closer = f
	return p, nil
}

// MaxFrameSide bounds the width and height a pack header may declare.
const MaxFrameSide = 16384

var (
	packHeaderSize  = int64(len(PackMagic) + binary.Size(packHeader{}))
	frameHeaderSize = int64(binary.Size(frameHeader{}))
)

// ReadPack indexes a pack of size bytes held by r. Every header value is checked
// against the frame size and the pack size before anything is allocated.
func ReadPack(r io.ReaderAt, size int64) (*PackSource, error) {
	sr := io.NewSectionReader(r, 0, size)

	magic := make([]byte, len(PackMagic))
	if _, err := io.ReadFull(sr, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != PackMagic {
		return nil, fmt.Errorf("invalid magic: %q", magic)
	}

	var hdr packHeader
	if err := binary.Read(sr, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Version != packVersion {
		return nil, fmt.Errorf("unsupported version %d", hdr.Version)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > MaxFrameSide || hdr.Height > MaxFrameSide {
		return nil, fmt.Errorf("invalid frame size %dx%d", hdr.Width, hdr.Height)
	}
	if int64(hdr.FrameCount)*frameHeaderSize > size-packHeaderSize {
		return nil, fmt.Errorf("frame count %d exceeds pack size %d", hdr.FrameCount, size)
	}
	utils.Debug("Turntable: Pack %dx%d, %d frames", hdr.Width, hdr.Height, hdr.FrameCount)

	p := &PackSource{r: r, width: int(hdr.Width), height: int(hdr.Height)}
	p.frames = make([]frameEntry, 0, hdr.FrameCount)
	offset := packHeaderSize
	for i := uint32(0); i < hdr.FrameCount; i++ {
		var fh frameHeader
		if err := binary.Read(sr, binary.LittleEndian, &fh); err != nil {
			return nil, fmt.Errorf("frame %d: read header: %w", i, err)
		}
		offset += frameHeaderSize
		if err := fh.check(p.width, p.height); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if offset+int64(fh.DataSize) > size {
			return nil, fmt.Errorf("frame %d: truncated, %d bytes at %d in a %d byte pack", i, fh.DataSize, offset, size)
		}
		p.frames = append(p.frames, frameEntry{frameHeader: fh, offset: offset})
		offset += int64(fh.DataSize)
		if _, err := sr.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return p, nil
}

func (fh frameHeader) check(w, h int) error {
	format := Format(fh.Format)
	if format > FormatR8 {
		return fmt.Errorf("unsupported format %s", format)
	}
	want := format.payloadSize(w, h)
	switch fh.LZ4 {
	case 0:
		if int(fh.DataSize) != want {
			return fmt.Errorf("%s payload is %d bytes, want %d", format, fh.DataSize, want)
		}
	case 1:
		if int(fh.DecompressedSize) != want {
			return fmt.Errorf("%s decompressed size is %d bytes, want %d", format, fh.DecompressedSize, want)
		}
		if int(fh.DataSize) > lz4.CompressBlockBound(want) {
			return fmt.Errorf("lz4 block of %d bytes for a %d byte payload", fh.DataSize, want)
		}
	default:
		return fmt.Errorf("invalid lz4 flag %d", fh.LZ4)
	}
	return nil
}

func (p *PackSource) FrameCount() int { return len(p.frames) }

func (p *PackSource) FrameSize() image.Point { return image.Pt(p.width, p.height) }

func (p *PackSource) Frame(index int) (image.Image, error) {
	if index < 0 || index >= len(p.frames) {
		return nil, fmt.Errorf("turntable: frame %d out of range [0, %d)", index, len(p.frames))
	}
	entry := p.frames[index]

	data := make([]byte, entry.DataSize)
	if _, err := p.r.ReadAt(data, entry.offset); err != nil {
		return nil, fmt.Errorf("turntable: frame %d: read: %w", index, err)
	}

	if entry.LZ4 == 1 {
		decoded := make([]byte, entry.DecompressedSize)
		n, err := lz4.UncompressBlock(data, decoded)
		if err != nil {
			return nil, fmt.Errorf("turntable: frame %d: lz4: %w", index, err)
		}
		data = decoded[:n]
	}

	img, err := decodeFrame(Format(entry.Format), data, p.width, p.height)
	if err != nil {
		return nil, fmt.Errorf("turntable: frame %d: %w", index, err)
	}
	return img, nil
}

func decodeFrame(format Format, data []byte, w, h int) (image.Image, error) {
	if want := format.payloadSize(w, h); len(data) != want {
		return nil, fmt.Errorf("%s payload is %d bytes, want %d", format, len(data), want)
	}

	switch format {
	case FormatRGBA8:
		return &image.NRGBA{Pix: data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
	case FormatDXT1, FormatDXT5:
		var pix []byte
		var err error
		if format == FormatDXT1 {
			pix, err = dxt.DecodeDXT1(data, uint(w), uint(h))
		} else {
			pix, err = dxt.DecodeDXT5(data, uint(w), uint(h))
		}
		if err != nil {
			return nil, err
		}
		return &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
	case FormatR8:
		return &image.Gray{Pix: data, Stride: w, Rect: image.Rect(0, 0, w, h)}, nil
	}
	return nil, fmt.Errorf("unsupported format %s", format)
}

// Close releases the underlying file, if the pack was opened from one.
func (p *PackSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// PackWriter builds a pack from RGBA frames, LZ4-compressing each when it helps.
type PackWriter struct {
	w      io.Writer
	width  int
	height int
	frames [][]byte
}

func NewPackWriter(w io.Writer, width, height int) *PackWriter {
	return &PackWriter{w: w, width: width, height: height}
}

// Add queues one frame. Frames of another size are rejected.
func (pw *PackWriter) Add(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != pw.width || b.Dy() != pw.height {
		return fmt.Errorf("turntable: frame is %dx%d, pack is %dx%d", b.Dx(), b.Dy(), pw.width, pw.height)
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, pw.width, pw.height))
	for y := 0; y < pw.height; y++ {
		for x := 0; x < pw.width; x++ {
			nrgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	pw.frames = append(pw.frames, nrgba.Pix)
	return nil
}

// Flush writes the header and every queued frame.
func (pw *PackWriter) Flush() error {
	var buf bytes.Buffer
	buf.WriteString(PackMagic)
	hdr := packHeader{
		Version:    packVersion,
		Width:      uint32(pw.width),
		Height:     uint32(pw.height),
		FrameCount: uint32(len(pw.frames)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return err
	}

	compressed := make([]byte, lz4.CompressBlockBound(pw.width*pw.height*4))
	for _, pix := range pw.frames {
		fh := frameHeader{Format: uint32(FormatRGBA8), DecompressedSize: uint32(len(pix))}
		payload := pix

		n, err := lz4.CompressBlock(pix, compressed, nil)
		if err == nil && n > 0 && n < len(pix) {
			fh.LZ4 = 1
			payload = compressed[:n]
		}
		fh.DataSize = uint32(len(payload))

		if err := binary.Write(&buf, binary.LittleEndian, fh); err != nil {
			return err
		}
		buf.Write(payload)
	}

	_, err := pw.w.Write(buf.Bytes())
	return err
}
