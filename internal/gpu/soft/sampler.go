package soft

import (
	"image"
	"math"
)

type rgba [4]float32

// surface is an RGBA8 image stored the way GL stores it: row 0 is t = 0 for
// textures and the bottom row for framebuffers.
type surface struct {
	width, height int
	pix           []byte
}

func newSurface(width, height int) *surface {
	return &surface{width: width, height: height, pix: make([]byte, 4*width*height)}
}

func (s *surface) bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

func (s *surface) at(x, y int) rgba {
	i := 4 * (y*s.width + x)
	return rgba{
		float32(s.pix[i+0]) / 255,
		float32(s.pix[i+1]) / 255,
		float32(s.pix[i+2]) / 255,
		float32(s.pix[i+3]) / 255,
	}
}

func (s *surface) set(x, y int, c rgba, mask [4]bool) {
	i := 4 * (y*s.width + x)
	for ch := 0; ch < 4; ch++ {
		if mask[ch] {
			s.pix[i+ch] = unorm8(c[ch])
		}
	}
}

// sample filters bilinearly with clamp-to-edge addressing. Texel centers sit at
// (i + 0.5) / size. Sampling a missing texture yields opaque black like GL.
func (s *surface) sample(u, v float32) rgba {
	if s == nil || s.width == 0 || s.height == 0 {
		return rgba{0, 0, 0, 1}
	}

	fx := float64(u)*float64(s.width) - 0.5
	fy := float64(v)*float64(s.height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := float32(fx - float64(x0))
	dy := float32(fy - float64(y0))

	c00 := s.at(clampInt(x0, 0, s.width-1), clampInt(y0, 0, s.height-1))
	c10 := s.at(clampInt(x0+1, 0, s.width-1), clampInt(y0, 0, s.height-1))
	c01 := s.at(clampInt(x0, 0, s.width-1), clampInt(y0+1, 0, s.height-1))
	c11 := s.at(clampInt(x0+1, 0, s.width-1), clampInt(y0+1, 0, s.height-1))

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out rgba
	for ch := 0; ch < 4; ch++ {
		out[ch] = c00[ch]*w00 + c10[ch]*w10 + c01[ch]*w01 + c11[ch]*w11
	}
	return out
}

func unorm8(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
