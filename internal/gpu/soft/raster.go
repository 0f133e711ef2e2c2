package soft

import (
	"math"

	"spinner-editor/internal/gpu"
)

// DrawQuad rasterizes the unit quad through the program's u_matrix. The matrix is
// affine for every projection the compositor uses, so each pixel center is mapped
// back to quad space with the inverse of its 2x2 part.
func (d *Device) DrawQuad() {
	p := d.current
	target := d.target()
	if p == nil || target == nil {
		return
	}
	if loc, ok := p.attributes["vertexPosition"]; ok && !d.attribs[loc] {
		return
	}
	d.DrawCalls++

	m := p.matrices[p.location("u_matrix")]

	a, b, c := m.At(0, 0), m.At(0, 1), m.At(0, 3)
	e, f, g := m.At(1, 0), m.At(1, 1), m.At(1, 3)
	det := a*f - b*e
	if det == 0 {
		return
	}

	vx, vy := float32(d.viewport.Min.X), float32(d.viewport.Min.Y)
	vw, vh := float32(d.viewport.Dx()), float32(d.viewport.Dy())

	toWindow := func(u, v float32) (float32, float32) {
		nx := a*u + b*v + c
		ny := e*u + f*v + g
		return vx + (nx+1)/2*vw, vy + (ny+1)/2*vh
	}

	minX, minY := float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY := float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, corner := range [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := toWindow(corner[0], corner[1])
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	clip := d.viewport.Intersect(target.bounds())
	x0 := clampInt(int(math.Floor(float64(minX))), clip.Min.X, clip.Max.X)
	x1 := clampInt(int(math.Ceil(float64(maxX))), clip.Min.X, clip.Max.X)
	y0 := clampInt(int(math.Floor(float64(minY))), clip.Min.Y, clip.Max.Y)
	y1 := clampInt(int(math.Ceil(float64(maxY))), clip.Min.Y, clip.Max.Y)

	s := &shading{device: d, program: p}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			nx := (float32(x)+0.5-vx)/vw*2 - 1
			ny := (float32(y)+0.5-vy)/vh*2 - 1
			rx, ry := nx-c, ny-g
			u := (f*rx - b*ry) / det
			v := (a*ry - e*rx) / det
			if u < 0 || u >= 1 || v < 0 || v >= 1 {
				continue
			}

			depth := m.At(2, 0)*u + m.At(2, 1)*v + m.At(2, 3)
			if depth < -1 || depth > 1 {
				continue
			}

			color, keep := p.kernel(s, fragment{u: u, v: v, depth: depth})
			if !keep {
				continue
			}
			if d.blend {
				color = d.blendWith(color, target.at(x, y))
			}
			target.set(x, y, color, d.mask)
		}
	}
}

func (d *Device) blendWith(src, dst rgba) rgba {
	var out rgba
	for ch := 0; ch < 4; ch++ {
		out[ch] = src[ch]*factor(d.src, src) + dst[ch]*factor(d.dst, src)
	}
	return out
}

func factor(f gpu.BlendFactor, src rgba) float32 {
	switch f {
	case gpu.BlendOne:
		return 1
	case gpu.BlendSrcAlpha:
		return clamp01(src[3])
	case gpu.BlendOneMinusSrcAlpha:
		return 1 - clamp01(src[3])
	}
	return 0
}
