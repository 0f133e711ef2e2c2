package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// fragment is one shaded pixel: the interpolated quad position and clip-space depth.
type fragment struct {
	u, v  float32
	depth float32
}

// kernel is the Go counterpart of a fragment shader. Returning false discards.
type kernel func(s *shading, f fragment) (rgba, bool)

// kernels are keyed by program name and mirror engine2D/shader/glsl.
var kernels = map[string]kernel{
	"simple":       simpleKernel,
	"spinner":      spinnerKernel,
	"gaussianBlur": gaussianBlurKernel,
	"hitTest":      hitTestKernel,
}

// shading exposes the program in use and the bound texture units to a kernel.
type shading struct {
	device  *Device
	program *program
}

func (s *shading) texture(sampler string, u, v float32) rgba {
	unit := int(s.program.ints[s.program.location(sampler)])
	return s.device.textures[s.device.units[unit]].sample(u, v)
}

func simpleKernel(s *shading, f fragment) (rgba, bool) {
	c := s.texture("u_texture", f.u, f.v)
	return scale(c, s.program.float("alpha")), true
}

func turntableColor(s *shading, u, v float32) mgl32.Vec3 {
	c := s.texture("u_texture", u*0.5, v)
	return mgl32.Vec3{c[0], c[1], c[2]}
}

func turntableMatte(s *shading, u, v float32) float32 {
	return s.texture("u_texture", 0.5+u*0.5, v)[0]
}

func spinnerKernel(s *shading, f fragment) (rgba, bool) {
	p := s.program
	alpha := p.float("alpha")
	if p.boolean("u_flattened") {
		return scale(s.texture("u_texture", f.u, f.v), alpha), true
	}

	rgb := turntableColor(s, f.u, f.v)
	matte := turntableMatte(s, f.u, f.v) * s.texture("u_Mask", f.u, f.v)[0]

	temp := p.vec3("u_TemperatureRGB")
	rgb = mgl32.Vec3{rgb[0] * temp[0], rgb[1] * temp[1], rgb[2] * temp[2]}
	rgb[1] *= p.float("u_Hue")

	exp := 1 / float32(math.Max(float64(p.float("u_Gamma")), 0.05))
	for i := range rgb {
		rgb[i] = float32(math.Pow(math.Max(float64(rgb[i]), 0), float64(exp)))
	}

	luma := rgb.Dot(mgl32.Vec3{0.299, 0.587, 0.114})
	vibrance := p.float("u_Vibrance")
	for i := range rgb {
		rgb[i] = clamp01(luma + (rgb[i]-luma)*vibrance)
	}

	a := matte * alpha
	return rgba{rgb[0] * a, rgb[1] * a, rgb[2] * a, a}, true
}

const maxBlurTaps = 64

func gaussianBlurKernel(s *shading, f fragment) (rgba, bool) {
	radius := s.program.float("u_radius")
	dir := s.program.vec2("u_direction")
	sigma := float32(math.Max(float64(radius/3), 0.5))

	var sum rgba
	var total float32
	taps := int(math.Min(math.Ceil(float64(radius)), maxBlurTaps))
	for i := -taps; i <= taps; i++ {
		x := float32(i)
		if float32(math.Abs(float64(x))) > radius {
			continue
		}
		w := float32(math.Exp(float64(-(x * x) / (2 * sigma * sigma))))
		c := s.texture("u_texture", f.u+dir[0]*x, f.v+dir[1]*x)
		for ch := range sum {
			sum[ch] += c[ch] * w
		}
		total += w
	}

	return scale(sum, 1/total), true
}

func hitTestKernel(s *shading, f fragment) (rgba, bool) {
	var coverage float32
	if s.program.boolean("u_flattened") {
		coverage = s.texture("u_texture", f.u, f.v)[3]
	} else {
		coverage = turntableMatte(s, f.u, f.v) * s.texture("u_Mask", f.u, f.v)[0]
	}
	if coverage < 0.5 {
		return rgba{}, false
	}

	index := float32(math.Floor(float64(f.depth*256 + 0.5)))
	return rgba{0, 0, 0, index / 255}, true
}

func scale(c rgba, k float32) rgba {
	return rgba{c[0] * k, c[1] * k, c[2] * k, c[3] * k}
}
