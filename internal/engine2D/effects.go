package engine2D

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Effect names understood by the spinner program.
const (
	EffectTemperature = "Temperature"
	EffectHue         = "Hue"
	EffectGamma       = "Gamma"
	EffectVibrance    = "Vibrance"
	EffectOpacity     = "Opacity"
	EffectBlurRadius  = "BlurRadius"
)

// MaxBlurRadius bounds the blur passes; larger requests are clamped.
const MaxBlurRadius = 8 + 36

// Effect is one adjustable color-grading parameter.
type Effect struct {
	Name        string
	DisplayName string
	Min         float32
	Max         float32
	Value       float32
	Default     float32
	// Invert flips the slider direction shown to the user.
	Invert bool
}

// Converted is the value as presented on an inverted slider.
func (e Effect) Converted() float32 {
	if e.Invert {
		return e.Max - e.Value + e.Min
	}
	return e.Value
}

func (e *Effect) SetConverted(v float32) {
	if e.Invert {
		e.Value = e.Max - v + e.Min
		return
	}
	e.Value = v
}

// Step moves the slider by fraction of the range, staying within [Min, Max].
func (e *Effect) Step(fraction float32) {
	v := e.Converted() + fraction*(e.Max-e.Min)
	e.SetConverted(min(max(v, e.Min), e.Max))
}

func DefaultEffects() []Effect {
	effects := []Effect{
		{Name: EffectTemperature, DisplayName: "Warmth", Min: 2700, Max: 10300, Default: 6500, Invert: true},
		{Name: EffectHue, DisplayName: "Tint", Min: 0.5, Max: 1.5, Default: 1},
		{Name: EffectGamma, DisplayName: "Lightness", Min: 0, Max: 2, Default: 1},
		{Name: EffectVibrance, DisplayName: "Vibrance", Min: 0, Max: 2, Default: 1},
		{Name: EffectOpacity, DisplayName: "Opacity", Min: 0, Max: 1, Default: 1},
		{Name: EffectBlurRadius, DisplayName: "Blur", Min: 0, Max: MaxBlurRadius, Default: 0},
	}
	for i := range effects {
		effects[i].Value = effects[i].Default
	}
	return effects
}

// EffectValues maps effect names to the values sent to the spinner program.
type EffectValues map[string]float32

func ValuesOf(effects []Effect) EffectValues {
	values := make(EffectValues, len(effects))
	for _, e := range effects {
		values[e.Name] = e.Value
	}
	return values
}

func (v EffectValues) Clone() EffectValues {
	out := make(EffectValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// BlurRadius returns the requested radius clamped to [0, MaxBlurRadius].
func (v EffectValues) BlurRadius() float32 {
	r := v[EffectBlurRadius]
	if r < 0 {
		return 0
	}
	return min(r, MaxBlurRadius)
}

// TemperatureToRGB approximates the color of a blackbody at kelvin degrees.
func TemperatureToRGB(kelvin float32) mgl32.Vec3 {
	t := float64(min(max(kelvin, 1000), 40000)) / 100

	var r, g, b float64
	if t <= 66 {
		r = 1
		g = saturate(0.39008157876901960784*math.Log(t) - 0.63184144378862745098)
	} else {
		x := t - 60
		r = saturate(1.29293618606274509804 * math.Pow(x, -0.1332047592))
		g = saturate(1.12989086089529411765 * math.Pow(x, -0.0755148492))
	}

	switch {
	case t >= 66:
		b = 1
	case t <= 19:
		b = 0
	default:
		b = saturate(0.54320678911019607843*math.Log(t-10) - 1.19625408914)
	}

	return mgl32.Vec3{float32(r), float32(g), float32(b)}
}

func saturate(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
