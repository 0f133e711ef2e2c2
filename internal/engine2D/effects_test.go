package engine2D_test

import (
	"testing"

	"spinner-editor/internal/engine2D"

	"github.com/stretchr/testify/assert"
)

func TestDefaultEffects(t *testing.T) {
	effects := engine2D.DefaultEffects()
	values := engine2D.ValuesOf(effects)

	assert.Len(t, effects, 6)
	assert.Equal(t, float32(6500), values[engine2D.EffectTemperature])
	assert.Equal(t, float32(1), values[engine2D.EffectOpacity])
	assert.Equal(t, float32(0), values[engine2D.EffectBlurRadius])
	for _, e := range effects {
		assert.Equal(t, e.Default, e.Value, e.Name)
		assert.LessOrEqual(t, e.Min, e.Value, e.Name)
		assert.GreaterOrEqual(t, e.Max, e.Value, e.Name)
	}
}

func TestInvertedEffectConversion(t *testing.T) {
	warmth := engine2D.DefaultEffects()[0]
	assert.True(t, warmth.Invert)

	warmth.Value = 3000
	assert.Equal(t, float32(10000), warmth.Converted())

	warmth.SetConverted(10000)
	assert.Equal(t, float32(3000), warmth.Value)

	tint := engine2D.DefaultEffects()[1]
	tint.SetConverted(1.25)
	assert.Equal(t, float32(1.25), tint.Converted())
}

func TestBlurRadiusIsClamped(t *testing.T) {
	values := engine2D.EffectValues{engine2D.EffectBlurRadius: 100}
	assert.Equal(t, float32(engine2D.MaxBlurRadius), values.BlurRadius())

	values[engine2D.EffectBlurRadius] = -3
	assert.Zero(t, values.BlurRadius())

	assert.Zero(t, engine2D.EffectValues{}.BlurRadius())
}

func TestEffectValuesClone(t *testing.T) {
	values := engine2D.EffectValues{engine2D.EffectHue: 1}
	clone := values.Clone()
	clone[engine2D.EffectHue] = 2

	assert.Equal(t, float32(1), values[engine2D.EffectHue])
}

func TestTemperatureToRGB(t *testing.T) {
	white := engine2D.TemperatureToRGB(6600)
	assert.Equal(t, float32(1), white[0])
	assert.InDelta(t, 1, white[1], 1e-3)
	assert.Equal(t, float32(1), white[2])

	candle := engine2D.TemperatureToRGB(1000)
	assert.Equal(t, float32(1), candle[0])
	assert.InDelta(t, 0.2663, candle[1], 1e-3)
	assert.Zero(t, candle[2])

	// out of range temperatures clamp to the curve's ends
	assert.Equal(t, candle, engine2D.TemperatureToRGB(10))
	assert.Equal(t, engine2D.TemperatureToRGB(40000), engine2D.TemperatureToRGB(90000))

	sky := engine2D.TemperatureToRGB(10000)
	assert.Less(t, sky[0], sky[2])
}

func TestEffectStepClampsToRange(t *testing.T) {
	effects := engine2D.DefaultEffects()

	opacity := effects[4]
	opacity.Step(-0.5)
	assert.InDelta(t, 0.5, opacity.Value, 1e-6)
	opacity.Step(1)
	assert.Equal(t, float32(1), opacity.Value)

	// the slider of an inverted effect moves against the value
	warmth := effects[0]
	warmth.Step(0.1)
	assert.InDelta(t, 5740, warmth.Value, 1e-2)
	warmth.Step(-5)
	assert.Equal(t, warmth.Max, warmth.Value)
}
