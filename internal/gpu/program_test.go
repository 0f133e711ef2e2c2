package gpu_test

import (
	"testing"

	"spinner-editor/internal/engine2D/shader"
	"spinner-editor/internal/gpu"
	"spinner-editor/internal/gpu/soft"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, device gpu.Device, name string) *gpu.Program {
	t.Helper()
	src, err := shader.Load(name, nil)
	require.NoError(t, err)
	program, err := gpu.Compile(device, src)
	require.NoError(t, err)
	return program
}

func TestUniformLocationIsMemoized(t *testing.T) {
	device := soft.New(4, 4)
	program := compile(t, device, shader.Spinner)

	loc := program.UniformLocation("u_Hue")
	assert.NotEqual(t, gpu.NotFound, loc)
	queries := device.LocationQueries

	for i := 0; i < 5; i++ {
		assert.Equal(t, loc, program.UniformLocation("u_Hue"))
	}
	assert.Equal(t, queries, device.LocationQueries)
}

func TestUnknownUniformIsNotFoundAndCached(t *testing.T) {
	device := soft.New(4, 4)
	program := compile(t, device, shader.Spinner)

	assert.Equal(t, gpu.NotFound, program.UniformLocation("u_BlurRadius"))
	queries := device.LocationQueries
	assert.Equal(t, gpu.NotFound, program.UniformLocation("u_BlurRadius"))
	assert.Equal(t, queries, device.LocationQueries)

	program.Use()
	assert.NotPanics(t, func() { program.SetFloat("u_BlurRadius", 3) })
}

func TestAttributeLocation(t *testing.T) {
	device := soft.New(4, 4)
	program := compile(t, device, shader.Simple)

	assert.NotEqual(t, gpu.NotFound, program.AttributeLocation(shader.AttribPosition))
	assert.Equal(t, gpu.NotFound, program.AttributeLocation("vertexColor"))
}

func TestCompileFailure(t *testing.T) {
	device := soft.New(4, 4)
	src, err := shader.Load(shader.Simple, nil)
	require.NoError(t, err)

	src.Name = "unknown"
	program, err := gpu.Compile(device, src)
	assert.Error(t, err)
	assert.False(t, program.Valid())
	assert.Equal(t, gpu.NotFound, program.UniformLocation("alpha"))
	assert.Panics(t, func() { program.Use() })

	src.Name = shader.Simple
	src.Fragment = "uniform float alpha;"
	_, err = gpu.Compile(device, src)
	assert.Error(t, err)
}

func TestDeleteReleasesProgram(t *testing.T) {
	device := soft.New(4, 4)
	program := compile(t, device, shader.Simple)
	program.Delete()

	assert.False(t, program.Valid())
	assert.Equal(t, gpu.NotFound, program.UniformLocation("alpha"))
}
