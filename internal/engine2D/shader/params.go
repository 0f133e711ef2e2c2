package shader

// Uniform and attribute names shared by the GLSL sources and the Go side.
const (
	AttribPosition = "vertexPosition"

	UniformMatrix    = "u_matrix"
	UniformTexture   = "u_texture"
	UniformAlpha     = "alpha"
	UniformMask      = "u_Mask"
	UniformFlattened = "u_flattened"
	UniformRadius    = "u_radius"
	UniformDirection = "u_direction"
	UniformTempRGB   = "u_TemperatureRGB"
)

// Texture units used by the spinner programs.
const (
	ColorTextureUnit = 0
	MaskTextureUnit  = 1
)

// EffectUniform maps an effect name onto the uniform that carries it.
// Temperature is uploaded as a converted color and Opacity as the global alpha;
// every other effect goes to u_<Name>, which a program may not declare.
func EffectUniform(effect string) string {
	switch effect {
	case "Temperature":
		return UniformTempRGB
	case "Opacity":
		return UniformAlpha
	}
	return "u_" + effect
}
