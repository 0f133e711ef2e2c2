package engine2D

import "github.com/go-gl/mathgl/mgl32"

// Transform places a unit quad in the scene. The model matrix is cached and only
// rebuilt after a setter actually changes a value.
type Transform struct {
	position      Point
	size          Size
	rotation      float32
	animatedScale float32
	zDepth        float32

	model      mgl32.Mat4
	modelValid bool
}

func NewTransform() Transform {
	return Transform{animatedScale: 1}
}

func (t *Transform) Position() Point         { return t.position }
func (t *Transform) Size() Size              { return t.size }
func (t *Transform) Rotation() float32       { return t.rotation }
func (t *Transform) AnimatedScale() float32  { return t.animatedScale }
func (t *Transform) ZDepth() float32         { return t.zDepth }
func (t *Transform) ModelMatrixCached() bool { return t.modelValid }

func (t *Transform) SetPosition(p Point) {
	if t.position != p {
		t.position = p
		t.modelValid = false
	}
}

func (t *Transform) SetSize(s Size) {
	if t.size != s {
		t.size = s
		t.modelValid = false
	}
}

func (t *Transform) SetRotation(r float32) {
	if t.rotation != r {
		t.rotation = r
		t.modelValid = false
	}
}

func (t *Transform) SetAnimatedScale(s float32) {
	if t.animatedScale != s {
		t.animatedScale = s
		t.modelValid = false
	}
}

func (t *Transform) SetZDepth(z float32) {
	if t.zDepth != z {
		t.zDepth = z
		t.modelValid = false
	}
}

// ModelMatrix maps the unit quad centered on position, rotated and scaled to size.
func (t *Transform) ModelMatrix() mgl32.Mat4 {
	if t.modelValid {
		return t.model
	}
	s := t.animatedScale
	t.model = mgl32.Translate3D(t.position.X, t.position.Y, -t.zDepth).
		Mul4(mgl32.HomogRotate3DZ(t.rotation)).
		Mul4(mgl32.Scale3D(t.size.W*s, t.size.H*s, 1)).
		Mul4(mgl32.Translate3D(-0.5, -0.5, 0))
	t.modelValid = true
	return t.model
}
