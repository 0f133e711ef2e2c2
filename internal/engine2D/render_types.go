package engine2D

import "math"

// Point, Size and Rect are in on-screen units with y growing downwards.
type Point struct {
	X, Y float32
}

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Scale(k float32) Point { return Point{p.X * k, p.Y * k} }

// Rotate turns p by angle radians about the origin.
func (p Point) Rotate(angle float32) Point {
	s, c := math.Sincos(float64(angle))
	return Point{
		X: p.X*float32(c) - p.Y*float32(s),
		Y: p.X*float32(s) + p.Y*float32(c),
	}
}

type Size struct {
	W, H float32
}

type Rect struct {
	X, Y, W, H float32
}

func NewRect(origin Point, size Size) Rect {
	return Rect{X: origin.X, Y: origin.Y, W: size.W, H: size.H}
}

func (r Rect) MinX() float32 { return r.X }
func (r Rect) MinY() float32 { return r.Y }
func (r Rect) MaxX() float32 { return r.X + r.W }
func (r Rect) MaxY() float32 { return r.Y + r.H }
func (r Rect) Size() Size    { return Size{r.W, r.H} }
func (r Rect) Origin() Point { return Point{r.X, r.Y} }
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Offset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X < r.MaxX() && p.Y >= r.MinY() && p.Y < r.MaxY()
}

// ScaleAbout scales r by k keeping the anchor point fixed.
func (r Rect) ScaleAbout(anchor Point, k float32) Rect {
	return Rect{
		X: anchor.X + (r.X-anchor.X)*k,
		Y: anchor.Y + (r.Y-anchor.Y)*k,
		W: r.W * k,
		H: r.H * k,
	}
}
