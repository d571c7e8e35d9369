// Package math provides float32 vector types and planar geometry predicates
// used by the level geometry pipeline.
package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec2 is a 2D vector. In plan view X is east and Y is south (Build's y axis).
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product.
func (v Vec2) Dot(other Vec2) float32 {
	return v.X*other.X + v.Y*other.Y
}

// Cross returns the z component of the 3D cross product of v and other.
func (v Vec2) Cross(other Vec2) float32 {
	return v.X*other.Y - v.Y*other.X
}

// Perp returns v rotated by -90 degrees: (y, -x).
func (v Vec2) Perp() Vec2 {
	return Vec2{v.Y, -v.X}
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance returns the distance to another point.
func (v Vec2) Distance(other Vec2) float32 {
	return v.Sub(other).Length()
}

// ApproxEqual reports whether both components differ by at most eps.
func (v Vec2) ApproxEqual(other Vec2, eps float32) bool {
	return math32.Abs(v.X-other.X) <= eps && math32.Abs(v.Y-other.Y) <= eps
}

// Lift places a plan-view point at height y in world space.
func (v Vec2) Lift(y float32) mgl32.Vec3 {
	return mgl32.Vec3{v.X, y, v.Y}
}
