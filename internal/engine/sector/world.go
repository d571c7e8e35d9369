// Package sector resolves sector wall loops and evaluates sloped floor and
// ceiling heights in world space.
package sector

import (
	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/math"
)

// Unit conversions from Build space to world space. Build z grows downward,
// world y grows upward.
const (
	WidthScale  float32 = 1.0 / 16.0
	HeightScale float32 = -1.0 / 256.0
)

// WorldXZ converts a Build plan position to world (x, z).
func WorldXZ(x, y int32) math.Vec2 {
	return math.Vec2{X: float32(x) * WidthScale, Y: float32(y) * WidthScale}
}

// WorldY converts a Build height to world y.
func WorldY(z int32) float32 {
	return float32(z) * HeightScale
}

// WallStart returns a wall's start position in world (x, z).
func WallStart(w *formats.Wall) math.Vec2 {
	return WorldXZ(w.X, w.Y)
}

// WallEnd returns a wall's end position, which is the start of its point2
// wall. ok is false when point2 is out of range.
func WallEnd(m *formats.Map, w *formats.Wall) (end math.Vec2, ok bool) {
	if !formats.InBounds(w.Point2, len(m.Walls)) {
		return math.Vec2{}, false
	}
	return WallStart(&m.Walls[w.Point2]), true
}
