package sector

import (
	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/math"
)

// DefaultSlopeDivisor converts heinum to a world slope factor. A heinum of
// 4096 is a 45 degree grade.
const DefaultSlopeDivisor float32 = 4096

// Slope evaluates floor and ceiling heights across a sector.
type Slope struct {
	m        *formats.Map
	divisor  float32
	ceilings bool
}

// NewSlope creates an evaluator. A divisor <= 0 selects DefaultSlopeDivisor.
// Ceiling slopes are only honored when ceilings is true; otherwise every
// ceiling is flat.
func NewSlope(m *formats.Map, divisor float32, ceilings bool) *Slope {
	if divisor <= 0 {
		divisor = DefaultSlopeDivisor
	}
	return &Slope{m: m, divisor: divisor, ceilings: ceilings}
}

// Divisor returns the heinum divisor in use.
func (s *Slope) Divisor() float32 {
	return s.divisor
}

// FloorHeightAt returns the world y of a sector's floor at world point p.
func (s *Slope) FloorHeightAt(sectorID int, p math.Vec2) float32 {
	sec := &s.m.Sectors[sectorID]
	return s.heightAt(sec, sec.Floor, p)
}

// CeilingHeightAt returns the world y of a sector's ceiling at world point p.
func (s *Slope) CeilingHeightAt(sectorID int, p math.Vec2) float32 {
	sec := &s.m.Sectors[sectorID]
	if !s.ceilings {
		return WorldY(sec.Ceiling.Z)
	}
	return s.heightAt(sec, sec.Ceiling, p)
}

// heightAt tilts the surface about the first wall of the sector's slice,
// rising along the wall's right-hand perpendicular.
func (s *Slope) heightAt(sec *formats.Sector, surf formats.SurfaceInfo, p math.Vec2) float32 {
	base := WorldY(surf.Z)
	if !surf.Flags.Sloped || surf.Heinum == 0 || sec.WallNum <= 0 {
		return base
	}
	if !formats.InBounds(sec.WallPtr, len(s.m.Walls)) {
		return base
	}

	ref := &s.m.Walls[sec.WallPtr]
	end, ok := WallEnd(s.m, ref)
	if !ok {
		return base
	}
	start := WallStart(ref)

	perp := end.Sub(start).Normalize().Perp()
	factor := float32(surf.Heinum) / s.divisor
	return base + factor*p.Sub(start).Dot(perp)
}
