package sector

import (
	"fmt"

	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/math"
)

// Loop is one closed wall chain, listed in point2 order. Each wall appears once.
type Loop struct {
	Walls []int
}

// Resolver reconstructs closed wall loops from a map's point2 chains.
// It only reads the map and is safe for concurrent use.
type Resolver struct {
	m *formats.Map
}

// NewResolver creates a resolver over a parsed map.
func NewResolver(m *formats.Map) *Resolver {
	return &Resolver{m: m}
}

// Loops returns the sector's loops in the order their first wall appears in
// the sector's wall slice. Traversal of any one chain is bounded by the
// sector's wall count, so corrupt chains fail instead of spinning.
func (r *Resolver) Loops(sectorID int) ([]Loop, error) {
	walls, ok := r.m.SectorWalls(sectorID)
	if !ok {
		return nil, &GeometryError{Sector: sectorID, Wall: -1, Err: ErrWallRange}
	}

	base := int(r.m.Sectors[sectorID].WallPtr)
	limit := len(walls)

	assigned := make(map[int]bool, limit)
	var loops []Loop

	for i := range walls {
		start := base + i
		if assigned[start] {
			continue
		}

		startPoint2 := r.m.Walls[start].Point2
		var loop Loop
		cur := start
		for {
			if len(loop.Walls) >= limit {
				return nil, &GeometryError{
					Sector: sectorID,
					Wall:   start,
					Err:    fmt.Errorf("%w after %d walls", ErrLoopNotClosed, limit),
				}
			}
			loop.Walls = append(loop.Walls, cur)
			assigned[cur] = true

			next := r.m.Walls[cur].Point2
			if !formats.InBounds(next, len(r.m.Walls)) {
				return nil, &GeometryError{
					Sector: sectorID,
					Wall:   cur,
					Err:    fmt.Errorf("%w: %d", ErrPoint2Range, next),
				}
			}
			cur = int(next)
			if r.m.Walls[cur].Point2 == startPoint2 {
				break
			}
		}
		loops = append(loops, loop)
	}

	return loops, nil
}

// Points returns the world-space start positions of a loop's walls.
func (r *Resolver) Points(loop Loop) []math.Vec2 {
	pts := make([]math.Vec2, len(loop.Walls))
	for i, id := range loop.Walls {
		pts[i] = WallStart(&r.m.Walls[id])
	}
	return pts
}

// Contours resolves a sector's loops straight to world-space point lists.
func (r *Resolver) Contours(sectorID int) ([][]math.Vec2, error) {
	loops, err := r.Loops(sectorID)
	if err != nil {
		return nil, err
	}
	contours := make([][]math.Vec2, len(loops))
	for i, l := range loops {
		contours[i] = r.Points(l)
	}
	return contours, nil
}
