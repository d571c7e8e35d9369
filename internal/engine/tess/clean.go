// Package tess triangulates sector outlines: outer loops, holes and
// disjoint islands, using the non-zero winding rule.
package tess

import (
	"github.com/Faultbox/buildgeo/pkg/math"
)

// Tolerance is the distance below which two coordinates are considered equal.
const Tolerance float32 = 1.0 / 2560

// Clean strips degenerate points from a contour. A point is dropped when it
// coincides with its successor, when its two neighbors coincide, or when it
// lies on the horizontal or vertical line through both neighbors. A closing
// point equal to the first is removed. Returns nil when fewer than 3 points
// survive. Points in line along a diagonal are kept; Tessellate drops such a
// contour by its zero area.
func Clean(points []math.Vec2) []math.Vec2 {
	pts := make([]math.Vec2, len(points))
	copy(pts, points)

	for len(pts) > 1 && pts[len(pts)-1].ApproxEqual(pts[0], Tolerance) {
		pts = pts[:len(pts)-1]
	}

	// One removal per pass: dropping a point changes its neighbors' verdicts.
	for len(pts) >= 3 {
		n := len(pts)
		drop := -1
		for i := range pts {
			prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
			if cur.ApproxEqual(next, Tolerance) || math.Collinear(prev, cur, next, Tolerance) {
				drop = i
				break
			}
		}
		if drop < 0 {
			return pts
		}
		pts = append(pts[:drop], pts[drop+1:]...)
	}

	return nil
}
