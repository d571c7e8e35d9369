package math

import "github.com/chewxy/math32"

// Orient returns twice the signed area of triangle abc. Positive means the
// turn a->b->c is counter-clockwise in a Y-up frame.
func Orient(a, b, c Vec2) float32 {
	return b.Sub(a).Cross(c.Sub(a))
}

// SignedArea returns the signed area of a closed polygon (shoelace formula).
// The closing edge from the last point back to the first is implied.
func SignedArea(poly []Vec2) float32 {
	if len(poly) < 3 {
		return 0
	}
	var sum float32
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += poly[i].Cross(poly[j])
	}
	return sum / 2
}

// PointInTriangle reports whether p lies inside or on the boundary of the
// counter-clockwise triangle abc.
func PointInTriangle(p, a, b, c Vec2) bool {
	return Orient(a, b, p) >= 0 && Orient(b, c, p) >= 0 && Orient(c, a, p) >= 0
}

// Collinear reports whether b lies within eps of the axis-aligned line
// through a and c along either axis, or a and c nearly coincide.
func Collinear(a, b, c Vec2, eps float32) bool {
	if a.ApproxEqual(c, eps) {
		return true
	}
	sameX := math32.Abs(a.X-b.X) <= eps && math32.Abs(c.X-b.X) <= eps
	sameY := math32.Abs(a.Y-b.Y) <= eps && math32.Abs(c.Y-b.Y) <= eps
	return sameX || sameY
}

// SegmentsIntersect reports whether the open segments p1p2 and q1q2 cross.
// Touching at shared endpoints does not count.
func SegmentsIntersect(p1, p2, q1, q2 Vec2) bool {
	d1 := Orient(q1, q2, p1)
	d2 := Orient(q1, q2, p2)
	d3 := Orient(p1, p2, q1)
	d4 := Orient(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
