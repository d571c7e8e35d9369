package tess

import (
	"errors"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"

	"github.com/Faultbox/buildgeo/pkg/math"
)

// Tessellation errors.
var (
	ErrNoContours = errors.New("no usable contours")
	ErrIncomplete = errors.New("polygon could not be fully triangulated")
)

// zeroArea is the doubled triangle area treated as degenerate.
const zeroArea = Tolerance * Tolerance

// Result is a triangulated polygon. Vertices holds the cleaned contour
// points of every boundary loop in input order; no points are added.
// Indices lists triangles counter-clockwise in the plane of the input.
type Result struct {
	Vertices []math.Vec2
	Indices  []uint32
}

// TriangleCount returns the number of triangles.
func (r Result) TriangleCount() int {
	return len(r.Indices) / 3
}

type ring struct {
	pts    []math.Vec2
	area   float32
	offset uint32 // index of pts[0] in Result.Vertices
}

// Tessellate triangulates contours under the non-zero winding rule. Each
// contour is cleaned first and dropped if it has fewer than 3 points or no
// area. A loop wound opposite to the loop around it cuts a hole; loops that
// do not bound the filled region are ignored. Disjoint outer loops produce
// separate islands in one triangle list.
func Tessellate(contours [][]math.Vec2) (Result, error) {
	var rings []*ring
	for _, c := range contours {
		pts := Clean(c)
		if pts == nil {
			continue
		}
		area := math.SignedArea(pts)
		if math32.Abs(area) <= zeroArea {
			continue
		}
		rings = append(rings, &ring{pts: pts, area: area})
	}
	if len(rings) == 0 {
		return Result{}, ErrNoContours
	}

	outers, holes := classify(rings)
	if len(outers) == 0 {
		return Result{}, ErrNoContours
	}

	var res Result
	for _, r := range rings {
		if r.offset == skipped {
			continue
		}
		r.offset = uint32(len(res.Vertices))
		res.Vertices = append(res.Vertices, r.pts...)
	}

	owned := assignHoles(outers, holes)

	var err error
	for i, outer := range outers {
		start := link(outer, true)
		for _, h := range leftmostFirst(owned[i]) {
			start = eliminateHole(h, start)
		}
		if e := earclip(start, &res.Indices, passEars); e != nil && err == nil {
			err = e
		}
	}

	return res, err
}

// skipped marks a ring that bounds nothing and contributes no vertices.
const skipped = ^uint32(0)

// classify splits rings into outer boundaries and holes. A ring is a
// boundary when the winding number just outside it and just inside it
// differ in being zero.
func classify(rings []*ring) (outers, holes []*ring) {
	for i, r := range rings {
		mid := r.pts[0].Add(r.pts[1]).Scale(0.5)
		outside := 0
		for j, other := range rings {
			if i != j {
				outside += windingNumber(mid, other.pts)
			}
		}
		inside := outside + 1
		if r.area < 0 {
			inside = outside - 1
		}

		switch {
		case outside == 0 && inside != 0:
			outers = append(outers, r)
		case outside != 0 && inside == 0:
			holes = append(holes, r)
		default:
			r.offset = skipped
		}
	}
	return outers, holes
}

// assignHoles gives each hole to the smallest outer loop that contains it.
func assignHoles(outers, holes []*ring) [][]*ring {
	owned := make([][]*ring, len(outers))
	for _, h := range holes {
		mid := h.pts[0].Add(h.pts[1]).Scale(0.5)
		best := -1
		for i, o := range outers {
			if windingNumber(mid, o.pts) == 0 {
				continue
			}
			if best < 0 || math32.Abs(o.area) < math32.Abs(outers[best].area) {
				best = i
			}
		}
		if best >= 0 {
			owned[best] = append(owned[best], h)
		}
	}
	return owned
}

// windingNumber counts how many times poly winds around p.
func windingNumber(p math.Vec2, poly []math.Vec2) int {
	wn := 0
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if a.Y <= p.Y {
			if b.Y > p.Y && math.Orient(a, b, p) > 0 {
				wn++
			}
		} else if b.Y <= p.Y && math.Orient(a, b, p) < 0 {
			wn--
		}
	}
	return wn
}

// node is one vertex of the working polygon. Bridging and splitting
// duplicate nodes, so several nodes may share an index.
type node struct {
	i          uint32
	p          math.Vec2
	prev, next *node
}

// link builds a circular list for a ring, counter-clockwise when ccw is set
// and clockwise otherwise.
func link(r *ring, ccw bool) *node {
	n := len(r.pts)
	reverse := (r.area > 0) != ccw

	nodes := make([]*node, n)
	for k := range n {
		src := k
		if reverse {
			src = n - 1 - k
		}
		nodes[k] = &node{i: r.offset + uint32(src), p: r.pts[src]}
	}
	for k, nd := range nodes {
		nd.next = nodes[(k+1)%n]
		nd.prev = nodes[(k+n-1)%n]
	}
	return nodes[0]
}

// leftmostFirst links each hole clockwise and returns its leftmost node,
// ordered left to right so every bridge reaches already merged geometry.
func leftmostFirst(holes []*ring) []*node {
	nodes := make([]*node, 0, len(holes))
	for _, h := range holes {
		nodes = append(nodes, leftmost(link(h, false)))
	}
	sort.SliceStable(nodes, func(a, b int) bool {
		if nodes[a].p.X != nodes[b].p.X {
			return nodes[a].p.X < nodes[b].p.X
		}
		return nodes[a].p.Y < nodes[b].p.Y
	})
	return nodes
}

func leftmost(start *node) *node {
	m := start
	for n := start.next; n != start; n = n.next {
		if n.p.X < m.p.X || (n.p.X == m.p.X && n.p.Y < m.p.Y) {
			m = n
		}
	}
	return m
}

// eliminateHole splices the hole at h into the polygon at outer with a
// pair of coincident bridge edges. A hole with no visible polygon vertex is
// left out.
func eliminateHole(h, outer *node) *node {
	b := bridgeVertex(h, outer)
	if b == nil {
		return outer
	}
	back := split(b, h)
	filterPoints(back, back.next)
	return filterPoints(b, b.next)
}

// bridgeVertex casts a ray from the leftmost hole vertex h toward -x and
// returns the polygon vertex h can connect to without crossing an edge.
func bridgeVertex(h, outer *node) *node {
	hx, hy := h.p.X, h.p.Y
	qx := math32.Inf(-1)
	var m *node

	if h.p == outer.p {
		return outer
	}
	for p := outer; ; {
		if h.p == p.next.p {
			return p.next
		}
		// Only edges running downward face the hole from the left.
		if hy <= p.p.Y && hy >= p.next.p.Y && p.next.p.Y != p.p.Y {
			x := p.p.X + (hy-p.p.Y)*(p.next.p.X-p.p.X)/(p.next.p.Y-p.p.Y)
			if x <= hx && x > qx {
				qx = x
				m = p
				if p.next.p.X <= p.p.X {
					m = p.next
				}
				if x == hx {
					return m
				}
			}
		}
		p = p.next
		if p == outer {
			break
		}
	}
	if m == nil {
		return nil
	}

	// Vertices inside triangle (h, hit, m) may block the view; take the one
	// closest in angle to the ray that opens toward the hole.
	tri := [3]math.Vec2{h.p, {X: qx, Y: hy}, m.p}
	if math.Orient(tri[0], tri[1], tri[2]) < 0 {
		tri[1], tri[2] = tri[2], tri[1]
	}
	stop := m
	mx := m.p.X
	tanMin := math32.Inf(1)
	for p := m; ; {
		if hx >= p.p.X && p.p.X >= mx && hx != p.p.X &&
			math.PointInTriangle(p.p, tri[0], tri[1], tri[2]) {
			tan := math32.Abs(hy-p.p.Y) / (hx - p.p.X)
			if locallyInside(p, h) && (tan < tanMin ||
				(tan == tanMin && (p.p.X > m.p.X || (p.p.X == m.p.X && sectorContains(m, p))))) {
				m, tanMin = p, tan
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

// sectorContains reports whether the wedge at p lies within the wedge at m,
// for two nodes at the same position.
func sectorContains(m, p *node) bool {
	return math.Orient(m.prev.p, m.p, p.prev.p) > 0 && math.Orient(p.next.p, m.p, m.next.p) > 0
}

// locallyInside reports whether the diagonal a-b leaves a into the
// polygon interior.
func locallyInside(a, b *node) bool {
	if math.Orient(a.prev.p, a.p, a.next.p) > 0 {
		return math.Orient(a.p, b.p, a.next.p) <= 0 && math.Orient(a.p, a.prev.p, b.p) <= 0
	}
	return math.Orient(a.p, b.p, a.prev.p) > 0 || math.Orient(a.p, a.next.p, b.p) > 0
}

// split joins a and b with a diagonal, cutting the polygon in two. a keeps
// the a..b side; the returned node starts the b..a side.
func split(a, b *node) *node {
	a2 := &node{i: a.i, p: a.p}
	b2 := &node{i: b.i, p: b.p}
	an, bp := a.next, b.prev

	a.next, b.prev = b, a
	a2.next, an.prev = an, a2
	b2.next, a2.prev = a2, b2
	bp.next, b2.prev = b2, bp
	return b2
}

func flat(n *node) bool {
	return n.p == n.next.p || math32.Abs(math.Orient(n.prev.p, n.p, n.next.p)) <= zeroArea
}

// filterPoints unlinks coincident and collinear nodes between start and
// end, returning a node still in the list.
func filterPoints(start, end *node) *node {
	if end == nil {
		end = start
	}
	p := start
	for {
		again := false
		if flat(p) {
			unlink(p)
			p = p.prev
			end = p
			if p == p.next {
				break
			}
			again = true
		} else {
			p = p.next
		}
		if !again && p == end {
			break
		}
	}
	return end
}

// Ear clipping passes. When a pass finds no ear the next one retries after
// cleanup, then after undoing local self-intersections, then by splitting
// the polygon along a valid diagonal.
const (
	passEars = iota
	passFiltered
	passCured
)

// earclip triangulates a counter-clockwise polygon, appending indices to
// out.
func earclip(ear *node, out *[]uint32, pass int) error {
	stop := ear
	for ear.prev != ear.next {
		a, c := ear.prev, ear.next
		if isEar(ear) {
			*out = append(*out, a.i, ear.i, c.i)
			unlink(ear)
			ear, stop = c.next, c.next
			continue
		}

		ear = c
		if ear != stop {
			continue
		}
		switch pass {
		case passEars:
			return earclip(filterPoints(ear, nil), out, passFiltered)
		case passFiltered:
			return earclip(cureLocalIntersections(filterPoints(ear, nil), out), out, passCured)
		default:
			return splitEarclip(ear, out)
		}
	}
	return nil
}

// isEar reports whether b is convex and no reflex vertex lies in the
// triangle at b. Convex vertices cannot block an ear; bridge duplicates of
// a are excluded by position.
func isEar(b *node) bool {
	a, c := b.prev, b.next
	if math.Orient(a.p, b.p, c.p) <= zeroArea {
		return false
	}
	for n := c.next; n != a; n = n.next {
		if n.p != a.p && math.PointInTriangle(n.p, a.p, b.p, c.p) &&
			math.Orient(n.prev.p, n.p, n.next.p) <= 0 {
			return false
		}
	}
	return true
}

// cureLocalIntersections clips the triangle over each pair of crossing
// neighbor edges a-p and p.next-b.
func cureLocalIntersections(start *node, out *[]uint32) *node {
	p := start
	for {
		a, b := p.prev, p.next.next
		if a.p != b.p && intersects(a.p, p.p, p.next.p, b.p) && locallyInside(a, b) && locallyInside(b, a) {
			*out = append(*out, a.i, p.i, b.i)
			unlink(p)
			unlink(p.next)
			p, start = b, b
		}
		p = p.next
		if p == start {
			break
		}
	}
	return filterPoints(p, nil)
}

// splitEarclip cuts the polygon along the first valid diagonal and
// triangulates both halves.
func splitEarclip(start *node, out *[]uint32) error {
	a := start
	for {
		for b := a.next.next; b != a.prev; b = b.next {
			if a.i == b.i || !validDiagonal(a, b) {
				continue
			}
			c := split(a, b)
			a = filterPoints(a, a.next)
			c = filterPoints(c, c.next)
			return multierr.Append(earclip(a, out, passEars), earclip(c, out, passEars))
		}
		a = a.next
		if a == start {
			return ErrIncomplete
		}
	}
}

func validDiagonal(a, b *node) bool {
	if a.next.i == b.i || a.prev.i == b.i || intersectsPolygon(a, b) {
		return false
	}
	if locallyInside(a, b) && locallyInside(b, a) && middleInside(a, b) &&
		(math.Orient(a.prev.p, a.p, b.prev.p) != 0 || math.Orient(a.p, b.prev.p, b.p) != 0) {
		return true
	}
	return a.p == b.p && math.Orient(a.prev.p, a.p, a.next.p) < 0 && math.Orient(b.prev.p, b.p, b.next.p) < 0
}

// intersects reports whether segments p1q1 and p2q2 cross or touch.
func intersects(p1, q1, p2, q2 math.Vec2) bool {
	o1 := sign(math.Orient(p1, q1, p2))
	o2 := sign(math.Orient(p1, q1, q2))
	o3 := sign(math.Orient(p2, q2, p1))
	o4 := sign(math.Orient(p2, q2, q1))

	switch {
	case o1 != o2 && o3 != o4:
		return true
	case o1 == 0 && onSegment(p1, p2, q1),
		o2 == 0 && onSegment(p1, q2, q1),
		o3 == 0 && onSegment(p2, p1, q2),
		o4 == 0 && onSegment(p2, q1, q2):
		return true
	}
	return false
}

// onSegment reports whether q lies in the bounding box of pr.
func onSegment(p, q, r math.Vec2) bool {
	return q.X <= math32.Max(p.X, r.X) && q.X >= math32.Min(p.X, r.X) &&
		q.Y <= math32.Max(p.Y, r.Y) && q.Y >= math32.Min(p.Y, r.Y)
}

func sign(v float32) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// intersectsPolygon reports whether diagonal a-b crosses a polygon edge
// not incident to a or b.
func intersectsPolygon(a, b *node) bool {
	for p := a; ; {
		if p.i != a.i && p.next.i != a.i && p.i != b.i && p.next.i != b.i &&
			intersects(p.p, p.next.p, a.p, b.p) {
			return true
		}
		p = p.next
		if p == a {
			return false
		}
	}
}

// middleInside reports whether the midpoint of a-b lies inside the polygon
// by the even-odd rule.
func middleInside(a, b *node) bool {
	mid := a.p.Add(b.p).Scale(0.5)
	inside := false
	for p := a; ; {
		if (p.p.Y > mid.Y) != (p.next.p.Y > mid.Y) && p.next.p.Y != p.p.Y &&
			mid.X < (p.next.p.X-p.p.X)*(mid.Y-p.p.Y)/(p.next.p.Y-p.p.Y)+p.p.X {
			inside = !inside
		}
		p = p.next
		if p == a {
			return inside
		}
	}
}

func unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}
