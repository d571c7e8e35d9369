package tess

import (
	"errors"
	"slices"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/buildgeo/pkg/math"
)

func pts(coords ...float32) []math.Vec2 {
	out := make([]math.Vec2, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, math.Vec2{X: coords[i], Y: coords[i+1]})
	}
	return out
}

var (
	square = pts(0, 0, 64, 0, 64, 64, 0, 64)
	hole   = pts(24, 24, 24, 40, 40, 40, 40, 24) // opposite winding to square
)

func reversed(p []math.Vec2) []math.Vec2 {
	out := slices.Clone(p)
	slices.Reverse(out)
	return out
}

// coveredArea sums the unsigned area of every triangle.
func coveredArea(r Result) float32 {
	var total float32
	for i := 0; i+2 < len(r.Indices); i += 3 {
		a, b, c := r.Vertices[r.Indices[i]], r.Vertices[r.Indices[i+1]], r.Vertices[r.Indices[i+2]]
		total += math32.Abs(math.Orient(a, b, c)) / 2
	}
	return total
}

func checkTriangles(t *testing.T, r Result) {
	t.Helper()
	if len(r.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(r.Indices))
	}
	for i, idx := range r.Indices {
		if int(idx) >= len(r.Vertices) {
			t.Fatalf("index %d = %d out of range (%d vertices)", i, idx, len(r.Vertices))
		}
	}
	for i := 0; i+2 < len(r.Indices); i += 3 {
		a, b, c := r.Vertices[r.Indices[i]], r.Vertices[r.Indices[i+1]], r.Vertices[r.Indices[i+2]]
		if math.Orient(a, b, c) <= 0 {
			t.Errorf("triangle %d is not counter-clockwise: %v %v %v", i/3, a, b, c)
		}
	}
}

func TestTessellate(t *testing.T) {
	tests := []struct {
		name      string
		contours  [][]math.Vec2
		vertices  int
		triangles int
		area      float32
	}{
		{"square", [][]math.Vec2{square}, 4, 2, 4096},
		{"clockwise square", [][]math.Vec2{reversed(square)}, 4, 2, 4096},
		{"closed contour", [][]math.Vec2{append(slices.Clone(square), square[0])}, 4, 2, 4096},
		{"square with hole", [][]math.Vec2{square, hole}, 8, 8, 3840},
		{"same winding nested", [][]math.Vec2{square, reversed(hole)}, 4, 2, 4096},
		{"islands", [][]math.Vec2{square, pts(100, 0, 164, 0, 164, 64, 100, 64)}, 8, 4, 8192},
		{"concave L", [][]math.Vec2{pts(0, 0, 64, 0, 64, 32, 32, 32, 32, 64, 0, 64)}, 6, 4, 3072},
		{"collinear midpoint", [][]math.Vec2{pts(0, 0, 32, 0, 64, 0, 64, 64, 0, 64)}, 4, 2, 4096},
		{
			"two holes",
			[][]math.Vec2{square, pts(8, 8, 8, 20, 20, 20, 20, 8), pts(40, 40, 40, 56, 56, 56, 56, 40)},
			12, 14, 3696,
		},
		{
			"comb",
			[][]math.Vec2{pts(0, 0, 50, 0, 50, 40, 40, 40, 40, 10, 30, 10, 30, 40, 20, 40, 20, 10, 10, 10, 10, 40, 0, 40)},
			12, 9, 1400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Tessellate(tt.contours)
			if err != nil {
				t.Fatalf("Tessellate failed: %v", err)
			}
			checkTriangles(t, r)

			if len(r.Vertices) != tt.vertices {
				t.Errorf("expected %d vertices, got %d", tt.vertices, len(r.Vertices))
			}
			if r.TriangleCount() != tt.triangles {
				t.Errorf("expected %d triangles, got %d", tt.triangles, r.TriangleCount())
			}
			if got := coveredArea(r); math32.Abs(got-tt.area) > 0.01 {
				t.Errorf("expected area %v, got %v", tt.area, got)
			}
		})
	}
}

func TestTessellate_NothingInsideHole(t *testing.T) {
	r, err := Tessellate([][]math.Vec2{square, hole})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}

	for i := 0; i+2 < len(r.Indices); i += 3 {
		a, b, c := r.Vertices[r.Indices[i]], r.Vertices[r.Indices[i+1]], r.Vertices[r.Indices[i+2]]
		centroid := a.Add(b).Add(c).Scale(1.0 / 3)
		if centroid.X > 24 && centroid.X < 40 && centroid.Y > 24 && centroid.Y < 40 {
			t.Errorf("triangle %d lies inside the hole: %v %v %v", i/3, a, b, c)
		}
	}
}

// rect returns an axis-aligned rectangle wound clockwise, as a hole.
func rect(x0, y0, x1, y1 float32) []math.Vec2 {
	return pts(x0, y0, x0, y1, x1, y1, x1, y0)
}

func diamond(cx, cy, r float32) []math.Vec2 {
	return pts(cx, cy-r, cx-r, cy, cx, cy+r, cx+r, cy)
}

func TestTessellate_MultipleHoles(t *testing.T) {
	room := pts(0, 0, 100, 0, 100, 100, 0, 100)

	grid := [][]math.Vec2{room}
	for i := range 3 {
		for j := range 3 {
			x, y := float32(10+30*i), float32(10+30*j)
			grid = append(grid, rect(x, y, x+20, y+20))
		}
	}
	column := [][]math.Vec2{room}
	row := [][]math.Vec2{room}
	for k := range 4 {
		o := float32(10 + 20*k)
		column = append(column, rect(40, o, 50, o+10))
		row = append(row, rect(o, 40, o+10, 50))
	}

	tests := []struct {
		name     string
		contours [][]math.Vec2
		area     float32
	}{
		{"shared left edge", [][]math.Vec2{room, rect(76, 10, 81, 24), rect(76, 76, 89, 82)}, 9852},
		{"pillar column", column, 9600},
		{"pillar row", row, 9600},
		{"grid", grid, 6400},
		{"diamonds", [][]math.Vec2{room, diamond(30, 30, 10), diamond(30, 70, 10), diamond(70, 50, 10)}, 9400},
		{"holes touching at a corner", [][]math.Vec2{room, rect(20, 20, 40, 40), rect(40, 40, 60, 60)}, 9200},
		{"hole touching the outline", [][]math.Vec2{room, pts(0, 50, 20, 60, 20, 40)}, 9800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Tessellate(tt.contours)
			if err != nil {
				t.Fatalf("Tessellate failed: %v", err)
			}
			checkTriangles(t, r)
			if got := coveredArea(r); math32.Abs(got-tt.area) > 0.01 {
				t.Errorf("expected area %v, got %v", tt.area, got)
			}

			for i := 0; i+2 < len(r.Indices); i += 3 {
				a, b, c := r.Vertices[r.Indices[i]], r.Vertices[r.Indices[i+1]], r.Vertices[r.Indices[i+2]]
				centroid := a.Add(b).Add(c).Scale(1.0 / 3)
				for _, h := range tt.contours[1:] {
					if windingNumber(centroid, h) != 0 {
						t.Errorf("triangle %d lies inside hole %v", i/3, h)
					}
				}
			}
		})
	}
}

func TestTessellate_Degenerate(t *testing.T) {
	tests := []struct {
		name     string
		contours [][]math.Vec2
	}{
		{"empty", nil},
		{"axis collinear", [][]math.Vec2{pts(0, 0, 1, 0, 2, 0)}},
		{"diagonal collinear", [][]math.Vec2{pts(0, 0, 1, 1, 2, 2)}},
		{"two points", [][]math.Vec2{pts(0, 0, 5, 5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Tessellate(tt.contours)
			if !errors.Is(err, ErrNoContours) {
				t.Errorf("expected ErrNoContours, got %v", err)
			}
			if len(r.Indices) != 0 {
				t.Errorf("expected no triangles, got %d", r.TriangleCount())
			}
		})
	}
}

func TestTessellate_SkipsDegenerateLoopAmongValid(t *testing.T) {
	r, err := Tessellate([][]math.Vec2{pts(0, 0, 1, 0, 2, 0), square})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(r.Vertices) != 4 || r.TriangleCount() != 2 {
		t.Errorf("expected the square alone, got %d vertices and %d triangles", len(r.Vertices), r.TriangleCount())
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   []math.Vec2
		want []math.Vec2
	}{
		{"already clean", square, square},
		{"closing duplicate", append(slices.Clone(square), square[0]), square},
		{
			"duplicates and axis collinear",
			pts(0, 0, 0, 0, 10, 0, 10, 10, 5, 10, 0, 10, 0, 0),
			pts(0, 0, 10, 0, 10, 10, 0, 10),
		},
		{
			"within tolerance",
			pts(0, 0, 10, 0, 10, 10, 0, 10, 0.0001, 5),
			pts(0, 0, 10, 0, 10, 10, 0, 10),
		},
		{"spike", pts(0, 0, 10, 0, 20, 0, 10, 0, 10, 10), pts(0, 0, 10, 0, 10, 10)},
		{"collapses", pts(0, 0, 1, 0, 2, 0, 0, 0), nil},
		{"diagonal collinear kept", pts(0, 0, 1, 1, 2, 2), pts(0, 0, 1, 1, 2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	in := pts(0, 0, 5, 0, 10, 0, 10, 10, 0, 10)
	orig := slices.Clone(in)
	Clean(in)
	if !slices.Equal(in, orig) {
		t.Errorf("input modified: %v", in)
	}
}
