// Package level builds renderable floor, ceiling and wall meshes for a Build map.
package level

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/buildgeo/pkg/formats"
)

// MeshType identifies which part of a sector a mesh covers.
type MeshType int

const (
	Floor MeshType = iota
	Ceiling
	UpperWall
	LowerWall
	SolidWall
)

// meshTypeCount is the number of MeshType values.
const meshTypeCount = 5

func (t MeshType) String() string {
	switch t {
	case Floor:
		return "floor"
	case Ceiling:
		return "ceiling"
	case UpperWall:
		return "upper wall"
	case LowerWall:
		return "lower wall"
	case SolidWall:
		return "solid wall"
	default:
		return fmt.Sprintf("MeshType(%d)", int(t))
	}
}

// IsWall reports whether the mesh type is a wall segment.
func (t MeshType) IsWall() bool {
	return t == UpperWall || t == LowerWall || t == SolidWall
}

// Vertex is a mesh vertex in world space.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
}

// Mesh is one textured piece of level geometry ready for upload.
type Mesh struct {
	Type     MeshType
	Sector   int
	Wall     int // -1 for floors and ceilings
	TileID   int
	Tile     *formats.Tile
	Vertices []Vertex
	Indices  []uint32 // 3 per triangle
	Bounds   Bounds
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Normal returns the unit normal of the mesh's first triangle.
func (m *Mesh) Normal() mgl32.Vec3 {
	if len(m.Indices) < 3 {
		return mgl32.Vec3{}
	}
	a := m.Vertices[m.Indices[0]].Position
	b := m.Vertices[m.Indices[1]].Position
	c := m.Vertices[m.Indices[2]].Position
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-6 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// emptyBounds returns bounds that any point will expand.
func emptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) extend(p mgl32.Vec3) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func (b *Bounds) union(o Bounds) {
	b.extend(o.Min)
	b.extend(o.Max)
}

// newMesh creates a mesh and computes its bounds.
func newMesh(t MeshType, sectorID, wallID, tileID int, tile *formats.Tile, vertices []Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Type:     t,
		Sector:   sectorID,
		Wall:     wallID,
		TileID:   tileID,
		Tile:     tile,
		Vertices: vertices,
		Indices:  indices,
		Bounds:   emptyBounds(),
	}
	for _, v := range vertices {
		m.Bounds.extend(v.Position)
	}
	return m
}

// RefKind names what a ReferenceError points at.
type RefKind int

const (
	RefTile RefKind = iota
	RefSector
	RefWall
)

func (k RefKind) String() string {
	switch k {
	case RefTile:
		return "tile"
	case RefSector:
		return "sector"
	case RefWall:
		return "wall"
	default:
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
}

// ReferenceError reports an index that points outside its table. The mesh
// that needed it is skipped; the rest of the level still builds.
type ReferenceError struct {
	Kind   RefKind
	Index  int
	Sector int
	Wall   int // -1 for floor and ceiling references
	Mesh   MeshType
}

func (e *ReferenceError) Error() string {
	if e.Wall < 0 {
		return fmt.Sprintf("sector %d %s: %s %d not found", e.Sector, e.Mesh, e.Kind, e.Index)
	}
	return fmt.Sprintf("sector %d wall %d %s: %s %d not found", e.Sector, e.Wall, e.Mesh, e.Kind, e.Index)
}
