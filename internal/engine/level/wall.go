package level

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/Faultbox/buildgeo/internal/engine/sector"
	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/math"
)

// quadIndices triangulates corners BL, BR, TR, TL.
var quadIndices = [6]uint32{0, 1, 2, 2, 3, 0}

// wallMeshes builds the segments of one wall in Upper, Lower, Solid order.
// A one-sided wall yields a solid segment; a portal yields an upper and/or
// lower segment where the neighbor's ceiling or floor steps.
func (b *builder) wallMeshes(sectorID, wallID int) ([]*Mesh, error) {
	w := &b.m.Walls[wallID]
	sec := &b.m.Sectors[sectorID]

	start := sector.WallStart(w)
	end, ok := sector.WallEnd(b.m, w)
	if !ok {
		return nil, &ReferenceError{Kind: RefWall, Index: int(w.Point2), Sector: sectorID, Wall: wallID, Mesh: SolidWall}
	}

	floorY := sector.WorldY(sec.Floor.Z)
	ceilY := sector.WorldY(sec.Ceiling.Z)

	if !w.IsPortal() {
		m, err := b.solidWall(sectorID, wallID, w, start, end, floorY, ceilY)
		if err != nil {
			return nil, err
		}
		return []*Mesh{m}, nil
	}

	if !formats.InBounds(w.NextSector, len(b.m.Sectors)) {
		return nil, &ReferenceError{Kind: RefSector, Index: int(w.NextSector), Sector: sectorID, Wall: wallID, Mesh: UpperWall}
	}
	next := int(w.NextSector)
	nextSec := &b.m.Sectors[next]

	var (
		meshes []*Mesh
		warn   error
	)

	// Upper: the neighbor's ceiling hangs below ours.
	if nextCeilY := sector.WorldY(nextSec.Ceiling.Z); nextCeilY < ceilY {
		m, err := b.upperWall(sectorID, wallID, w, start, end, nextCeilY, ceilY)
		warn = multierr.Append(warn, err)
		if m != nil {
			meshes = append(meshes, m)
		}
	}

	// Lower: the neighbor's floor sits above ours.
	if nextFloorY := sector.WorldY(nextSec.Floor.Z); nextFloorY > floorY {
		m, err := b.lowerWall(sectorID, wallID, next, w, start, end, floorY, nextFloorY)
		warn = multierr.Append(warn, err)
		if m != nil {
			meshes = append(meshes, m)
		}
	}

	return meshes, warn
}

func (b *builder) solidWall(sectorID, wallID int, w *formats.Wall, start, end math.Vec2, bottom, top float32) (*Mesh, error) {
	picnum := int(w.Picnum)
	if w.OverPicnum > 0 && w.Flags.BottomSwapped {
		picnum = int(w.OverPicnum)
	}
	tile, ok := b.atlas.Lookup(picnum)
	if !ok {
		return nil, &ReferenceError{Kind: RefTile, Index: picnum, Sector: sectorID, Wall: wallID, Mesh: SolidWall}
	}

	tex := textureOf(w, picnum, tile)
	uvs := wallUVs(tex, w.Flags, top-bottom, SolidWall)
	corners := [4]mgl32.Vec3{
		start.Lift(bottom),
		end.Lift(bottom),
		end.Lift(top),
		start.Lift(top),
	}
	return quad(SolidWall, sectorID, wallID, tex, corners, uvs), nil
}

func (b *builder) upperWall(sectorID, wallID int, w *formats.Wall, start, end math.Vec2, bottom, top float32) (*Mesh, error) {
	tile, ok := b.atlas.Lookup(int(w.Picnum))
	if !ok {
		return nil, &ReferenceError{Kind: RefTile, Index: int(w.Picnum), Sector: sectorID, Wall: wallID, Mesh: UpperWall}
	}

	tex := textureOf(w, int(w.Picnum), tile)
	uvs := wallUVs(tex, w.Flags, top-bottom, UpperWall)
	corners := [4]mgl32.Vec3{
		start.Lift(bottom),
		end.Lift(bottom),
		end.Lift(top),
		start.Lift(top),
	}
	return quad(UpperWall, sectorID, wallID, tex, corners, uvs), nil
}

// lowerWall spans from our floor up to the neighbor's floor. The top edge
// follows the neighbor's slope at each endpoint.
func (b *builder) lowerWall(sectorID, wallID, next int, w *formats.Wall, start, end math.Vec2, bottom, top float32) (*Mesh, error) {
	src := w
	if w.Flags.BottomSwapped {
		if !formats.InBounds(w.NextWall, len(b.m.Walls)) {
			return nil, &ReferenceError{Kind: RefWall, Index: int(w.NextWall), Sector: sectorID, Wall: wallID, Mesh: LowerWall}
		}
		src = &b.m.Walls[w.NextWall]
	}

	tile, ok := b.atlas.Lookup(int(src.Picnum))
	if !ok {
		return nil, &ReferenceError{Kind: RefTile, Index: int(src.Picnum), Sector: sectorID, Wall: wallID, Mesh: LowerWall}
	}

	tex := textureOf(src, int(src.Picnum), tile)
	uvs := wallUVs(tex, w.Flags, top-bottom, LowerWall)
	corners := [4]mgl32.Vec3{
		start.Lift(bottom),
		end.Lift(bottom),
		end.Lift(b.slope.FloorHeightAt(next, end)),
		start.Lift(b.slope.FloorHeightAt(next, start)),
	}
	return quad(LowerWall, sectorID, wallID, tex, corners, uvs), nil
}

func quad(kind MeshType, sectorID, wallID int, tex wallTexture, corners [4]mgl32.Vec3, uvs [4]mgl32.Vec2) *Mesh {
	vertices := make([]Vertex, 4)
	for i := range vertices {
		vertices[i] = Vertex{Position: corners[i], UV: uvs[i]}
	}
	indices := make([]uint32, len(quadIndices))
	copy(indices, quadIndices[:])
	return newMesh(kind, sectorID, wallID, tex.tileID, tex.tile, vertices, indices)
}
