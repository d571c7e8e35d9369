package level

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/buildgeo/internal/engine/sector"
	"github.com/Faultbox/buildgeo/internal/engine/tess"
	"github.com/Faultbox/buildgeo/pkg/formats"
)

// surfaceMeshes builds a sector's floor and ceiling from one tessellation.
// Either mesh may be missing; the reasons are returned as warnings.
func (b *builder) surfaceMeshes(sectorID int) (floor, ceiling *Mesh, warn error) {
	contours, err := b.resolver.Contours(sectorID)
	if err != nil {
		return nil, nil, err
	}

	res, err := tess.Tessellate(contours)
	if err != nil {
		if errors.Is(err, tess.ErrNoContours) {
			err = fmt.Errorf("%w: %w", sector.ErrTooFewPoints, err)
		}
		return nil, nil, &sector.GeometryError{Sector: sectorID, Wall: -1, Err: err}
	}

	sec := &b.m.Sectors[sectorID]

	floor, err = b.surfaceMesh(Floor, sectorID, sec.Floor, res)
	warn = multierr.Append(warn, err)

	ceiling, err = b.surfaceMesh(Ceiling, sectorID, sec.Ceiling, res)
	warn = multierr.Append(warn, err)

	return floor, ceiling, warn
}

func (b *builder) surfaceMesh(kind MeshType, sectorID int, surf formats.SurfaceInfo, res tess.Result) (*Mesh, error) {
	tileID := int(surf.Picnum)
	tile, ok := b.atlas.Lookup(tileID)
	if !ok {
		return nil, &ReferenceError{Kind: RefTile, Index: tileID, Sector: sectorID, Wall: -1, Mesh: kind}
	}

	vertices := make([]Vertex, len(res.Vertices))
	for i, p := range res.Vertices {
		var y float32
		if kind == Floor {
			y = b.slope.FloorHeightAt(sectorID, p)
		} else {
			y = b.slope.CeilingHeightAt(sectorID, p)
		}
		vertices[i] = Vertex{
			Position: p.Lift(y),
			UV:       surfaceUV(p, surf, tile),
		}
	}

	// Tessellated triangles face down once lifted into world space; floors
	// flip them to face up, ceilings keep them.
	indices := make([]uint32, len(res.Indices))
	for i := 0; i+2 < len(res.Indices); i += 3 {
		i0, i1, i2 := res.Indices[i], res.Indices[i+1], res.Indices[i+2]
		if kind == Floor {
			i1, i2 = i2, i1
		}
		indices[i], indices[i+1], indices[i+2] = i0, i1, i2
	}

	return newMesh(kind, sectorID, -1, tileID, tile, vertices, indices), nil
}
