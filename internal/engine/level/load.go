package level

import (
	"errors"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/buildgeo/internal/engine/sector"
	"github.com/Faultbox/buildgeo/internal/engine/tiles"
	"github.com/Faultbox/buildgeo/pkg/formats"
)

// Load errors.
var (
	ErrNoMap   = errors.New("level has no map")
	ErrNoAtlas = errors.New("level has no tile atlas")
)

// Sources are the decoded inputs of a level build.
type Sources struct {
	Name  string // map lump name, informational
	Map   *formats.Map
	Atlas *tiles.Atlas
}

// Options tune a level build.
type Options struct {
	Logger        *zap.Logger // nil logs nothing
	Workers       int         // sectors built in parallel; <= 1 is sequential
	SlopeDivisor  float32     // <= 0 selects sector.DefaultSlopeDivisor
	CeilingSlopes bool        // honor ceiling slope flags
}

// Start is the player spawn in world space.
type Start struct {
	Position mgl32.Vec3
	Angle    float32 // radians, 0 = +x, clockwise seen from above
	RawAngle int16   // Build angle units, 2048 per turn
	Sector   int
}

// Counts tallies meshes by type.
type Counts [meshTypeCount]int

// Of returns the count for one mesh type.
func (c Counts) Of(t MeshType) int {
	if t < 0 || int(t) >= len(c) {
		return 0
	}
	return c[t]
}

// Total returns the number of meshes of any type.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Level is an immutable snapshot of a built map.
type Level struct {
	LoadID   uuid.UUID
	Name     string
	Meshes   []*Mesh
	Atlas    *tiles.Atlas
	Start    Start
	Warnings []error
	Counts   Counts
	Bounds   Bounds

	SectorCount int
	WallCount   int
	SpriteCount int
}

// Warning combines all warnings into one error, nil if there were none.
func (l *Level) Warning() error {
	return multierr.Combine(l.Warnings...)
}

// MeshesOfType returns the meshes of one type in level order.
func (l *Level) MeshesOfType(t MeshType) []*Mesh {
	var out []*Mesh
	for _, m := range l.Meshes {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// SectorMeshes returns a sector's meshes in level order.
func (l *Level) SectorMeshes(sectorID int) []*Mesh {
	var out []*Mesh
	for _, m := range l.Meshes {
		if m.Sector == sectorID {
			out = append(out, m)
		}
	}
	return out
}

// builder holds the read-only state shared by every sector build.
type builder struct {
	m        *formats.Map
	atlas    *tiles.Atlas
	resolver *sector.Resolver
	slope    *sector.Slope
}

type sectorResult struct {
	meshes []*Mesh
	warn   error
}

// buildSector emits Floor, Ceiling, then each wall's segments in slice order.
func (b *builder) buildSector(sectorID int) sectorResult {
	var res sectorResult

	floor, ceiling, err := b.surfaceMeshes(sectorID)
	res.warn = multierr.Append(res.warn, err)
	if floor != nil {
		res.meshes = append(res.meshes, floor)
	}
	if ceiling != nil {
		res.meshes = append(res.meshes, ceiling)
	}

	walls, ok := b.m.SectorWalls(sectorID)
	if !ok {
		// Already reported by the surface pass.
		return res
	}
	for i := range walls {
		meshes, err := b.wallMeshes(sectorID, int(b.m.Sectors[sectorID].WallPtr)+i)
		res.warn = multierr.Append(res.warn, err)
		res.meshes = append(res.meshes, meshes...)
	}
	return res
}

// Load builds every sector of a map into a new Level. Sector-local problems
// become warnings; only missing inputs fail the load.
func Load(src Sources, opts Options) (*Level, error) {
	if src.Map == nil {
		return nil, ErrNoMap
	}
	if src.Atlas == nil {
		return nil, ErrNoAtlas
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	begin := time.Now()

	m := src.Map
	b := &builder{
		m:        m,
		atlas:    src.Atlas,
		resolver: sector.NewResolver(m),
		slope:    sector.NewSlope(m, opts.SlopeDivisor, opts.CeilingSlopes),
	}

	results := make([]sectorResult, len(m.Sectors))
	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range m.Sectors {
			g.Go(func() error {
				results[i] = b.buildSector(i)
				return nil
			})
		}
		_ = g.Wait() // sector builds report through results
	} else {
		for i := range m.Sectors {
			results[i] = b.buildSector(i)
		}
	}

	lvl := &Level{
		LoadID:      uuid.New(),
		Name:        src.Name,
		Atlas:       src.Atlas,
		Start:       playerStart(m.Start),
		Bounds:      emptyBounds(),
		SectorCount: len(m.Sectors),
		WallCount:   len(m.Walls),
		SpriteCount: len(m.Sprites),
	}

	var warn error
	for _, r := range results {
		for _, mesh := range r.meshes {
			lvl.Meshes = append(lvl.Meshes, mesh)
			lvl.Counts[mesh.Type]++
			lvl.Bounds.union(mesh.Bounds)
		}
		warn = multierr.Append(warn, r.warn)
	}
	lvl.Warnings = multierr.Errors(warn)

	for _, w := range lvl.Warnings {
		log.Debug("level warning", zap.String("level", src.Name), zap.Error(w))
	}
	log.Info("level built",
		zap.String("level", src.Name),
		zap.Stringer("load_id", lvl.LoadID),
		zap.Int("sectors", lvl.SectorCount),
		zap.Int("meshes", len(lvl.Meshes)),
		zap.Int("warnings", len(lvl.Warnings)),
		zap.Int("workers", max(opts.Workers, 1)),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return lvl, nil
}

func playerStart(p formats.PlayerStart) Start {
	xz := sector.WorldXZ(p.X, p.Y)
	return Start{
		Position: mgl32.Vec3{xz.X, sector.WorldY(p.Z), xz.Y},
		Angle:    float32(p.Angle&2047) * (2 * math32.Pi / 2048),
		RawAngle: p.Angle,
		Sector:   int(p.Sector),
	}
}
