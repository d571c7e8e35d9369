package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// MAP format errors.
var (
	ErrTruncatedMAPData      = errors.New("truncated MAP data")
	ErrUnsupportedMAPVersion = errors.New("unsupported MAP version")
)

// Record sizes on disk.
const (
	mapHeaderSize    = 20
	sectorRecordSize = 40
	wallRecordSize   = 32
	spriteRecordSize = 44
)

// SurfaceFlags is the decoded ceilingstat/floorstat bitfield.
type SurfaceFlags struct {
	Parallax     bool // bit 0
	Sloped       bool // bit 1
	SwapXY       bool // bit 2
	DoubleSmoosh bool // bit 3
	XFlipped     bool // bit 4
	YFlipped     bool // bit 5
	AlignToWall  bool // bit 6
	Raw          int16
}

// DecodeSurfaceFlags expands a sector stat bitfield.
func DecodeSurfaceFlags(stat int16) SurfaceFlags {
	return SurfaceFlags{
		Parallax:     stat&(1<<0) != 0,
		Sloped:       stat&(1<<1) != 0,
		SwapXY:       stat&(1<<2) != 0,
		DoubleSmoosh: stat&(1<<3) != 0,
		XFlipped:     stat&(1<<4) != 0,
		YFlipped:     stat&(1<<5) != 0,
		AlignToWall:  stat&(1<<6) != 0,
		Raw:          stat,
	}
}

// WallFlags is the decoded wall cstat bitfield.
type WallFlags struct {
	Blocking            bool // bit 0
	BottomSwapped       bool // bit 1: lower wall drawn with the other side's texture
	BottomAligned       bool // bit 2: texture anchored to the floor (doors)
	XFlipped            bool // bit 3
	Masked              bool // bit 4
	OneWay              bool // bit 5
	HitscanBlocking     bool // bit 6
	Translucent         bool // bit 7
	YFlipped            bool // bit 8
	TranslucentReversed bool // bit 9
	Raw                 int16
}

// DecodeWallFlags expands a wall cstat bitfield.
func DecodeWallFlags(cstat int16) WallFlags {
	return WallFlags{
		Blocking:            cstat&(1<<0) != 0,
		BottomSwapped:       cstat&(1<<1) != 0,
		BottomAligned:       cstat&(1<<2) != 0,
		XFlipped:            cstat&(1<<3) != 0,
		Masked:              cstat&(1<<4) != 0,
		OneWay:              cstat&(1<<5) != 0,
		HitscanBlocking:     cstat&(1<<6) != 0,
		Translucent:         cstat&(1<<7) != 0,
		YFlipped:            cstat&(1<<8) != 0,
		TranslucentReversed: cstat&(1<<9) != 0,
		Raw:                 cstat,
	}
}

// SurfaceInfo holds the texture attributes of a floor or ceiling.
type SurfaceInfo struct {
	Z        int32 // height in engine units; larger is lower
	Flags    SurfaceFlags
	Picnum   int16
	Heinum   int16
	Shade    int8
	Pal      uint8
	XPanning uint8
	YPanning uint8
}

// Sector is a room: a polygon of walls with a floor and a ceiling.
type Sector struct {
	ID         int
	WallPtr    int16
	WallNum    int16
	Ceiling    SurfaceInfo
	Floor      SurfaceInfo
	Visibility uint8
	Lotag      int16
	Hitag      int16
	Extra      int16
}

// Wall is one directed boundary segment of a sector.
type Wall struct {
	ID         int
	X, Y       int32
	Point2     int16 // next wall in the loop
	NextWall   int16 // wall on the other side, -1 if none
	NextSector int16 // sector on the other side, -1 if none
	Flags      WallFlags
	Picnum     int16
	OverPicnum int16
	Shade      int8
	Pal        uint8
	XRepeat    uint8
	YRepeat    uint8
	XPanning   uint8
	YPanning   uint8
	Lotag      int16
	Hitag      int16
	Extra      int16
}

// IsPortal reports whether the wall borders another sector.
func (w *Wall) IsPortal() bool {
	return w.NextSector >= 0
}

// Sprite is a placed object. Geometry reconstruction does not use sprites.
type Sprite struct {
	ID       int
	X, Y, Z  int32
	CStat    int16
	Picnum   int16
	Shade    int8
	Pal      uint8
	ClipDist uint8
	XRepeat  uint8
	YRepeat  uint8
	XOffset  int8
	YOffset  int8
	Sector   int16
	Statnum  int16
	Angle    int16
	Owner    int16
	XVel     int16
	YVel     int16
	ZVel     int16
	Lotag    int16
	Hitag    int16
	Extra    int16
}

// PlayerStart is the player spawn recorded in the map header.
type PlayerStart struct {
	X, Y, Z int32
	Angle   int16 // 0-2047, 0 = east
	Sector  int16
}

// Map represents a parsed level.
type Map struct {
	Version int32
	Start   PlayerStart
	Sectors []Sector
	Walls   []Wall
	Sprites []Sprite
}

// SectorWalls returns the wall slice owned by a sector, or false when the
// sector's [WallPtr, WallPtr+WallNum) range falls outside the wall array.
func (m *Map) SectorWalls(sectorID int) ([]Wall, bool) {
	if !InBounds(sectorID, len(m.Sectors)) {
		return nil, false
	}
	s := &m.Sectors[sectorID]
	start, end := int(s.WallPtr), int(s.WallPtr)+int(s.WallNum)
	if s.WallNum < 0 || start < 0 || end > len(m.Walls) {
		return nil, false
	}
	return m.Walls[start:end], true
}

// On-disk records. Field order is the file layout.

type sectorRecord struct {
	WallPtr, WallNum             int16
	CeilingZ, FloorZ             int32
	CeilingStat, FloorStat       int16
	CeilingPicnum, CeilingHeinum int16
	CeilingShade                 int8
	CeilingPal                   uint8
	CeilingXPanning              uint8
	CeilingYPanning              uint8
	FloorPicnum, FloorHeinum     int16
	FloorShade                   int8
	FloorPal                     uint8
	FloorXPanning, FloorYPanning uint8
	Visibility, Filler           uint8
	Lotag, Hitag, Extra          int16
}

type wallRecord struct {
	X, Y                         int32
	Point2, NextWall, NextSector int16
	CStat                        int16
	Picnum, OverPicnum           int16
	Shade                        int8
	Pal                          uint8
	XRepeat, YRepeat             uint8
	XPanning, YPanning           uint8
	Lotag, Hitag, Extra          int16
}

type spriteRecord struct {
	X, Y, Z               int32
	CStat, Picnum         int16
	Shade                 int8
	Pal, ClipDist, Filler uint8
	XRepeat, YRepeat      uint8
	XOffset, YOffset      int8
	Sectnum, Statnum      int16
	Ang, Owner            int16
	XVel, YVel, ZVel      int16
	Lotag, Hitag, Extra   int16
}

type mapHeader struct {
	Version   int32
	X, Y, Z   int32
	Angle     int16
	CurSector int16
}

// ParseMAP parses a MAP file from raw bytes.
func ParseMAP(data []byte) (*Map, error) {
	if len(data) < mapHeaderSize {
		return nil, formatErr("MAP", ErrTruncatedMAPData)
	}

	r := bytes.NewReader(data)

	var hdr mapHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, formatErr("MAP", fmt.Errorf("%w: reading header", ErrTruncatedMAPData))
	}

	// Versions 7 and 8 share the record layout; 8 only raises engine limits.
	if hdr.Version != 7 && hdr.Version != 8 {
		return nil, formatErr("MAP", fmt.Errorf("%w: %d", ErrUnsupportedMAPVersion, hdr.Version))
	}

	m := &Map{
		Version: hdr.Version,
		Start: PlayerStart{
			X:      hdr.X,
			Y:      hdr.Y,
			Z:      hdr.Z,
			Angle:  hdr.Angle,
			Sector: hdr.CurSector,
		},
	}

	sectors, err := readRecords[sectorRecord](r, sectorRecordSize, "sectors")
	if err != nil {
		return nil, formatErr("MAP", err)
	}
	m.Sectors = make([]Sector, len(sectors))
	for i, rec := range sectors {
		m.Sectors[i] = sectorFromRecord(i, rec)
	}

	walls, err := readRecords[wallRecord](r, wallRecordSize, "walls")
	if err != nil {
		return nil, formatErr("MAP", err)
	}
	m.Walls = make([]Wall, len(walls))
	for i, rec := range walls {
		m.Walls[i] = wallFromRecord(i, rec)
	}

	sprites, err := readRecords[spriteRecord](r, spriteRecordSize, "sprites")
	if err != nil {
		return nil, formatErr("MAP", err)
	}
	m.Sprites = make([]Sprite, len(sprites))
	for i, rec := range sprites {
		m.Sprites[i] = spriteFromRecord(i, rec)
	}

	return m, nil
}

// readRecords reads a uint16 count followed by that many fixed-size records.
func readRecords[T any](r *bytes.Reader, size int, what string) ([]T, error) {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading %s count", ErrTruncatedMAPData, what)
	}
	if int(count)*size > r.Len() {
		return nil, fmt.Errorf("%w: %d %s need %d bytes, have %d", ErrTruncatedMAPData, count, what, int(count)*size, r.Len())
	}

	records := make([]T, count)
	if err := binary.Read(r, binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("%w: reading %s", ErrTruncatedMAPData, what)
	}
	return records, nil
}

func sectorFromRecord(id int, rec sectorRecord) Sector {
	return Sector{
		ID:      id,
		WallPtr: rec.WallPtr,
		WallNum: rec.WallNum,
		Ceiling: SurfaceInfo{
			Z:        rec.CeilingZ,
			Flags:    DecodeSurfaceFlags(rec.CeilingStat),
			Picnum:   rec.CeilingPicnum,
			Heinum:   rec.CeilingHeinum,
			Shade:    rec.CeilingShade,
			Pal:      rec.CeilingPal,
			XPanning: rec.CeilingXPanning,
			YPanning: rec.CeilingYPanning,
		},
		Floor: SurfaceInfo{
			Z:        rec.FloorZ,
			Flags:    DecodeSurfaceFlags(rec.FloorStat),
			Picnum:   rec.FloorPicnum,
			Heinum:   rec.FloorHeinum,
			Shade:    rec.FloorShade,
			Pal:      rec.FloorPal,
			XPanning: rec.FloorXPanning,
			YPanning: rec.FloorYPanning,
		},
		Visibility: rec.Visibility,
		Lotag:      rec.Lotag,
		Hitag:      rec.Hitag,
		Extra:      rec.Extra,
	}
}

func wallFromRecord(id int, rec wallRecord) Wall {
	return Wall{
		ID:         id,
		X:          rec.X,
		Y:          rec.Y,
		Point2:     rec.Point2,
		NextWall:   rec.NextWall,
		NextSector: rec.NextSector,
		Flags:      DecodeWallFlags(rec.CStat),
		Picnum:     rec.Picnum,
		OverPicnum: rec.OverPicnum,
		Shade:      rec.Shade,
		Pal:        rec.Pal,
		XRepeat:    rec.XRepeat,
		YRepeat:    rec.YRepeat,
		XPanning:   rec.XPanning,
		YPanning:   rec.YPanning,
		Lotag:      rec.Lotag,
		Hitag:      rec.Hitag,
		Extra:      rec.Extra,
	}
}

func spriteFromRecord(id int, rec spriteRecord) Sprite {
	return Sprite{
		ID:       id,
		X:        rec.X,
		Y:        rec.Y,
		Z:        rec.Z,
		CStat:    rec.CStat,
		Picnum:   rec.Picnum,
		Shade:    rec.Shade,
		Pal:      rec.Pal,
		ClipDist: rec.ClipDist,
		XRepeat:  rec.XRepeat,
		YRepeat:  rec.YRepeat,
		XOffset:  rec.XOffset,
		YOffset:  rec.YOffset,
		Sector:   rec.Sectnum,
		Statnum:  rec.Statnum,
		Angle:    rec.Ang,
		Owner:    rec.Owner,
		XVel:     rec.XVel,
		YVel:     rec.YVel,
		ZVel:     rec.ZVel,
		Lotag:    rec.Lotag,
		Hitag:    rec.Hitag,
		Extra:    rec.Extra,
	}
}

// ParseMAPFile parses a MAP file from disk.
func ParseMAPFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MAP file: %w", err)
	}
	return ParseMAP(data)
}
