package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ART format errors.
var (
	ErrTruncatedARTData = errors.New("truncated ART data")
	ErrInvalidTileRange = errors.New("invalid tile range")
	ErrInvalidTileSize  = errors.New("invalid tile dimensions")
)

const artHeaderSize = 16

// Picanm is the packed per-tile animation field.
//
//	bits 0-5   animation frame count
//	bits 6-7   animation type (0 none, 1 oscillate, 2 forward, 3 backward)
//	bits 8-15  signed x center offset
//	bits 16-23 signed y center offset
//	bits 24-27 animation speed
type Picanm uint32

// FrameCount returns the number of animation frames following this tile.
func (p Picanm) FrameCount() int { return int(p & 0x3F) }

// AnimationType returns the 2-bit animation type.
func (p Picanm) AnimationType() int { return int((p >> 6) & 0x03) }

// XCenterOffset returns the signed horizontal draw offset.
func (p Picanm) XCenterOffset() int8 { return int8(p >> 8) }

// YCenterOffset returns the signed vertical draw offset.
func (p Picanm) YCenterOffset() int8 { return int8(p >> 16) }

// Speed returns the animation speed exponent.
func (p Picanm) Speed() int { return int((p >> 24) & 0x0F) }

// Tile is one indexed-color bitmap from an ART file.
type Tile struct {
	ID     int
	Width  int16
	Height int16
	Picanm Picanm
	Pixels []byte // column-major palette indices: Pixels[x*Height+y]
}

// IsEmpty reports whether the tile carries no pixels.
func (t *Tile) IsEmpty() bool {
	return t.Width <= 0 || t.Height <= 0
}

// At returns the palette index at (x, y), with y growing downward.
func (t *Tile) At(x, y int) byte {
	return t.Pixels[x*int(t.Height)+y]
}

// RowMajor returns a transposed copy of the pixel indices in row-major order.
func (t *Tile) RowMajor() []byte {
	w, h := int(t.Width), int(t.Height)
	out := make([]byte, len(t.Pixels))
	for y := range h {
		for x := range w {
			out[y*w+x] = t.Pixels[x*h+y]
		}
	}
	return out
}

// ART represents a parsed tile archive.
type ART struct {
	Version   int32
	FirstTile int32
	LastTile  int32
	Tiles     []Tile
}

// ParseART parses an ART file from raw bytes.
func ParseART(data []byte) (*ART, error) {
	if len(data) < artHeaderSize {
		return nil, formatErr("ART", ErrTruncatedARTData)
	}

	art := &ART{
		Version: int32(binary.LittleEndian.Uint32(data[0:])),
		// data[4:8] is the tile count, which is unreliable and ignored.
		FirstTile: int32(binary.LittleEndian.Uint32(data[8:])),
		LastTile:  int32(binary.LittleEndian.Uint32(data[12:])),
	}

	count := int64(art.LastTile) - int64(art.FirstTile) + 1
	if count < 0 {
		return nil, formatErr("ART", fmt.Errorf("%w: first %d, last %d", ErrInvalidTileRange, art.FirstTile, art.LastTile))
	}
	// Each tile needs at least 8 bytes of metadata.
	if count*8 > int64(len(data)-artHeaderSize) {
		return nil, formatErr("ART", fmt.Errorf("%w: %d tiles declared", ErrTruncatedARTData, count))
	}

	r := bytes.NewReader(data[artHeaderSize:])

	widths := make([]int16, count)
	heights := make([]int16, count)
	picanm := make([]uint32, count)

	if err := binary.Read(r, binary.LittleEndian, widths); err != nil {
		return nil, formatErr("ART", fmt.Errorf("%w: reading widths", ErrTruncatedARTData))
	}
	if err := binary.Read(r, binary.LittleEndian, heights); err != nil {
		return nil, formatErr("ART", fmt.Errorf("%w: reading heights", ErrTruncatedARTData))
	}
	if err := binary.Read(r, binary.LittleEndian, picanm); err != nil {
		return nil, formatErr("ART", fmt.Errorf("%w: reading picanm", ErrTruncatedARTData))
	}

	art.Tiles = make([]Tile, count)
	for i := range art.Tiles {
		tile, err := parseTile(r, int(art.FirstTile)+i, widths[i], heights[i], Picanm(picanm[i]))
		if err != nil {
			return nil, formatErr("ART", fmt.Errorf("parsing tile %d: %w", int(art.FirstTile)+i, err))
		}
		art.Tiles[i] = tile
	}

	return art, nil
}

// parseTile reads one tile's column-major pixel block.
func parseTile(r *bytes.Reader, id int, width, height int16, anim Picanm) (Tile, error) {
	if width < 0 || height < 0 {
		return Tile{}, fmt.Errorf("%w: %dx%d", ErrInvalidTileSize, width, height)
	}

	size := int(width) * int(height)
	if size > r.Len() {
		return Tile{}, fmt.Errorf("%w: need %d pixel bytes, have %d", ErrTruncatedARTData, size, r.Len())
	}

	pixels := make([]byte, size)
	if _, err := r.Read(pixels); err != nil && size > 0 {
		return Tile{}, fmt.Errorf("%w: reading pixels", ErrTruncatedARTData)
	}

	return Tile{
		ID:     id,
		Width:  width,
		Height: height,
		Picanm: anim,
		Pixels: pixels,
	}, nil
}

// ParseARTFile parses an ART file from disk.
func ParseARTFile(path string) (*ART, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ART file: %w", err)
	}
	return ParseART(data)
}
