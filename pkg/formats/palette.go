package formats

import (
	"errors"
	"fmt"
	"os"
)

// PaletteSize is the number of bytes in a Build palette table.
const PaletteSize = 256 * 3

// ErrTruncatedPaletteData is returned when a palette is shorter than 768 bytes.
var ErrTruncatedPaletteData = errors.New("truncated palette data")

// Color is an 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Palette holds 256 colors already rescaled from 6-bit to 8-bit channels.
type Palette struct {
	Colors [256]Color
}

// ParsePalette parses the leading 256-entry table of PALETTE.DAT. Trailing
// shade and translucency tables are ignored.
func ParsePalette(data []byte) (*Palette, error) {
	if len(data) < PaletteSize {
		return nil, formatErr("PALETTE", fmt.Errorf("%w: got %d bytes, need %d", ErrTruncatedPaletteData, len(data), PaletteSize))
	}

	pal := &Palette{}
	for i := range pal.Colors {
		// 6-bit (0-63) to 8-bit range
		pal.Colors[i] = Color{
			R: data[i*3] * 4,
			G: data[i*3+1] * 4,
			B: data[i*3+2] * 4,
		}
	}
	return pal, nil
}

// ParsePaletteFile parses a palette from disk.
func ParsePaletteFile(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading palette file: %w", err)
	}
	return ParsePalette(data)
}
