package level

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/math"
)

// wallTexture is the texture source for one wall segment. For swapped lower
// walls it comes from the wall on the other side.
type wallTexture struct {
	tileID   int
	tile     *formats.Tile
	xPanning uint8
	yPanning uint8
	xRepeat  uint8
	yRepeat  uint8
}

func textureOf(w *formats.Wall, tileID int, tile *formats.Tile) wallTexture {
	return wallTexture{
		tileID:   tileID,
		tile:     tile,
		xPanning: w.XPanning,
		yPanning: w.YPanning,
		xRepeat:  w.XRepeat,
		yRepeat:  w.YRepeat,
	}
}

// tileDims returns a tile's size for UV math. Empty tiles count as 1x1.
func tileDims(t *formats.Tile) (w, h float32) {
	w, h = float32(t.Width), float32(t.Height)
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

// wallUVs returns corner UVs in bottom-left, bottom-right, top-right,
// top-left order. Flags always come from the wall being drawn, even when
// the texture source is the other side.
func wallUVs(tex wallTexture, flags formats.WallFlags, height float32, kind MeshType) [4]mgl32.Vec2 {
	tileW, tileH := tileDims(tex.tile)

	xPan := float32(tex.xPanning) / 128
	yPan := float32(tex.yPanning) / 256

	switch {
	case (kind == UpperWall && flags.BottomAligned) || (kind == SolidWall && !flags.BottomAligned):
		// Shift so a whole tile row ends on the sector boundary.
		yPan += math32.Mod(height, tileH) / tileH
	case kind == UpperWall:
		yPan = 0
	}

	xScale := float32(tex.xRepeat)*8/tileW + xPan
	yScale := height/tileH*(float32(tex.yRepeat)/8)*-1 + yPan

	if flags.XFlipped {
		xScale = -xScale
	}
	if flags.YFlipped {
		yScale = -yScale
	}

	return [4]mgl32.Vec2{
		{xPan, yPan},
		{xScale, yPan},
		{xScale, yScale},
		{xPan, yScale},
	}
}

// surfaceUV maps a world (x, z) point onto a floor or ceiling tile, one
// texel per world unit, offset by the surface panning.
func surfaceUV(p math.Vec2, surf formats.SurfaceInfo, tile *formats.Tile) mgl32.Vec2 {
	tileW, tileH := tileDims(tile)
	return mgl32.Vec2{
		p.X/tileW + float32(surf.XPanning)/256,
		p.Y/tileH + float32(surf.YPanning)/256,
	}
}
