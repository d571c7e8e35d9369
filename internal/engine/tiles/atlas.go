// Package tiles resolves ART tiles through a palette into true-color pixel data.
package tiles

import (
	"sort"

	"github.com/Faultbox/buildgeo/pkg/formats"
)

// TransparentIndex is the palette index Build treats as see-through.
const TransparentIndex = 255

// Texture is a decoded tile ready for upload: row-major RGBA with y growing downward.
type Texture struct {
	ID     int
	Width  int
	Height int
	Picanm formats.Picanm
	Data   []byte // RGBA, 4 bytes per pixel
}

// Atlas indexes every tile across a set of ART files by tile id.
type Atlas struct {
	palette *formats.Palette
	tiles   map[int]*formats.Tile
	ids     []int
	cache   map[int]*Texture
}

// NewAtlas builds an atlas from ART files. Files are merged in the order
// given; a tile id present in several files resolves to the last one.
func NewAtlas(arts []*formats.ART, pal *formats.Palette) *Atlas {
	a := &Atlas{
		palette: pal,
		tiles:   make(map[int]*formats.Tile),
		cache:   make(map[int]*Texture),
	}

	for _, art := range arts {
		if art == nil {
			continue
		}
		for i := range art.Tiles {
			t := &art.Tiles[i]
			if _, dup := a.tiles[t.ID]; !dup {
				a.ids = append(a.ids, t.ID)
			}
			a.tiles[t.ID] = t
		}
	}
	sort.Ints(a.ids)

	return a
}

// Palette returns the palette the atlas resolves colors through.
func (a *Atlas) Palette() *formats.Palette {
	return a.palette
}

// Len returns the number of distinct tile ids.
func (a *Atlas) Len() int {
	return len(a.ids)
}

// IDs returns all tile ids in ascending order.
func (a *Atlas) IDs() []int {
	return a.ids
}

// Lookup returns the raw tile for an id.
func (a *Atlas) Lookup(id int) (*formats.Tile, bool) {
	t, ok := a.tiles[id]
	return t, ok
}

// Size returns a tile's dimensions in pixels.
func (a *Atlas) Size(id int) (width, height int, ok bool) {
	t, ok := a.tiles[id]
	if !ok {
		return 0, 0, false
	}
	return int(t.Width), int(t.Height), true
}

// Texture returns the RGBA conversion of a tile, decoding it on first use.
// The atlas is not safe for concurrent Texture calls; callers sharing an
// atlas across goroutines should Preload first.
func (a *Atlas) Texture(id int) (*Texture, bool) {
	if tex, ok := a.cache[id]; ok {
		return tex, true
	}
	t, ok := a.tiles[id]
	if !ok {
		return nil, false
	}

	tex := &Texture{
		ID:     t.ID,
		Width:  int(t.Width),
		Height: int(t.Height),
		Picanm: t.Picanm,
		Data:   ToRGBA(t, a.palette),
	}
	a.cache[id] = tex
	return tex, true
}

// Preload decodes every tile so later Texture calls only read the cache.
func (a *Atlas) Preload() {
	for _, id := range a.ids {
		a.Texture(id)
	}
}

// ToRGB converts a tile's column-major indices to row-major RGB triples.
func ToRGB(t *formats.Tile, pal *formats.Palette) []byte {
	if t.IsEmpty() {
		return nil
	}
	w, h := int(t.Width), int(t.Height)
	out := make([]byte, w*h*3)
	for y := range h {
		for x := range w {
			c := pal.Colors[t.Pixels[x*h+y]]
			i := (y*w + x) * 3
			out[i] = c.R
			out[i+1] = c.G
			out[i+2] = c.B
		}
	}
	return out
}

// ToRGBA converts a tile to row-major RGBA. Pixels using TransparentIndex
// become transparent black so filtering does not bleed the key color.
func ToRGBA(t *formats.Tile, pal *formats.Palette) []byte {
	if t.IsEmpty() {
		return nil
	}
	w, h := int(t.Width), int(t.Height)
	out := make([]byte, w*h*4)
	for y := range h {
		for x := range w {
			idx := t.Pixels[x*h+y]
			i := (y*w + x) * 4
			if idx == TransparentIndex {
				continue
			}
			c := pal.Colors[idx]
			out[i] = c.R
			out[i+1] = c.G
			out[i+2] = c.B
			out[i+3] = 255
		}
	}
	return out
}
