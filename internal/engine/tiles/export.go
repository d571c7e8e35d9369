package tiles

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// ErrUnsupportedImageFormat is returned for export paths that are neither .bmp nor .png.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// Image wraps the texture's pixels in an *image.RGBA without copying.
func (t *Texture) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    t.Data,
		Stride: t.Width * 4,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
}

// Encode writes the texture as BMP or PNG depending on format ("bmp" or "png").
func (t *Texture) Encode(w io.Writer, format string) error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("tile %d is empty", t.ID)
	}

	switch strings.ToLower(format) {
	case "bmp":
		return bmp.Encode(w, t.Image())
	case "png":
		return png.Encode(w, t.Image())
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedImageFormat, format)
	}
}

// Save writes the texture to path, choosing the encoder from its extension.
func (t *Texture) Save(path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("%w: %s has no extension", ErrUnsupportedImageFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := t.Encode(f, format); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
