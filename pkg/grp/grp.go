// Package grp provides reading functionality for Build engine GRP archives.
package grp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/Faultbox/buildgeo/pkg/formats"
)

// Signature is the magic string found at the start of every retail GRP file.
const Signature = "KenSilverman"

const (
	headerSize = 16 // 12-byte signature + int32 lump count
	entrySize  = 16 // 12-byte name + int32 size
	nameSize   = 12
)

// GRP format errors. Decoding failures reach callers wrapped in a
// *formats.FormatError with Format "GRP".
var (
	ErrInvalidSignature = errors.New("invalid GRP signature: expected 'KenSilverman'")
	ErrTruncatedGRPData = errors.New("truncated GRP data")
	ErrInvalidLumpCount = errors.New("invalid GRP lump count")
	ErrLumpNotFound     = errors.New("lump not found")
)

// Archive represents an opened GRP archive.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	size    int64
	header  Header
	entries []*Entry
	index   map[string]*Entry
}

// Header contains GRP file header information.
type Header struct {
	Signature string
	LumpCount int32
}

// Entry represents a lump in the archive directory.
type Entry struct {
	Name   string
	Size   int32
	Offset int64 // absolute offset of the payload
}

// Open opens a GRP archive for reading. The returned archive keeps the file
// open until Close is called.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	archive, err := newArchive(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	archive.closer = file
	return archive, nil
}

// Parse reads a GRP archive held entirely in memory.
func Parse(data []byte) (*Archive, error) {
	return newArchive(bytes.NewReader(data), int64(len(data)))
}

func newArchive(r io.ReaderAt, size int64) (*Archive, error) {
	archive := &Archive{
		r:     r,
		size:  size,
		index: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		return nil, &formats.FormatError{Format: "GRP", Err: fmt.Errorf("reading header: %w", err)}
	}

	if err := archive.readDirectory(); err != nil {
		return nil, &formats.FormatError{Format: "GRP", Err: fmt.Errorf("reading directory: %w", err)}
	}

	return archive, nil
}

// Close closes the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if a.size < headerSize {
		return ErrTruncatedGRPData
	}

	buf := make([]byte, headerSize)
	if _, err := a.r.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedGRPData, err)
	}

	sig := decodeName(buf[:nameSize])
	if sig != Signature {
		return fmt.Errorf("%w: got %q", ErrInvalidSignature, sig)
	}

	a.header = Header{
		Signature: sig,
		LumpCount: int32(binary.LittleEndian.Uint32(buf[nameSize:])),
	}
	if a.header.LumpCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLumpCount, a.header.LumpCount)
	}

	return nil
}

func (a *Archive) readDirectory() error {
	count := int64(a.header.LumpCount)
	dirEnd := headerSize + count*entrySize
	if dirEnd > a.size {
		return fmt.Errorf("%w: directory of %d entries exceeds file size", ErrTruncatedGRPData, count)
	}

	table := make([]byte, count*entrySize)
	if _, err := a.r.ReadAt(table, headerSize); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedGRPData, err)
	}

	a.entries = make([]*Entry, 0, count)
	offset := dirEnd
	for i := int64(0); i < count; i++ {
		raw := table[i*entrySize : (i+1)*entrySize]
		entry := &Entry{
			Name:   normalizeName(decodeName(raw[:nameSize])),
			Size:   int32(binary.LittleEndian.Uint32(raw[nameSize:])),
			Offset: offset,
		}
		if entry.Size < 0 {
			return fmt.Errorf("%w: lump %q has negative size %d", ErrInvalidLumpCount, entry.Name, entry.Size)
		}
		offset += int64(entry.Size)
		if offset > a.size {
			return fmt.Errorf("%w: lump %q extends past end of archive", ErrTruncatedGRPData, entry.Name)
		}

		a.entries = append(a.entries, entry)
		// First occurrence wins, matching directory-order lookup.
		if _, dup := a.index[entry.Name]; !dup {
			a.index[entry.Name] = entry
		}
	}

	return nil
}

// Header returns the parsed archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Lumps returns the directory entries in on-disk order.
func (a *Archive) Lumps() []*Entry {
	return a.entries
}

// List returns all lump names in directory order.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		result = append(result, e.Name)
	}
	return result
}

// ByExtension returns the names of all lumps with the given extension
// (e.g. ".ART"), in directory order.
func (a *Archive) ByExtension(ext string) []string {
	ext = strings.ToUpper(ext)
	var result []string
	for _, e := range a.entries {
		if filepath.Ext(e.Name) == ext {
			result = append(result, e.Name)
		}
	}
	return result
}

// Contains checks if a lump exists.
func (a *Archive) Contains(name string) bool {
	_, ok := a.index[normalizeName(name)]
	return ok
}

// Read reads a lump's payload from the archive.
func (a *Archive) Read(name string) ([]byte, error) {
	entry, ok := a.index[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLumpNotFound, name)
	}

	data := make([]byte, entry.Size)
	if _, err := a.r.ReadAt(data, entry.Offset); err != nil && !(errors.Is(err, io.EOF) && entry.Size == 0) {
		return nil, fmt.Errorf("%w: reading lump %s: %v", ErrTruncatedGRPData, name, err)
	}
	return data, nil
}

// decodeName converts a fixed-size, NUL-padded DOS name to UTF-8.
func decodeName(raw []byte) string {
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return strings.TrimRight(string(decoded), " ")
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
