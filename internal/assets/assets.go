// Package assets loads game content from GRP archives and assembles it into
// tile atlases, maps and built levels.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/buildgeo/internal/engine/level"
	"github.com/Faultbox/buildgeo/internal/engine/tiles"
	"github.com/Faultbox/buildgeo/pkg/formats"
	"github.com/Faultbox/buildgeo/pkg/grp"
)

// PaletteLump is the lump holding the base palette.
const PaletteLump = "PALETTE.DAT"

// ErrNotFound is returned when no archive holds a lump.
var ErrNotFound = errors.New("asset not found")

type archive struct {
	name string
	grp  *grp.Archive
}

// Manager handles asset loading from GRP archives.
// Archives are searched in reverse order (last added = highest priority).
type Manager struct {
	archives []archive
	cache    *Cache
	atlas    *tiles.Atlas
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new asset manager. A nil logger logs nothing.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// AddArchive opens a GRP archive from disk and adds it to the search path.
func (m *Manager) AddArchive(path string) error {
	a, err := grp.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.add(filepath.Base(path), a)
	return nil
}

// AddArchiveData adds an in-memory GRP archive under the given name.
func (m *Manager) AddArchiveData(name string, data []byte) error {
	a, err := grp.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing archive %s: %w", name, err)
	}
	m.add(name, a)
	return nil
}

func (m *Manager) add(name string, a *grp.Archive) {
	m.mu.Lock()
	m.archives = append(m.archives, archive{name: name, grp: a})
	// A new archive may shadow lumps and tiles.
	m.cache.Clear()
	m.atlas = nil
	m.mu.Unlock()

	m.log.Debug("archive added", zap.String("archive", name), zap.Int("lumps", len(a.Lumps())))
}

// Archives returns the archive names in search-path order.
func (m *Manager) Archives() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.archives))
	for i, a := range m.archives {
		names[i] = a.name
	}
	return names
}

// Load loads a lump from the archives.
func (m *Manager) Load(name string) ([]byte, error) {
	key := cacheKey(name)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		a := m.archives[i]
		if !a.grp.Contains(name) {
			continue
		}
		data, err := a.grp.Read(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", name, a.name, err)
		}
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Exists reports whether any archive holds the lump.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.archives {
		if a.grp.Contains(name) {
			return true
		}
	}
	return false
}

// List returns the distinct lump names across all archives, sorted. An
// optional extension (e.g. ".MAP") filters the result.
func (m *Manager) List(ext string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, a := range m.archives {
		var lumps []string
		if ext != "" {
			lumps = a.grp.ByExtension(ext)
		} else {
			lumps = a.grp.List()
		}
		for _, n := range lumps {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	slices.Sort(names)
	return names
}

// Palette loads and parses the base palette.
func (m *Manager) Palette() (*formats.Palette, error) {
	data, err := m.Load(PaletteLump)
	if err != nil {
		return nil, err
	}
	return formats.ParsePalette(data)
}

// Map loads and parses a level lump.
func (m *Manager) Map(name string) (*formats.Map, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	return formats.ParseMAP(data)
}

// Atlas aggregates every ART lump, in name order, with the base palette.
// The result is built once and reused until the search path changes.
func (m *Manager) Atlas() (*tiles.Atlas, error) {
	m.mu.RLock()
	atlas := m.atlas
	m.mu.RUnlock()
	if atlas != nil {
		return atlas, nil
	}

	pal, err := m.Palette()
	if err != nil {
		return nil, err
	}

	names := m.List(".ART")
	arts := make([]*formats.ART, 0, len(names))
	for _, name := range names {
		data, err := m.Load(name)
		if err != nil {
			return nil, err
		}
		art, err := formats.ParseART(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		arts = append(arts, art)
	}

	atlas = tiles.NewAtlas(arts, pal)
	m.log.Debug("tile atlas built", zap.Int("art_files", len(arts)), zap.Int("tiles", atlas.Len()))

	m.mu.Lock()
	m.atlas = atlas
	m.mu.Unlock()
	return atlas, nil
}

// LoadLevel parses a map and builds its level geometry against the shared
// atlas. A nil opts.Logger inherits the manager's logger.
func (m *Manager) LoadLevel(mapName string, opts level.Options) (*level.Level, error) {
	mp, err := m.Map(mapName)
	if err != nil {
		return nil, err
	}
	atlas, err := m.Atlas()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = m.log
	}
	return level.Load(level.Sources{Name: strings.ToUpper(mapName), Map: mp, Atlas: atlas}, opts)
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int64) {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.archives {
		if err := a.grp.Close(); err != nil {
			m.log.Warn("closing archive", zap.String("archive", a.name), zap.Error(err))
		}
	}
	m.archives = nil
	m.atlas = nil
	m.cache.Clear()
}

func cacheKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Cache is a simple in-memory cache for loaded lumps.
type Cache struct {
	data map[string][]byte
	size int64
	mu   sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.data[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.data[key]; ok {
		c.size -= int64(len(old))
	}
	c.data[key] = data
	c.size += int64(len(data))
}

// Len returns the number of cached items and their total size in bytes.
func (c *Cache) Len() (items int, bytes int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data), c.size
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.size = 0
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
