package imaging

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"sketchdataset/internal/core/domain"
)

// DefaultCacheSize is the number of decoded rasters kept in memory.
const DefaultCacheSize = 128

// LoaderFunc decodes the image at path.
type LoaderFunc func(path string) (*Raster, error)

// Cache is a bounded least-recently-used map from path to decoded raster.
// A path is decoded at most once while it stays cached.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *Raster]
	load    LoaderFunc
	decodes int
}

// NewCache creates a cache holding up to size rasters, decoded with Load.
func NewCache(size int) (*Cache, error) {
	return NewCacheWithLoader(size, Load)
}

// NewCacheWithLoader creates a cache that decodes misses with load.
func NewCacheWithLoader(size int, load LoaderFunc) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be > 0, got %d", domain.ErrInvalidInput, size)
	}
	entries, err := lru.New[string, *Raster](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	return &Cache{entries: entries, load: load}, nil
}

// Get returns the raster for path, decoding it on a miss.
// The miss path holds the lock so concurrent callers never decode twice.
func (c *Cache) Get(path string) (*Raster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.entries.Get(path); ok {
		return r, nil
	}

	r, err := c.load(path)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, path, err)
	}
	c.decodes++
	c.entries.Add(path, r)
	return r, nil
}

// Decodes returns how many times the loader has been invoked successfully.
func (c *Cache) Decodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decodes
}

// Len returns the number of cached rasters.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached raster.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}
