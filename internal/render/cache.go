package render

import (
	"fmt"
	"sync/atomic"
)

// cacheEntry is immutable once stored; entries are replaced, never edited.
type cacheEntry struct {
	config Config
	grid   string
}

// Cache is the lazy strategy: frames render on first access and are memoized
// together with the config they were rendered under.
//
// Changing the config only swaps the current-config pointer. An entry whose
// stored config differs from the current one is treated as absent and
// re-rendered on its next access; nothing is swept, so entries for configs
// that are no longer current stay in memory until overwritten.
type Cache struct {
	frames  []Frame
	config  atomic.Pointer[Config]
	entries []atomic.Pointer[cacheEntry]

	render func(Frame, Config) (string, error)
}

// NewCache creates an empty cache over frames.
func NewCache(frames []Frame, c Config) (*Cache, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cache := &Cache{
		frames:  frames,
		entries: make([]atomic.Pointer[cacheEntry], len(frames)),
		render:  RenderConfig,
	}
	cache.config.Store(&c)
	return cache, nil
}

// Frame returns the grid for frame i under the current config, rendering it
// if the stored entry is missing or stale. A failed render leaves the entry
// as it was.
func (c *Cache) Frame(i int) (string, error) {
	if i < 0 || i >= len(c.frames) {
		return "", fmt.Errorf("%w: %d of %d", ErrFrameIndex, i, len(c.frames))
	}
	cfg := *c.config.Load()
	if e := c.entries[i].Load(); e != nil && e.config == cfg {
		return e.grid, nil
	}
	grid, err := c.render(c.frames[i], cfg)
	if err != nil {
		return "", fmt.Errorf("rendering frame %d: %w", i, err)
	}
	c.entries[i].Store(&cacheEntry{config: cfg, grid: grid})
	return grid, nil
}

// SetConfig makes c current. It costs the same regardless of frame count.
func (c *Cache) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.config.Store(&cfg)
	return nil
}

// Config returns the current config.
func (c *Cache) Config() Config { return *c.config.Load() }

// Len returns the number of frames.
func (c *Cache) Len() int { return len(c.frames) }

// Strategy reports StrategyLazy.
func (c *Cache) Strategy() Strategy { return StrategyLazy }

// Resident counts entries that are valid under the current config.
func (c *Cache) Resident() int {
	cfg := *c.config.Load()
	n := 0
	for i := range c.entries {
		if e := c.entries[i].Load(); e != nil && e.config == cfg {
			n++
		}
	}
	return n
}
