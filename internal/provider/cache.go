package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stratlab/stratlab/internal/core"
)

// Cache is a bounded TTL caching decorator around a BarSeriesProvider.
// It is an explicit, injected collaborator so the simulation loop stays
// free of hidden shared state.
type Cache struct {
	next    BarSeriesProvider
	ttl     time.Duration
	maxSize int

	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string // Track insertion order for eviction
}

type cacheEntry struct {
	bars      []core.Bar
	fetchedAt time.Time
}

// NewCache wraps next with a cache of at most maxSize entries, each valid
// for ttl.
func NewCache(next BarSeriesProvider, maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
		order:   make([]string, 0, maxSize),
	}
}

// GetBars returns cached bars when fresh, otherwise delegates to the
// wrapped provider and stores the result.
func (c *Cache) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	key := fmt.Sprintf("%s|%s|%s", symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Since(e.fetchedAt) < c.ttl {
		bars := copyBars(e.bars)
		c.mu.Unlock()
		return bars, nil
	}
	c.mu.Unlock()

	bars, err := c.next.GetBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		// Evict oldest if at capacity
		if len(c.entries) >= c.maxSize && len(c.order) > 0 {
			oldest := c.order[0]
			delete(c.entries, oldest)
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{bars: copyBars(bars), fetchedAt: time.Now()}

	return bars, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func copyBars(bars []core.Bar) []core.Bar {
	out := make([]core.Bar, len(bars))
	copy(out, bars)
	return out
}
