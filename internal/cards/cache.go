package cards

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/hanzibot/pkg/models"
)

// Loader fetches the full review event log in insertion order.
type Loader func(ctx context.Context) ([]models.ReviewEvent, error)

// Cache holds the most recently built Store and rebuilds it on demand.
// Invalidate must be called after every append to the event log.
type Cache struct {
	mu      sync.Mutex
	builder *Builder
	load    Loader
	store   *Store
	events  []models.ReviewEvent
}

// NewCache creates an empty cache over the given loader
func NewCache(b *Builder, load Loader) *Cache {
	if b == nil {
		b = NewBuilder()
	}
	return &Cache{builder: b, load: load}
}

// Get returns the cached store, rebuilding it from the loader if needed.
func (c *Cache) Get(ctx context.Context) (*Store, error) {
	store, _, err := c.Snapshot(ctx)
	return store, err
}

// Snapshot returns the cached store together with the events it was built from.
func (c *Cache) Snapshot(ctx context.Context) (*Store, []models.ReviewEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, c.events, nil
	}

	events, err := c.load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load review events: %w", err)
	}
	store, err := c.builder.Build(events)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build cards: %w", err)
	}
	c.store, c.events = store, events
	return store, events, nil
}

// Invalidate drops the cached store
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.store, c.events = nil, nil
	c.mu.Unlock()
}

// Builder returns the builder used for rebuilds
func (c *Cache) Builder() *Builder {
	return c.builder
}
