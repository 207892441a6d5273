package sourcing

import (
	"sync"

	"github.com/partforge/partforge/internal/model"
)

// Cache remembers previously sourced parts within one build request so
// unchanged categories are not re-sourced across iterations. It is
// passed explicitly into the engine; there is no ambient global cache.
type Cache struct {
	mu    sync.Mutex
	parts map[string]model.Part
}

// NewCache constructs an empty per-build cache.
func NewCache() *Cache {
	return &Cache{parts: make(map[string]model.Part)}
}

func cacheKey(c model.Category, query string) string {
	return string(c) + "\x00" + query
}

// Get returns the cached part for an identical (category, query) pair.
func (c *Cache) Get(category model.Category, query string) (model.Part, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.parts[cacheKey(category, query)]
	return p, ok
}

// Put stores a successfully sourced part.
func (c *Cache) Put(category model.Category, query string, p model.Part) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts[cacheKey(category, query)] = p
}
