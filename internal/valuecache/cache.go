// Package valuecache holds resolved column values keyed by item
// identity and property key.
package valuecache

import (
	"sync"

	"shellview/internal/shell"
)

// Key identifies one cached value.
type Key struct {
	ID   shell.Identity
	Prop shell.PropertyKey
}

// Cache is append-only within a folder session. TryAdd is an atomic
// check-then-insert so racing workers store at most one value per key.
type Cache struct {
	mu sync.RWMutex
	m  map[Key]any
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{m: make(map[Key]any)}
}

// Get returns the value for (id, prop).
func (c *Cache) Get(id shell.Identity, prop shell.PropertyKey) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[Key{ID: id, Prop: prop}]
	return v, ok
}

// Has reports whether (id, prop) is cached.
func (c *Cache) Has(id shell.Identity, prop shell.PropertyKey) bool {
	_, ok := c.Get(id, prop)
	return ok
}

// TryAdd stores v unless a value already exists. It reports whether
// this call inserted.
func (c *Cache) TryAdd(id shell.Identity, prop shell.PropertyKey, v any) bool {
	k := Key{ID: id, Prop: prop}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[k]; exists {
		return false
	}
	c.m[k] = v
	return true
}

// Forget drops every value of one item. Used when an item changes in
// place and its values must be resolved again.
func (c *Cache) Forget(id shell.Identity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.m {
		if k.ID == id {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Clear drops everything; called on navigation.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[Key]any)
	c.mu.Unlock()
}

// Len returns the number of cached values.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// CountFor returns how many values are cached for id.
func (c *Cache) CountFor(id shell.Identity) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for k := range c.m {
		if k.ID == id {
			n++
		}
	}
	return n
}
