package store

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// collection is a mutex-guarded entity list with the loading and error
// state of the store that owns it. Reads return copies.
type collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	id      func(T) uuid.UUID
	sort    func([]T) // nil keeps insertion order
	loading int
	err     error
}

func newCollection[T any](id func(T) uuid.UUID, sort func([]T)) *collection[T] {
	return &collection[T]{items: []T{}, id: id, sort: sort}
}

// begin marks an action as running. The returned func ends it and records
// the action's error, nil included.
func (c *collection[T]) begin() func(*error) {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()

	return func(errp *error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading--
		c.err = *errp
	}
}

func (c *collection[T]) isLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading > 0
}

func (c *collection[T]) lastErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *collection[T]) replace(items []T) {
	items = slices.Clone(items)
	if items == nil {
		items = []T{}
	}
	if c.sort != nil {
		c.sort(items)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *collection[T]) get(id uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// insert prepends item, or replaces the entry with the same id so a
// realtime echo of a local create does not duplicate it.
func (c *collection[T]) insert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(c.id(item)); i >= 0 {
		c.items[i] = item
	} else {
		c.items = slices.Insert(c.items, 0, item)
	}
	if c.sort != nil {
		c.sort(c.items)
	}
}

// update replaces the entry with the same id in place. It reports false
// when no such entry exists.
func (c *collection[T]) update(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(c.id(item))
	if i < 0 {
		return false
	}
	c.items[i] = item
	if c.sort != nil {
		c.sort(c.items)
	}
	return true
}

func (c *collection[T]) remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// index must be called with mu held.
func (c *collection[T]) index(id uuid.UUID) int {
	return slices.IndexFunc(c.items, func(item T) bool { return c.id(item) == id })
}
