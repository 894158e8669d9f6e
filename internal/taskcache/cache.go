// Package taskcache holds a user's dashboard view between store refreshes.
package taskcache

import (
	"sync"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// Cache is a mutex-guarded holder of one user's top-level task view.
// Readers always get deep copies, so nothing outside the cache can mutate
// the held slice; writers go through Set or Replace.
type Cache struct {
	mu    sync.Mutex
	tasks []model.Task
	valid bool
}

func New() *Cache {
	return &Cache{}
}

// Get returns a deep copy of the cached view. ok is false when the cache
// was invalidated or never filled; the caller must refresh from the store
// before relying on the view.
func (c *Cache) Get() ([]model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, false
	}
	return model.CloneTasks(c.tasks), true
}

// Set applies update to a deep copy of the current view and stores the
// result atomically. The updater runs under the cache lock and must not
// call back into the cache; its return value becomes the cache's own
// copy, so the caller must not retain it.
func (c *Cache) Set(update func([]model.Task) []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = update(model.CloneTasks(c.tasks))
	c.valid = true
}

// Replace swaps in a fresh view, typically straight from the store.
func (c *Cache) Replace(tasks []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = model.CloneTasks(tasks)
	c.valid = true
}

// Invalidate drops the view; the next Get reports a miss.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = nil
	c.valid = false
}
