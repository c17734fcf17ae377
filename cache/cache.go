// Package cache keeps a working set of task records keyed by UUID, tracking
// which ones the application has modified so bulk operations reach the
// external tool in a single save. The tool itself stays behind the Source
// interface, implemented by the embedding application.
package cache

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/maralorn/taskhook/task"
	"github.com/maralorn/taskhook/types"
)

// Source is the bridge to the external tool (or a stand-in for it). Query
// returns every task not in one of the ignored states; Save hands modified
// tasks back for import.
type Source interface {
	Query(ignore []task.Status) ([]task.Task, error)
	Save(tasks []task.Task) error
}

type entry struct {
	t     task.Task
	dirty bool
}

// Cache is a UUID-keyed task cache. Tasks enter clean via Load and become
// dirty through Set or Update; Write saves only the dirty ones. Ignored
// states are not requested on Load, which helps when completed and deleted
// tasks are irrelevant. Note a cached task may still drift into an ignored
// state before Write, and is saved regardless.
type Cache struct {
	source  Source
	ignore  []task.Status
	entries map[uuid.UUID]*entry
}

// New creates a cache over src that ignores the given states on Load.
func New(src Source, ignore ...task.Status) *Cache {
	return &Cache{
		source:  src,
		ignore:  ignore,
		entries: make(map[uuid.UUID]*entry),
	}
}

// NewDefault creates a cache ignoring completed and deleted tasks, the usual
// working set.
func NewDefault(src Source) *Cache {
	return New(src, task.StatusCompleted, task.StatusDeleted)
}

// Ignore returns the states this cache skips on Load.
func (c *Cache) Ignore() []task.Status {
	out := make([]task.Status, len(c.ignore))
	copy(out, c.ignore)
	return out
}

// Load fills the cache from the source, replacing its contents. It fails
// with dirty-cache while unsaved changes exist; call Write or Reset first.
func (c *Cache) Load() error {
	for _, e := range c.entries {
		if e.dirty {
			return &types.CacheError{
				Code:    types.CodeDirtyCache,
				Message: "unsaved changes would be lost; write or reset the cache first",
			}
		}
	}
	tasks, err := c.source.Query(c.Ignore())
	if err != nil {
		return err
	}
	fresh := make(map[uuid.UUID]*entry, len(tasks))
	for _, t := range tasks {
		if t.UUID == nil {
			return fmt.Errorf("source returned task %q without a uuid", t.Description)
		}
		fresh[*t.UUID] = &entry{t: t}
	}
	c.entries = fresh
	return nil
}

// Reset clears the cache, discarding unsaved changes.
func (c *Cache) Reset() {
	c.entries = make(map[uuid.UUID]*entry)
}

// Write saves all dirty entries to the source and marks them clean. A fully
// clean cache writes nothing.
func (c *Cache) Write() error {
	var dirty []*entry
	for _, e := range c.entries {
		if e.dirty {
			dirty = append(dirty, e)
		}
	}
	if len(dirty) == 0 {
		return nil
	}
	sort.Slice(dirty, func(i, j int) bool {
		return dirty[i].t.UUID.String() < dirty[j].t.UUID.String()
	})
	tasks := make([]task.Task, len(dirty))
	for i, e := range dirty {
		tasks[i] = e.t
	}
	if err := c.source.Save(tasks); err != nil {
		return err
	}
	for _, e := range dirty {
		e.dirty = false
	}
	return nil
}

// Refresh writes pending changes and reloads. Needed not only for out of
// band changes in the tool but because modifying one task can change the
// state of another (recurrence, dependencies).
func (c *Cache) Refresh() error {
	if err := c.Write(); err != nil {
		return err
	}
	return c.Load()
}

// Get returns a copy of the cached task with the given uuid.
func (c *Cache) Get(id uuid.UUID) (task.Task, bool) {
	e, ok := c.entries[id]
	if !ok {
		return task.Task{}, false
	}
	return e.t, true
}

// Set puts a task into the cache, marked dirty for the next Write. The task
// must carry a uuid.
func (c *Cache) Set(t task.Task) error {
	if t.UUID == nil {
		return &types.CacheError{
			Code:    types.CodeMissingUUID,
			Message: "cannot cache a task without a uuid",
		}
	}
	c.entries[*t.UUID] = &entry{t: t, dirty: true}
	return nil
}

// Update applies fn to the cached task with the given uuid and marks it
// dirty. It fails with cache-miss when the task is not cached.
func (c *Cache) Update(id uuid.UUID, fn func(*task.Task)) error {
	e, ok := c.entries[id]
	if !ok {
		return &types.CacheError{
			Code:    types.CodeCacheMiss,
			Message: fmt.Sprintf("task %s is not in the cache", id),
		}
	}
	fn(&e.t)
	e.dirty = true
	return nil
}

// Tasks returns copies of all cached tasks, ordered by uuid for determinism.
func (c *Cache) Tasks() []task.Task {
	out := make([]task.Task, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UUID.String() < out[j].UUID.String()
	})
	return out
}
