package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
)

// Lister fetches the authoritative task list.
type Lister interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
}

// Collection is the ordered, in-memory list of the current user's tasks. It
// mirrors the remote service and is only mutated after a remote call succeeded.
type Collection struct {
	mu     sync.RWMutex
	tasks  []models.Task
	loaded bool
	// generation is bumped by Reset so results of calls started before a logout are discarded.
	generation uint64

	source Lister
	loads  singleflight.Group
	logger *slog.Logger
}

// NewCollection creates an empty collection backed by source.
func NewCollection(source Lister, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Collection{source: source, logger: logger}
}

// Load replaces the whole collection with the remote list. On error the
// collection is left as it was. Concurrent calls share one remote request,
// which is not bound to any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *Collection) Load(ctx context.Context) error {
	gen := c.currentGeneration()

	ch := c.loads.DoChan("load", func() (any, error) {
		tasks, err := c.source.ListTasks(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			c.logger.Debug("discarding task list loaded before reset")
			return nil, nil
		}
		c.tasks = slices.Clone(tasks)
		c.loaded = true
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("load tasks: %w: %w", apperr.ErrNetwork, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		c.logger.Debug("tasks loaded", slog.Int("count", c.Len()), slog.Bool("shared", res.Shared))
		return nil
	}
}

// Add appends task. A task whose ID is already present replaces the existing
// element in place so identifiers stay unique.
func (c *Collection) Add(task models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(task)
}

// Replace substitutes the element with task.ID. It reports false and changes
// nothing when no element matches.
func (c *Collection) Replace(task models.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceLocked(task)
}

// Remove drops the element with id. It reports false when none matches.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Collection) addLocked(task models.Task) {
	if i := c.indexLocked(task.ID); i >= 0 {
		c.tasks[i] = task
		return
	}
	c.tasks = append(c.tasks, task)
}

func (c *Collection) replaceLocked(task models.Task) bool {
	i := c.indexLocked(task.ID)
	if i < 0 {
		return false
	}
	c.tasks[i] = task
	return true
}

func (c *Collection) removeLocked(id string) bool {
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.tasks = slices.Delete(c.tasks, i, i+1)
	return true
}

func (c *Collection) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// within runs fn under the write lock unless a Reset happened after gen was
// read. It reports whether fn ran.
func (c *Collection) within(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	fn()
	return true
}

// Get returns the element with id.
func (c *Collection) Get(id string) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return c.tasks[i], true
}

// Snapshot returns a copy of the ordered list.
func (c *Collection) Snapshot() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Len returns the number of tasks.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Loaded reports whether a load has completed since the last reset.
func (c *Collection) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Reset empties the collection, e.g. on logout.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = nil
	c.loaded = false
	c.generation++
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
}
