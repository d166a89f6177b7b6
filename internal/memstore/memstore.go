// Package memstore implements the repository interfaces against in-process
// maps. It is the storage backend when no database is configured and the
// fake used by handler and service tests. Records come back in insertion
// order; filters are linear scans with predicate conjunction.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

// collection is a keyed mapping plus insertion order. Values are stored by
// value and copied on the way in and out so callers never share memory with
// the store.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[uuid.UUID]T
	order []uuid.UUID
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[uuid.UUID]T)}
}

func (c *collection[T]) insert(id uuid.UUID, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) get(id uuid.UUID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

// replace overwrites an existing record; it refuses to create one.
func (c *collection[T]) replace(id uuid.UUID, v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		return false
	}
	c.items[id] = v
	return true
}

func (c *collection[T]) list(match func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		v := c.items[id]
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out
}

// NewStore builds a memory-backed repos.Store. When seeded is true the
// store starts with the fixture catalog (challenges, sample vendors and
// solutions); tests generally pass false and create exactly what they need.
func NewStore(log *logger.Logger, seeded bool) (*repos.Store, error) {
	store := &repos.Store{
		Users:        &userRepo{c: newCollection[types.User]()},
		Challenges:   &challengeRepo{c: newCollection[types.Challenge]()},
		Solutions:    &solutionRepo{c: newCollection[types.Solution]()},
		Reviews:      &reviewRepo{c: newCollection[types.Review]()},
		Applications: &applicationRepo{c: newCollection[types.Application]()},
		ChatMessages: &chatMessageRepo{c: newCollection[types.ChatMessage]()},
	}
	if seeded {
		if err := seed(store); err != nil {
			return nil, err
		}
		if log != nil {
			log.Info("In-memory store seeded with fixture data")
		}
	}
	return store, nil
}
