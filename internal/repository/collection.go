package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when creating a key that is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// collection serialises read-modify-write cycles on one named collection.
// The gateway has no transactions, so every writer of a collection must go
// through the same collection value.
type collection[T any] struct {
	gw   persistence.Gateway
	name string
	mu   sync.Mutex
}

func newCollection[T any](gw persistence.Gateway, name string) *collection[T] {
	return &collection[T]{gw: gw, name: name}
}

func (c *collection[T]) load(ctx context.Context) (map[string]T, error) {
	records := make(map[string]T)
	if err := persistence.LoadInto(ctx, c.gw, c.name, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// read returns a snapshot of the whole collection.
func (c *collection[T]) read(ctx context.Context) (map[string]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// update loads the collection, applies fn and saves the result. Nothing is
// written when fn fails.
func (c *collection[T]) update(ctx context.Context, fn func(records map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(records); err != nil {
		return err
	}
	return persistence.SaveFrom(ctx, c.gw, c.name, records)
}
