package repository

import (
	"context"

	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// Counter names shared by every instance.
const (
	CounterReferral = "last_referral_number"
)

// CounterRepository hands out monotonically increasing sequence numbers.
type CounterRepository interface {
	// Next increments name and persists it before returning the new value.
	Next(ctx context.Context, name string) (int, error)
	Current(ctx context.Context, name string) (int, error)
}

type counterRepository struct {
	counters *collection[int]
}

// NewCounterRepository instantiates repository.
func NewCounterRepository(gw persistence.Gateway) CounterRepository {
	return &counterRepository{counters: newCollection[int](gw, persistence.CollectionCounters)}
}

func (r *counterRepository) Next(ctx context.Context, name string) (int, error) {
	var next int
	err := r.counters.update(ctx, func(records map[string]int) error {
		next = records[name] + 1
		records[name] = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *counterRepository) Current(ctx context.Context, name string) (int, error) {
	records, err := r.counters.read(ctx)
	if err != nil {
		return 0, err
	}
	return records[name], nil
}
