package repository

import (
	"context"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// DiscountRepository encapsulates the discount code registry.
type DiscountRepository interface {
	Get(ctx context.Context, code string) (*domain.DiscountRecord, error)
	Create(ctx context.Context, code string, record domain.DiscountRecord) error
	// Update applies fn to the stored record under the registry lock and
	// persists it when fn succeeds.
	Update(ctx context.Context, code string, fn func(record *domain.DiscountRecord) error) (*domain.DiscountRecord, error)
}

type discountRepository struct {
	discounts *collection[domain.DiscountRecord]
}

// NewDiscountRepository instantiates repository.
func NewDiscountRepository(gw persistence.Gateway) DiscountRepository {
	return &discountRepository{discounts: newCollection[domain.DiscountRecord](gw, persistence.CollectionDiscounts)}
}

func (r *discountRepository) Get(ctx context.Context, code string) (*domain.DiscountRecord, error) {
	records, err := r.discounts.read(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := records[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *discountRepository) Create(ctx context.Context, code string, record domain.DiscountRecord) error {
	return r.discounts.update(ctx, func(records map[string]domain.DiscountRecord) error {
		if _, exists := records[code]; exists {
			return ErrAlreadyExists
		}
		records[code] = record
		return nil
	})
}

func (r *discountRepository) Update(ctx context.Context, code string, fn func(record *domain.DiscountRecord) error) (*domain.DiscountRecord, error) {
	var updated domain.DiscountRecord
	err := r.discounts.update(ctx, func(records map[string]domain.DiscountRecord) error {
		rec, ok := records[code]
		if !ok {
			return ErrNotFound
		}
		if err := fn(&rec); err != nil {
			return err
		}
		records[code] = rec
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
