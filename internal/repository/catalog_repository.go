package repository

import (
	"context"
	"sort"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// CatalogRepository encapsulates product persistence.
type CatalogRepository interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Put(ctx context.Context, product domain.Product) error
	DecrementStock(ctx context.Context, items []domain.OrderItem) error
}

type catalogRepository struct {
	products *collection[domain.Product]
}

// NewCatalogRepository instantiates repository.
func NewCatalogRepository(gw persistence.Gateway) CatalogRepository {
	return &catalogRepository{products: newCollection[domain.Product](gw, persistence.CollectionProducts)}
}

func (r *catalogRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	records, err := r.products.read(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := records[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.ID = id
	return &p, nil
}

// List returns every product ordered by id.
func (r *catalogRepository) List(ctx context.Context) ([]domain.Product, error) {
	records, err := r.products.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(records))
	for id, p := range records {
		p.ID = id
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *catalogRepository) Put(ctx context.Context, product domain.Product) error {
	return r.products.update(ctx, func(records map[string]domain.Product) error {
		records[product.ID] = product
		return nil
	})
}

// DecrementStock takes delivered quantities out of finite stock. Products
// that were removed from the catalog since the order was placed are skipped.
func (r *catalogRepository) DecrementStock(ctx context.Context, items []domain.OrderItem) error {
	return r.products.update(ctx, func(records map[string]domain.Product) error {
		for _, item := range items {
			p, ok := records[item.ProductID]
			if !ok {
				continue
			}
			p.Stock = p.Stock.Take(item.Quantity)
			records[item.ProductID] = p
		}
		return nil
	})
}
