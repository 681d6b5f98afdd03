package repository

import (
	"context"
	"sort"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// OrderRepository encapsulates the order ledger.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Update applies fn to the stored order and persists it when fn succeeds.
	Update(ctx context.Context, id string, fn func(order *domain.Order) error) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	HasDelivered(ctx context.Context, userID string) (bool, error)
}

type orderRepository struct {
	orders *collection[domain.Order]
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(gw persistence.Gateway) OrderRepository {
	return &orderRepository{orders: newCollection[domain.Order](gw, persistence.CollectionOrders)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.orders.update(ctx, func(records map[string]domain.Order) error {
		if _, exists := records[order.ID]; exists {
			return ErrAlreadyExists
		}
		records[order.ID] = *order
		return nil
	})
}

func (r *orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	records, err := r.orders.read(ctx)
	if err != nil {
		return nil, err
	}
	o, ok := records[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.ID = id
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, id string, fn func(order *domain.Order) error) (*domain.Order, error) {
	var updated domain.Order
	err := r.orders.update(ctx, func(records map[string]domain.Order) error {
		o, ok := records[id]
		if !ok {
			return ErrNotFound
		}
		o.ID = id
		if err := fn(&o); err != nil {
			return err
		}
		records[id] = o
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns every order, newest first.
func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.filter(ctx, func(domain.Order) bool { return true })
}

// ListByUser returns the orders bought by userID, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.filter(ctx, func(o domain.Order) bool { return o.BuyerID == userID })
}

func (r *orderRepository) HasDelivered(ctx context.Context, userID string) (bool, error) {
	orders, err := r.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelivered {
			return true, nil
		}
	}
	return false, nil
}

func (r *orderRepository) filter(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	records, err := r.orders.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0)
	for id, o := range records {
		o.ID = id
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
