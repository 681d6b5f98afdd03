package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

func TestCatalogRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCatalogRepository(persistence.NewMemoryGateway())

	require.NoError(t, repo.Put(ctx, domain.Product{ID: "B", Name: "Beta", Price: 5, Stock: domain.FiniteStock(3)}))
	require.NoError(t, repo.Put(ctx, domain.Product{ID: "A", Name: "Alpha", Price: 10, Stock: domain.UnlimitedStock()}))

	p, err := repo.Get(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "B", p.ID)
	assert.Equal(t, 3, p.Stock.Count())

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].ID)

	require.NoError(t, repo.DecrementStock(ctx, []domain.OrderItem{
		{ProductID: "A", Quantity: 4},
		{ProductID: "B", Quantity: 5},
		{ProductID: "gone", Quantity: 1},
	}))
	a, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, a.Stock.Unlimited())
	b, err := repo.Get(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Stock.Count())
}

func TestCounterRepositoryIsMonotonicUnderContention(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCounterRepository(persistence.NewMemoryGateway())

	const workers = 20
	seen := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.Next(ctx, "last_order_number")
			assert.NoError(t, err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int]bool)
	for n := range seen {
		assert.False(t, unique[n], "duplicate counter value %d", n)
		unique[n] = true
	}
	current, err := repo.Current(ctx, "last_order_number")
	require.NoError(t, err)
	assert.Equal(t, workers, current)
}

func TestOrderRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewOrderRepository(persistence.NewMemoryGateway())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.Order{ID: "ORD0001", BuyerID: "u1", Status: domain.OrderStatusDelivered, Timestamp: base}))
	require.NoError(t, repo.Create(ctx, &domain.Order{ID: "ORD0002", BuyerID: "u1", Status: domain.OrderStatusPendingPayment, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.Order{ID: "ORD0003", BuyerID: "u2", Status: domain.OrderStatusPendingPayment, Timestamp: base.Add(2 * time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.Order{ID: "ORD0001"}), ErrAlreadyExists)

	mine, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "ORD0002", mine[0].ID)

	delivered, err := repo.HasDelivered(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, delivered)
	delivered, err = repo.HasDelivered(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, delivered)

	updated, err := repo.Update(ctx, "ORD0003", func(o *domain.Order) error {
		return o.Transition(domain.OrderStatusPaymentReceived)
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentReceived, updated.Status)

	_, err = repo.Update(ctx, "ORD0003", func(o *domain.Order) error {
		return o.Transition(domain.OrderStatusCancelledByUser)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	stored, err := repo.Get(ctx, "ORD0003")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentReceived, stored.Status)

	_, err = repo.Update(ctx, "nope", func(*domain.Order) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscountRepositoryUpdateIsAllOrNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDiscountRepository(persistence.NewMemoryGateway())
	require.NoError(t, repo.Create(ctx, "SAVE5", domain.DiscountRecord{Type: domain.DiscountKindPromo, Amount: 5, MaxUses: domain.LimitUses(2)}))
	assert.ErrorIs(t, repo.Create(ctx, "SAVE5", domain.DiscountRecord{}), ErrAlreadyExists)

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "SAVE5", func(r *domain.DiscountRecord) error {
		r.Uses = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := repo.Get(ctx, "SAVE5")
	require.NoError(t, err)
	assert.Zero(t, rec.Uses)
	assert.Equal(t, 2, rec.MaxUses.Max())
}

func TestDiscountRepositoryReadsLegacyUseLimits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := persistence.NewMemoryGateway()
	legacy := `{
  "SUMMER": {"type": "promo", "discount_inr": 25.0, "max_uses": Infinity, "uses": 3, "is_active": true},
  "SPRING": {"type": "promo", "discount_inr": 10.0, "max_uses": 5.0, "uses": 1},
  "WINTER": {"type": "promo", "discount_inr": 5, "max_uses": 0}
}`
	require.NoError(t, gw.Save(ctx, persistence.CollectionDiscounts, []byte(legacy)))
	repo := NewDiscountRepository(gw)

	summer, err := repo.Get(ctx, "SUMMER")
	require.NoError(t, err)
	assert.True(t, summer.MaxUses.Unlimited())
	assert.Equal(t, 3, summer.Uses)

	spring, err := repo.Get(ctx, "SPRING")
	require.NoError(t, err)
	assert.Equal(t, 5, spring.MaxUses.Max())

	winter, err := repo.Get(ctx, "WINTER")
	require.NoError(t, err)
	assert.True(t, winter.MaxUses.Unlimited())

	_, err = repo.Update(ctx, "SUMMER", func(r *domain.DiscountRecord) error {
		r.Uses++
		return nil
	})
	require.NoError(t, err)
	summer, err = repo.Get(ctx, "SUMMER")
	require.NoError(t, err)
	assert.True(t, summer.MaxUses.Unlimited())
	assert.Equal(t, 4, summer.Uses)
}

func TestReferralRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewReferralRepository(persistence.NewMemoryGateway())
	require.NoError(t, repo.Create(ctx, "REF-0001", "alice"))
	assert.ErrorIs(t, repo.Create(ctx, "REF-0001", "bob"), ErrAlreadyExists)

	who, err := repo.Referrer(ctx, "REF-0001")
	require.NoError(t, err)
	assert.Equal(t, "alice", who)

	code, err := repo.CodeFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "REF-0001", code)

	_, err = repo.CodeFor(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReferralRepositoryEnsureIssuesOneCodePerReferrer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewReferralRepository(persistence.NewMemoryGateway())

	var (
		mu    sync.Mutex
		mints int
		wg    sync.WaitGroup
	)
	codes := make([]string, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, _, err := repo.Ensure(ctx, "alice", func() (string, error) {
				mu.Lock()
				defer mu.Unlock()
				mints++
				return "REF-0001", nil
			})
			assert.NoError(t, err)
			codes[i] = code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, mints)
	for _, code := range codes {
		assert.Equal(t, "REF-0001", code)
	}

	code, created, err := repo.Ensure(ctx, "alice", func() (string, error) { return "REF-9999", nil })
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "REF-0001", code)

	_, _, err = repo.Ensure(ctx, "bob", func() (string, error) { return "REF-0001", nil })
	assert.ErrorIs(t, err, ErrAlreadyExists)

	boom := errors.New("boom")
	_, _, err = repo.Ensure(ctx, "carol", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, err = repo.CodeFor(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoyaltyRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewLoyaltyRepository(persistence.NewMemoryGateway())

	bal, err := repo.AddPoints(ctx, "u1", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, bal)
	_, err = repo.AddPoints(ctx, "u2", 30)
	require.NoError(t, err)

	_, err = repo.Spend(ctx, "u2", 100)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	bal, err = repo.Spend(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, 20, bal)

	top, err := repo.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, Member{UserID: "u2", Points: 30}, top[0])

	bal, err = repo.Adjust(ctx, "u2", -50)
	require.NoError(t, err)
	assert.Zero(t, bal)
	bal, err = repo.Adjust(ctx, "u3", 15)
	require.NoError(t, err)
	assert.Equal(t, 15, bal)
}
