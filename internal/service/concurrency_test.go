package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-tickets/internal/domain"
)

func TestConcurrentAddItemRespectsStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, f.catalog.Put(f.ctx, domain.Product{ID: "S", Name: "Single", Price: 7, Stock: domain.FiniteStock(1)}))
	f.openBuy(t, "t-1", buyer)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exceeded  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tickets.AddItem(f.ctx, "t-1", buyer, "S")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case statusOf(err) == 422:
				assert.ErrorIs(t, err, domain.ErrStockExceeded)
				exceeded++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, exceeded)
	ticket, err := f.tickets.GetTicket(f.ctx, "t-1", buyer)
	require.NoError(t, err)
	require.Len(t, ticket.Cart, 1)
	assert.Equal(t, 1, ticket.Cart[0].Quantity)
}

func TestConcurrentConfirmAllocatesDistinctOrderIDs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	const n = 30
	buyers := make([]domain.Actor, n)
	for i := range buyers {
		buyers[i] = domain.Actor{ID: fmt.Sprintf("buyer-%02d", i)}
		id := fmt.Sprintf("t-%02d", i)
		f.openBuy(t, id, buyers[i])
		f.add(t, id, buyers[i], "B")
	}

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.tickets.Confirm(f.ctx, fmt.Sprintf("t-%02d", i), buyers[i])
			if assert.NoError(t, err) {
				ids[i] = result.Order.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "order id %s allocated twice", id)
		seen[id] = true
	}
	last, err := f.counters.Current(f.ctx, commerceConfig().OrderCounterName)
	require.NoError(t, err)
	assert.Equal(t, n, last)
	stored, err := f.orders.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, stored, n)
	assert.Len(t, f.presenter.requests, n)
}

func TestConcurrentApplyCodeHonorsUseLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.promo(t, "ONCE", domain.DiscountRecord{Amount: 4, MaxUses: domain.LimitUses(1)})
	const n = 30
	buyers := make([]domain.Actor, n)
	for i := range buyers {
		buyers[i] = domain.Actor{ID: fmt.Sprintf("buyer-%02d", i)}
		id := fmt.Sprintf("t-%02d", i)
		f.openBuy(t, id, buyers[i])
		f.add(t, id, buyers[i], "B")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.tickets.ApplyCode(f.ctx, fmt.Sprintf("t-%02d", i), buyers[i], "ONCE")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrPromoExhausted)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	rec, err := f.discounts.Get(f.ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Uses)

	discounted := 0
	for i := 0; i < n; i++ {
		ticket, err := f.tickets.GetTicket(f.ctx, fmt.Sprintf("t-%02d", i), buyers[i])
		require.NoError(t, err)
		if ticket.Discount > 0 {
			discounted++
		}
	}
	assert.Equal(t, 1, discounted)
}

func TestConcurrentReferralCodeIssuesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	codes := make([]string, 20)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := f.loyaltySvc.ReferralCode(f.ctx, other.ID)
			assert.NoError(t, err)
			codes[i] = code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, "REF-0001", code)
	}
	last, err := f.counters.Current(f.ctx, "last_referral_number")
	require.NoError(t, err)
	assert.Equal(t, 1, last)
}
