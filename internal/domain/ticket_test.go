package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyTicket() *Ticket {
	return NewTicket("chan-1", "buyer", TicketCategoryBuy, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
}

func TestTicketAddItemRespectsStock(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	p := Product{ID: "A", Name: "Alpha", Price: 10, Stock: FiniteStock(2)}

	require.NoError(t, ticket.AddItem(p))
	require.NoError(t, ticket.AddItem(p))
	for i := 0; i < 3; i++ {
		err := ticket.AddItem(p)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStockExceeded)
	}

	line, ok := ticket.Line("A")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
}

func TestTicketAddItemUnlimitedStock(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	p := Product{ID: "U", Name: "Unlimited", Price: 1, Stock: UnlimitedStock()}
	for i := 0; i < 50; i++ {
		require.NoError(t, ticket.AddItem(p))
	}
	assert.Equal(t, 50, ticket.Quantity())
}

func TestTicketAddItemKeepsFirstPrice(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 10, Stock: UnlimitedStock()}))
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha v2", Price: 12, Stock: UnlimitedStock()}))
	require.NoError(t, ticket.AddItem(Product{ID: "B", Name: "Beta", Price: 3, Stock: UnlimitedStock()}))

	require.Len(t, ticket.Cart, 2)
	assert.Equal(t, CartLine{ProductID: "A", Name: "Alpha", UnitPrice: 10, Quantity: 2}, ticket.Cart[0])
	assert.Equal(t, "B", ticket.Cart[1].ProductID)
	assert.InDelta(t, 23.0, ticket.Subtotal(), 1e-9)
}

func TestTicketCartRules(t *testing.T) {
	t.Parallel()

	p := Product{ID: "A", Name: "Alpha", Price: 10, Stock: UnlimitedStock()}
	cases := []struct {
		name   string
		ticket func() *Ticket
		want   error
	}{
		{
			name: "support ticket has no cart",
			ticket: func() *Ticket {
				return NewTicket("c", "u", TicketCategorySupport, time.Now())
			},
			want: ErrNotBuyTicket,
		},
		{
			name: "locked by order",
			ticket: func() *Ticket {
				tk := buyTicket()
				tk.OrderID = "ORD0001"
				return tk
			},
			want: ErrCartLocked,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tk := tc.ticket()
			assert.ErrorIs(t, tk.AddItem(p), tc.want)
			assert.ErrorIs(t, tk.ApplyDiscount(5, "x", DiscountSource{}, nil), tc.want)
			assert.Empty(t, tk.Cart)
		})
	}
}

func TestTicketRemoveItemDropsEmptyLine(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	p := Product{ID: "A", Name: "Alpha", Price: 10, Stock: UnlimitedStock()}
	require.NoError(t, ticket.AddItem(p))
	require.NoError(t, ticket.AddItem(p))

	require.NoError(t, ticket.RemoveItem("A"))
	line, _ := ticket.Line("A")
	assert.Equal(t, 1, line.Quantity)

	require.NoError(t, ticket.RemoveItem("A"))
	_, ok := ticket.Line("A")
	assert.False(t, ok)
	assert.ErrorIs(t, ticket.RemoveItem("A"), ErrProductNotFound)
}

func TestTicketSecondDiscountRejected(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.ApplyDiscount(5, "Discount Code (SAVE5)", DiscountSource{Kind: DiscountKindPromo, Code: "SAVE5"}, nil))

	err := ticket.ApplyDiscount(7, "Discount Code (MORE)", DiscountSource{Kind: DiscountKindPromo, Code: "MORE"}, nil)
	assert.ErrorIs(t, err, ErrDiscountApplied)
	assert.Equal(t, 5.0, ticket.Discount)
	assert.Equal(t, "Discount Code (SAVE5)", ticket.DiscountReason)
}

func TestTicketNonPositiveDiscountRejected(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	assert.ErrorIs(t, ticket.ApplyDiscount(0, "none", DiscountSource{}, nil), ErrInvalidDiscount)
	assert.Zero(t, ticket.Discount)
}

func TestTicketSummaryTotals(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	p := Product{ID: "A", Name: "Alpha", Price: 10, Stock: FiniteStock(5)}
	require.NoError(t, ticket.AddItem(p))
	require.NoError(t, ticket.AddItem(p))
	require.NoError(t, ticket.ApplyDiscount(5, "Discount Code (SAVE5)", DiscountSource{Kind: DiscountKindPromo, Code: "SAVE5"}, nil))

	s := ticket.Summary()
	assert.InDelta(t, 20.0, s.Subtotal, 1e-9)
	assert.InDelta(t, 5.0, s.Discount, 1e-9)
	assert.InDelta(t, 15.0, s.Total, 1e-9)
	require.Len(t, s.Lines, 1)
	assert.InDelta(t, 20.0, s.Lines[0].Total(), 1e-9)
}

func TestTicketTotalFloorsAtZero(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 3, Stock: UnlimitedStock()}))
	require.NoError(t, ticket.ApplyDiscount(50, "big", DiscountSource{Kind: DiscountKindRedeem, Code: "R"}, nil))
	assert.Zero(t, ticket.Total())
}

func TestTicketValidateStock(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 1, Stock: FiniteStock(3)}))
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 1, Stock: FiniteStock(3)}))

	catalog := map[string]Product{"A": {ID: "A", Name: "Alpha", Stock: FiniteStock(1)}}
	lookup := func(id string) (Product, bool) {
		p, ok := catalog[id]
		return p, ok
	}
	err := ticket.ValidateStock(lookup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Contains(t, err.Error(), "Alpha")

	delete(catalog, "A")
	assert.ErrorIs(t, ticket.ValidateStock(lookup), ErrProductNotFound)

	catalog["A"] = Product{ID: "A", Name: "Alpha", Stock: UnlimitedStock()}
	assert.NoError(t, ticket.ValidateStock(lookup))
}

func TestTicketClearOrderKeepsCart(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 10, Stock: UnlimitedStock()}))
	require.NoError(t, ticket.ApplyDiscount(4, "Referral Discount (Code: REF-X)", DiscountSource{Kind: DiscountKindReferral, Code: "REF-X"}, &ReferralInfo{Code: "REF-X", ReferrerID: "ref"}))
	ticket.GiftRecipientID = "friend"
	ticket.OrderID = "ORD0009"
	before := append([]CartLine(nil), ticket.Cart...)

	ticket.ClearOrder()

	assert.False(t, ticket.Locked())
	assert.Zero(t, ticket.Discount)
	assert.Empty(t, ticket.DiscountReason)
	assert.Nil(t, ticket.Referral)
	assert.Empty(t, ticket.GiftRecipientID)
	assert.Equal(t, before, ticket.Cart)
}

func TestTicketCloneIsIndependent(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	require.NoError(t, ticket.AddItem(Product{ID: "A", Name: "Alpha", Price: 10, Stock: UnlimitedStock()}))
	ticket.Referral = &ReferralInfo{Code: "REF-1", ReferrerID: "r"}

	c := ticket.Clone()
	c.Cart[0].Quantity = 9
	c.Referral.Code = "changed"

	assert.Equal(t, 1, ticket.Cart[0].Quantity)
	assert.Equal(t, "REF-1", ticket.Referral.Code)
}

func TestTicketGiftRecipient(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	assert.ErrorIs(t, ticket.SetGiftRecipient(Actor{ID: "buyer"}), ErrGiftSelf)
	assert.ErrorIs(t, ticket.SetGiftRecipient(Actor{ID: "bot", Bot: true}), ErrGiftBot)
	require.NoError(t, ticket.SetGiftRecipient(Actor{ID: "friend"}))
	assert.Equal(t, "friend", ticket.GiftRecipientID)

	support := NewTicket("c2", "buyer", TicketCategorySupport, time.Now())
	assert.ErrorIs(t, support.SetGiftRecipient(Actor{ID: "friend"}), ErrNotBuyTicket)
}

func TestTicketClaim(t *testing.T) {
	t.Parallel()

	ticket := buyTicket()
	alice := Actor{ID: "alice", Staff: true}
	bob := Actor{ID: "bob", Staff: true}
	owner := Actor{ID: "olga", Owner: true}

	assert.Equal(t, StaffControls{CanClaim: true}, ticket.StaffControls(alice))
	assert.False(t, ticket.StaffControls(Actor{ID: "buyer"}).CanClaim)

	require.NoError(t, ticket.Claim(alice))
	assert.ErrorIs(t, ticket.Claim(bob), ErrAlreadyClaimed)
	assert.Equal(t, StaffControls{ClaimedBy: "alice", CanUnclaim: false}, ticket.StaffControls(bob))
	assert.True(t, ticket.StaffControls(owner).CanUnclaim)

	assert.ErrorIs(t, ticket.Unclaim(bob), ErrNotClaimant)
	assert.Equal(t, "alice", ticket.ClaimedBy)

	require.NoError(t, ticket.Unclaim(owner))
	assert.False(t, ticket.Claimed())
	assert.NoError(t, ticket.Unclaim(bob))
}

func TestParseTicketCategory(t *testing.T) {
	t.Parallel()

	c, err := ParseTicketCategory(" buy ")
	require.NoError(t, err)
	assert.Equal(t, TicketCategoryBuy, c)

	_, err = ParseTicketCategory("refund")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRuleErrorMatchesByCode(t *testing.T) {
	t.Parallel()

	err := ErrStockExceeded.Withf("only %d left", 1)
	assert.True(t, errors.Is(err, ErrStockExceeded))
	assert.False(t, errors.Is(err, ErrProductNotFound))
	assert.Equal(t, "only 1 left", err.Error())
}

func TestStockJSON(t *testing.T) {
	t.Parallel()

	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","price":1,"stock":-1}`), &p))
	assert.True(t, p.Stock.Unlimited())

	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","price":1,"stock":4}`), &p))
	assert.False(t, p.Stock.Unlimited())
	assert.Equal(t, 4, p.Stock.Count())
	assert.Equal(t, 0, p.Stock.Take(9).Count())

	out, err := json.Marshal(UnlimitedStock())
	require.NoError(t, err)
	assert.JSONEq(t, `-1`, string(out))
}
