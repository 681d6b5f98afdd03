package domain

import (
	"strings"
	"time"
)

// TicketCategory selects the sub-flow a ticket runs.
type TicketCategory string

const (
	TicketCategoryBuy     TicketCategory = "BUY"
	TicketCategorySupport TicketCategory = "SUPPORT"
	TicketCategoryGeneral TicketCategory = "GENERAL"
)

// ParseTicketCategory accepts any letter case.
func ParseTicketCategory(raw string) (TicketCategory, error) {
	switch c := TicketCategory(strings.ToUpper(strings.TrimSpace(raw))); c {
	case TicketCategoryBuy, TicketCategorySupport, TicketCategoryGeneral:
		return c, nil
	}
	return "", ErrUnknownCategory.Withf("unknown ticket category %q", raw)
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// ReferralInfo ties a referral discount to the member who gets rewarded on delivery.
type ReferralInfo struct {
	Code       string `json:"code"`
	ReferrerID string `json:"referrer_id"`
}

// Ticket is the per-conversation purchase or support state.
type Ticket struct {
	ID              string
	CreatorID       string
	Category        TicketCategory
	Cart            []CartLine
	Discount        float64
	DiscountReason  string
	DiscountSource  DiscountSource
	Referral        *ReferralInfo
	GiftRecipientID string
	OrderID         string
	ClaimedBy       string
	Status          TicketStatus
	OpenedAt        time.Time
}

// NewTicket returns an open ticket with an empty cart.
func NewTicket(id, creatorID string, category TicketCategory, openedAt time.Time) *Ticket {
	return &Ticket{
		ID:        id,
		CreatorID: creatorID,
		Category:  category,
		Status:    TicketStatusOpen,
		OpenedAt:  openedAt,
	}
}

// Locked reports whether a confirmed order freezes the cart.
func (t *Ticket) Locked() bool {
	return t.OrderID != ""
}

// Line returns the cart line for productID.
func (t *Ticket) Line(productID string) (CartLine, bool) {
	if i := t.lineIndex(productID); i >= 0 {
		return t.Cart[i], true
	}
	return CartLine{}, false
}

func (t *Ticket) lineIndex(productID string) int {
	for i := range t.Cart {
		if t.Cart[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// CanEditCart reports why the cart cannot change, or nil.
func (t *Ticket) CanEditCart() error {
	if t.Category != TicketCategoryBuy {
		return ErrNotBuyTicket
	}
	if t.Locked() {
		return ErrCartLocked
	}
	return nil
}

// AddItem adds one unit of p. A product already in the cart keeps the price
// it was first added at.
func (t *Ticket) AddItem(p Product) error {
	if err := t.CanEditCart(); err != nil {
		return err
	}
	i := t.lineIndex(p.ID)
	inCart := 0
	if i >= 0 {
		inCart = t.Cart[i].Quantity
	}
	if !p.Stock.Covers(inCart + 1) {
		return ErrStockExceeded.Withf("not enough stock for %s: %s available, %d already in your cart", p.Name, p.Stock, inCart)
	}
	if i >= 0 {
		t.Cart[i].Quantity++
		return nil
	}
	t.Cart = append(t.Cart, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
	return nil
}

// RemoveItem takes one unit of productID out of the cart, dropping the line
// when it reaches zero.
func (t *Ticket) RemoveItem(productID string) error {
	if err := t.CanEditCart(); err != nil {
		return err
	}
	i := t.lineIndex(productID)
	if i < 0 {
		return ErrProductNotFound.Withf("product %s is not in your cart", productID)
	}
	t.Cart[i].Quantity--
	if t.Cart[i].Quantity <= 0 {
		t.Cart = append(t.Cart[:i], t.Cart[i+1:]...)
	}
	return nil
}

// CanApplyDiscount checks the preconditions shared by every discount code.
func (t *Ticket) CanApplyDiscount() error {
	if err := t.CanEditCart(); err != nil {
		return err
	}
	if t.Discount > 0 {
		return ErrDiscountApplied
	}
	return nil
}

// ApplyDiscount sets the single active discount.
func (t *Ticket) ApplyDiscount(amount float64, reason string, source DiscountSource, referral *ReferralInfo) error {
	if err := t.CanApplyDiscount(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidDiscount
	}
	t.Discount = amount
	t.DiscountReason = reason
	t.DiscountSource = source
	t.Referral = referral
	return nil
}

// Subtotal is the undiscounted cart value.
func (t *Ticket) Subtotal() float64 {
	var sum float64
	for _, l := range t.Cart {
		sum += l.Total()
	}
	return sum
}

// Total never goes below zero.
func (t *Ticket) Total() float64 {
	return floorZero(t.Subtotal() - t.Discount)
}

// Quantity is the number of units across all lines.
func (t *Ticket) Quantity() int {
	n := 0
	for _, l := range t.Cart {
		n += l.Quantity
	}
	return n
}

// Summary is what the conversation displays after every cart change.
func (t *Ticket) Summary() CartSummary {
	lines := make([]CartLine, len(t.Cart))
	copy(lines, t.Cart)
	return CartSummary{
		TicketID:       t.ID,
		Lines:          lines,
		Subtotal:       t.Subtotal(),
		Discount:       t.Discount,
		DiscountReason: t.DiscountReason,
		Total:          t.Total(),
		OrderID:        t.OrderID,
	}
}

// ValidateStock re-checks every line against the live catalog.
func (t *Ticket) ValidateStock(lookup func(productID string) (Product, bool)) error {
	for _, l := range t.Cart {
		p, ok := lookup(l.ProductID)
		if !ok {
			return ErrProductNotFound.Withf("product %s (%s) is no longer available; please remove it from your cart", l.Name, l.ProductID)
		}
		if !p.Stock.Covers(l.Quantity) {
			return ErrStockExceeded.Withf("we only have %s of %s in stock, but your cart has %d", p.Stock, p.Name, l.Quantity)
		}
	}
	return nil
}

// Snapshot copies the cart into order items.
func (t *Ticket) Snapshot() []OrderItem {
	items := make([]OrderItem, 0, len(t.Cart))
	for _, l := range t.Cart {
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	return items
}

// ClearOrder reverts the ticket after its order was cancelled. The cart is kept.
func (t *Ticket) ClearOrder() {
	t.OrderID = ""
	t.Discount = 0
	t.DiscountReason = ""
	t.DiscountSource = DiscountSource{}
	t.Referral = nil
	t.GiftRecipientID = ""
}

// SetGiftRecipient marks the order as a gift for recipient.
func (t *Ticket) SetGiftRecipient(recipient Actor) error {
	if t.Category != TicketCategoryBuy {
		return ErrNotBuyTicket
	}
	if recipient.ID == t.CreatorID {
		return ErrGiftSelf
	}
	if recipient.Bot {
		return ErrGiftBot
	}
	t.GiftRecipientID = recipient.ID
	return nil
}

// Clone returns a deep copy so a failed operation can be discarded.
func (t *Ticket) Clone() *Ticket {
	c := *t
	c.Cart = make([]CartLine, len(t.Cart))
	copy(c.Cart, t.Cart)
	if t.Referral != nil {
		ref := *t.Referral
		c.Referral = &ref
	}
	return &c
}

// IsParticipant is true for the creator and any staff member.
func (t *Ticket) IsParticipant(actor Actor) bool {
	return actor.ID == t.CreatorID || actor.IsStaff()
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
