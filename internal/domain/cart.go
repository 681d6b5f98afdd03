package domain

// CartLine is one product in a cart. UnitPrice is captured when the product
// is first added.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

func (l CartLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// CartSummary is the recomputed cart view.
type CartSummary struct {
	TicketID       string     `json:"ticket_id"`
	Lines          []CartLine `json:"lines"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	DiscountReason string     `json:"discount_reason,omitempty"`
	Total          float64    `json:"total"`
	OrderID        string     `json:"order_id,omitempty"`
}
