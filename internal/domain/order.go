package domain

import "time"

// OrderStatus values are stored verbatim in the orders collection.
type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "Pending Payment"
	OrderStatusPaymentReceived OrderStatus = "Payment Received"
	OrderStatusDelivered       OrderStatus = "Delivered"
	OrderStatusCancelledByUser OrderStatus = "Cancelled by User"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment:  {OrderStatusPaymentReceived, OrderStatusCancelledByUser},
	OrderStatusPaymentReceived: {OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderItem is an immutable line of a confirmed order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (i OrderItem) Total() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Order is the durable record created by confirming a cart.
type Order struct {
	ID              string          `json:"-"`
	BuyerID         string          `json:"user_id"`
	GiftRecipientID string          `json:"gift_recipient_id,omitempty"`
	ChannelID       string          `json:"channel_id,omitempty"`
	Items           []OrderItem     `json:"items"`
	Status          OrderStatus     `json:"status"`
	Discount        float64         `json:"discount"`
	DiscountReason  string          `json:"discount_reason,omitempty"`
	DiscountSource  *DiscountSource `json:"discount_source,omitempty"`
	Referral        *ReferralInfo   `json:"referral_info,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

func (o *Order) Subtotal() float64 {
	var sum float64
	for _, i := range o.Items {
		sum += i.Total()
	}
	return sum
}

// Total is the amount due, never below zero.
func (o *Order) Total() float64 {
	return floorZero(o.Subtotal() - o.Discount)
}

// Transition moves the order to status to.
func (o *Order) Transition(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition.Withf("order %s cannot move from %s to %s", o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

func (o *Order) IsGift() bool {
	return o.GiftRecipientID != ""
}

// DeliveryTarget is who receives the product: the gift recipient when set,
// otherwise the buyer.
func (o *Order) DeliveryTarget() string {
	if o.IsGift() {
		return o.GiftRecipientID
	}
	return o.BuyerID
}
