package dto

import (
	"time"

	"github.com/spec-kit/storefront-tickets/internal/domain"
)

// ConfirmPaymentRequest payload.
type ConfirmPaymentRequest struct {
	Method string `json:"method"`
}

// OrderItemResponse is one snapshot line.
type OrderItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// OrderResponse response.
type OrderResponse struct {
	ID              string              `json:"id"`
	BuyerID         string              `json:"buyer_id"`
	GiftRecipientID string              `json:"gift_recipient_id,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	Status          domain.OrderStatus  `json:"status"`
	Subtotal        float64             `json:"subtotal"`
	Discount        float64             `json:"discount"`
	DiscountReason  string              `json:"discount_reason,omitempty"`
	Total           float64             `json:"total"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
}

// DeliveryResponse response.
type DeliveryResponse struct {
	Order         OrderResponse `json:"order"`
	PointsAwarded int           `json:"points_awarded"`
	RewardCode    string        `json:"reward_code,omitempty"`
}
