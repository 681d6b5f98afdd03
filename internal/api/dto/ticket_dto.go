package dto

import (
	"time"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/payment"
)

// OpenTicketRequest payload. ID is the conversation id; empty generates one.
type OpenTicketRequest struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// AddItemRequest payload.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
}

// ApplyCodeRequest payload.
type ApplyCodeRequest struct {
	Code string `json:"code"`
}

// GiftRequest payload. The gateway reports whether the recipient is a bot.
type GiftRequest struct {
	RecipientID  string `json:"recipient_id"`
	RecipientBot bool   `json:"recipient_bot"`
}

// CartLineResponse is one cart entry.
type CartLineResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// TicketResponse is the ticket as rendered in the conversation.
type TicketResponse struct {
	ID              string                `json:"id"`
	CreatorID       string                `json:"creator_id"`
	Category        domain.TicketCategory `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	Cart            []CartLineResponse    `json:"cart"`
	Subtotal        float64               `json:"subtotal"`
	Discount        float64               `json:"discount"`
	DiscountReason  string                `json:"discount_reason,omitempty"`
	Total           float64               `json:"total"`
	GiftRecipientID string                `json:"gift_recipient_id,omitempty"`
	OrderID         string                `json:"order_id,omitempty"`
	Staff           domain.StaffControls  `json:"staff"`
	OpenedAt        time.Time             `json:"opened_at"`
}

// ConfirmResponse carries the new order and how to pay it. Invoice is
// omitted when presentation failed; the order still stands.
type ConfirmResponse struct {
	Ticket  TicketResponse   `json:"ticket"`
	Order   OrderResponse    `json:"order"`
	Invoice *payment.Invoice `json:"invoice,omitempty"`
}

// ProductRequest payload. Stock -1 means unlimited.
type ProductRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	Category          string  `json:"category"`
	Emoji             string  `json:"emoji"`
	RenewalPeriodDays int     `json:"renewal_period_days"`
}

// ProductResponse response.
type ProductResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Price             float64 `json:"price"`
	Stock             string  `json:"stock"`
	Category          string  `json:"category,omitempty"`
	Emoji             string  `json:"emoji,omitempty"`
	RenewalPeriodDays int     `json:"renewal_period_days,omitempty"`
}
