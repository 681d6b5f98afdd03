package events

import (
	"time"

	"github.com/spec-kit/storefront-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened         EventType = "ticket_opened"
	EventTicketClosed         EventType = "ticket_closed"
	EventCartUpdated          EventType = "cart_updated"
	EventDiscountApplied      EventType = "discount_applied"
	EventOrderConfirmed       EventType = "order_confirmed"
	EventOrderCancelled       EventType = "order_cancelled"
	EventTicketClaimed        EventType = "ticket_claimed"
	EventTicketUnclaimed      EventType = "ticket_unclaimed"
	EventGiftRecipientSet     EventType = "gift_recipient_set"
	EventPaymentConfirmed     EventType = "payment_confirmed"
	EventOrderDelivered       EventType = "order_delivered"
	EventReferralRewardIssued EventType = "referral_reward_issued"
	EventLoyaltyRedeemed      EventType = "loyalty_redeemed"
	EventRenewalDue           EventType = "renewal_due"
	EventPromoCreated         EventType = "promo_created"
	EventPointsAdjusted       EventType = "points_adjusted"
)

// AllEventTypes lists every type services publish.
var AllEventTypes = []EventType{
	EventTicketOpened,
	EventTicketClosed,
	EventCartUpdated,
	EventDiscountApplied,
	EventOrderConfirmed,
	EventOrderCancelled,
	EventTicketClaimed,
	EventTicketUnclaimed,
	EventGiftRecipientSet,
	EventPaymentConfirmed,
	EventOrderDelivered,
	EventReferralRewardIssued,
	EventLoyaltyRedeemed,
	EventRenewalDue,
	EventPromoCreated,
	EventPointsAdjusted,
}

// Actor identifies who caused an event. Empty ID means the system.
type Actor struct {
	ID    string `json:"id,omitempty"`
	Staff bool   `json:"staff,omitempty"`
}

// ActorOf converts a platform identity.
func ActorOf(a domain.Actor) Actor {
	return Actor{ID: a.ID, Staff: a.IsStaff()}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Key groups related events on one partition.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.TicketID
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	CreatorID string                `json:"creator_id"`
	Category  domain.TicketCategory `json:"category"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	CreatorID string `json:"creator_id"`
	OrderID   string `json:"order_id,omitempty"`
}

// CartUpdatedPayload payload.
type CartUpdatedPayload struct {
	Summary domain.CartSummary `json:"summary"`
}

// DiscountAppliedPayload payload.
type DiscountAppliedPayload struct {
	Kind   domain.DiscountKind `json:"kind"`
	Code   string              `json:"code,omitempty"`
	Amount float64             `json:"amount"`
	Reason string              `json:"reason"`
}

// OrderConfirmedPayload payload.
type OrderConfirmedPayload struct {
	BuyerID         string             `json:"buyer_id"`
	GiftRecipientID string             `json:"gift_recipient_id,omitempty"`
	Items           []domain.OrderItem `json:"items"`
	Discount        float64            `json:"discount"`
	DiscountReason  string             `json:"discount_reason,omitempty"`
	Total           float64            `json:"total"`
}

// OrderCancelledPayload payload.
type OrderCancelledPayload struct {
	RefundedCode string `json:"refunded_code,omitempty"`
}

// ClaimPayload payload for claim and unclaim.
type ClaimPayload struct {
	StaffID string `json:"staff_id"`
}

// GiftRecipientPayload payload.
type GiftRecipientPayload struct {
	RecipientID string `json:"recipient_id"`
}

// PaymentConfirmedPayload payload.
type PaymentConfirmedPayload struct {
	BuyerID string `json:"buyer_id"`
	Method  string `json:"method"`
}

// OrderDeliveredPayload tells the delivery flow where to send the product.
// ShowPoints is false for gifts so the recipient never sees the buyer's points.
type OrderDeliveredPayload struct {
	BuyerID       string             `json:"buyer_id"`
	DeliverTo     string             `json:"deliver_to"`
	Items         []domain.OrderItem `json:"items"`
	PointsAwarded int                `json:"points_awarded"`
	PointsBalance int                `json:"points_balance"`
	ShowPoints    bool               `json:"show_points"`
}

// ReferralRewardPayload payload.
type ReferralRewardPayload struct {
	ReferrerID string  `json:"referrer_id"`
	Code       string  `json:"code"`
	Amount     float64 `json:"amount"`
}

// LoyaltyRedeemedPayload payload.
type LoyaltyRedeemedPayload struct {
	UserID    string  `json:"user_id"`
	Points    int     `json:"points"`
	Code      string  `json:"code"`
	Amount    float64 `json:"amount"`
	Remaining int     `json:"remaining"`
}

// RenewalDuePayload payload.
type RenewalDuePayload struct {
	RecipientID string    `json:"recipient_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PromoCreatedPayload payload. MaxUses is omitted for unlimited codes.
type PromoCreatedPayload struct {
	Code      string     `json:"code"`
	Amount    float64    `json:"amount"`
	MaxUses   int        `json:"max_uses,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PointsAdjustedPayload lets the member be told about a manual change.
type PointsAdjustedPayload struct {
	UserID  string `json:"user_id"`
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
	Reason  string `json:"reason"`
}
