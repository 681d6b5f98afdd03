package dto

import "time"

// CreatePromoRequest payload. MaxUses 0 means unlimited.
type CreatePromoRequest struct {
	Code          string  `json:"code"`
	DiscountINR   float64 `json:"discount_inr"`
	MaxUses       int     `json:"max_uses"`
	ExpiresInDays *int    `json:"expires_in_days,omitempty"`
}

// PromoResponse response. MaxUses is null for unlimited codes.
type PromoResponse struct {
	Code        string     `json:"code"`
	DiscountINR float64    `json:"discount_inr"`
	MaxUses     *int       `json:"max_uses"`
	Uses        int        `json:"uses"`
	Active      bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AdjustPointsRequest payload. Amount may be negative.
type AdjustPointsRequest struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustPointsResponse response.
type AdjustPointsResponse struct {
	UserID  string `json:"user_id"`
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
}
