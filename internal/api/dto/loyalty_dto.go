package dto

// RedeemRequest payload.
type RedeemRequest struct {
	Points int `json:"points"`
}

// BalanceResponse response.
type BalanceResponse struct {
	UserID  string           `json:"user_id"`
	Points  int              `json:"points"`
	Rewards []RewardResponse `json:"rewards"`
}

// RewardResponse is one reward on offer.
type RewardResponse struct {
	Points   int     `json:"points"`
	Discount float64 `json:"discount"`
}

// RedeemResponse response.
type RedeemResponse struct {
	Code      string  `json:"code"`
	Points    int     `json:"points"`
	Discount  float64 `json:"discount"`
	Remaining int     `json:"remaining"`
}

// LeaderboardEntry response.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

// ReferralResponse response.
type ReferralResponse struct {
	Code string `json:"code"`
}
