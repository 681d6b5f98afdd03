package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/service"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// LoyaltyHandler exposes points, rewards and referral codes.
type LoyaltyHandler struct {
	loyalty *service.LoyaltyService
}

// NewLoyaltyHandler constructs handler.
func NewLoyaltyHandler(loyaltyService *service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyalty: loyaltyService}
}

// Balance GET /loyalty/me.
func (h *LoyaltyHandler) Balance(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	points, err := h.loyalty.Balance(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	rewards := h.loyalty.Rewards()
	resp := dto.BalanceResponse{UserID: actor.ID, Points: points, Rewards: make([]dto.RewardResponse, 0, len(rewards))}
	for _, r := range rewards {
		resp.Rewards = append(resp.Rewards, dto.RewardResponse{Points: r.Points, Discount: r.Discount})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Redeem POST /loyalty/redeem.
func (h *LoyaltyHandler) Redeem(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Points <= 0 {
		return apperrors.NewValidationError("points must be positive", nil)
	}
	r, err := h.loyalty.Redeem(c.UserContext(), actor, req.Points)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.RedeemResponse{
		Code:      r.Code,
		Points:    r.Points,
		Discount:  r.Amount,
		Remaining: r.Remaining,
	}})
}

// Leaderboard GET /loyalty/leaderboard.
func (h *LoyaltyHandler) Leaderboard(c *fiber.Ctx) error {
	top, err := h.loyalty.Leaderboard(c.UserContext())
	if err != nil {
		return err
	}
	entries := make([]dto.LeaderboardEntry, 0, len(top))
	for i, m := range top {
		entries = append(entries, dto.LeaderboardEntry{Rank: i + 1, UserID: m.UserID, Points: m.Points})
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Referral GET /loyalty/referral.
func (h *LoyaltyHandler) Referral(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	code, err := h.loyalty.ReferralCode(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReferralResponse{Code: code}})
}

// AdjustPoints POST /staff/loyalty/adjust.
func (h *LoyaltyHandler) AdjustPoints(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AdjustPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	balance, err := h.loyalty.AdjustPoints(c.UserContext(), actor, req.UserID, req.Amount, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdjustPointsResponse{UserID: req.UserID, Amount: req.Amount, Balance: balance}})
}
