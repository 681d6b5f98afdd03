package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/service"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// DiscountsHandler manages promotional codes.
type DiscountsHandler struct {
	discounts *service.DiscountService
}

// NewDiscountsHandler constructs handler.
func NewDiscountsHandler(discountService *service.DiscountService) *DiscountsHandler {
	return &DiscountsHandler{discounts: discountService}
}

// CreatePromo POST /staff/discounts.
func (h *DiscountsHandler) CreatePromo(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	promo, err := h.discounts.CreatePromo(c.UserContext(), actor, service.PromoInput{
		Code:          req.Code,
		Amount:        req.DiscountINR,
		MaxUses:       req.MaxUses,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		return err
	}
	resp := dto.PromoResponse{
		Code:        promo.Code,
		DiscountINR: promo.Record.Amount,
		Uses:        promo.Record.Uses,
		Active:      promo.Record.IsActive(),
		ExpiresAt:   promo.Record.ExpiresAt,
	}
	if !promo.Record.MaxUses.Unlimited() {
		limit := promo.Record.MaxUses.Max()
		resp.MaxUses = &limit
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}
