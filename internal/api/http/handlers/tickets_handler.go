package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/auth"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/service"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// TicketsHandler manages the cart and ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// OpenTicket POST /tickets.
func (h *TicketsHandler) OpenTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.OpenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Category) == "" {
		return apperrors.NewValidationError("category required", nil)
	}
	ticket, err := h.service.OpenTicket(c.UserContext(), req.ID, actor, req.Category)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicket(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// AddItem POST /tickets/:id/items.
func (h *TicketsHandler) AddItem(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return apperrors.NewValidationError("product_id required", nil)
	}
	ticket, err := h.service.AddItem(c.UserContext(), c.Params("id"), actor, req.ProductID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// RemoveItem DELETE /tickets/:id/items/:productId.
func (h *TicketsHandler) RemoveItem(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.RemoveItem(c.UserContext(), c.Params("id"), actor, c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// ApplyCode POST /tickets/:id/discount.
func (h *TicketsHandler) ApplyCode(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ApplyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ApplyCode(c.UserContext(), c.Params("id"), actor, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// Confirm POST /tickets/:id/confirm.
func (h *TicketsHandler) Confirm(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	result, err := h.service.Confirm(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ConfirmResponse{
		Ticket:  ticketResponse(result.Ticket, actor),
		Order:   orderResponse(result.Order),
		Invoice: result.Invoice,
	}})
}

// Cancel POST /tickets/:id/cancel.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Cancel(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

// SetGiftRecipient POST /tickets/:id/gift.
func (h *TicketsHandler) SetGiftRecipient(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.GiftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		return apperrors.NewValidationError("recipient_id required", nil)
	}
	recipient := domain.Actor{ID: req.RecipientID, Bot: req.RecipientBot}
	ticket, err := h.service.SetGiftRecipient(c.UserContext(), c.Params("id"), actor, recipient)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, actor)})
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok || actor.ID == "" {
		return domain.Actor{}, apperrors.NewUnauthorized("member required")
	}
	return actor, nil
}

func ticketResponse(t *domain.Ticket, viewer domain.Actor) dto.TicketResponse {
	summary := t.Summary()
	lines := make([]dto.CartLineResponse, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, dto.CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		})
	}
	return dto.TicketResponse{
		ID:              t.ID,
		CreatorID:       t.CreatorID,
		Category:        t.Category,
		Status:          t.Status,
		Cart:            lines,
		Subtotal:        summary.Subtotal,
		Discount:        summary.Discount,
		DiscountReason:  summary.DiscountReason,
		Total:           summary.Total,
		GiftRecipientID: t.GiftRecipientID,
		OrderID:         t.OrderID,
		Staff:           t.StaffControls(viewer),
		OpenedAt:        t.OpenedAt,
	}
}
