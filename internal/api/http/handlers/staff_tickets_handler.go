package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/service"
)

// StaffTicketsHandler handles the staff views of open tickets.
type StaffTicketsHandler struct {
	tickets *service.TicketService
	claims  *service.ClaimService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, claimService *service.ClaimService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, claims: claimService}
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketResponse(t, actor))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Controls GET /staff/tickets/:id/controls.
func (h *StaffTicketsHandler) Controls(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	controls, err := h.claims.Controls(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": controls})
}

// Claim POST /staff/tickets/:id/claim.
func (h *StaffTicketsHandler) Claim(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	controls, err := h.claims.Claim(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": controls})
}

// Unclaim DELETE /staff/tickets/:id/claim.
func (h *StaffTicketsHandler) Unclaim(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	controls, err := h.claims.Unclaim(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": controls})
}
