package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-tickets/internal/api/dto"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/service"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

const defaultHistoryLimit = 10

// OrdersHandler exposes the order ledger.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orderService}
}

// GetOrder GET /orders/:id.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	order, err := h.orders.OrderInfo(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// ConfirmPayment POST /orders/:id/payment.
func (h *OrdersHandler) ConfirmPayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	order, err := h.orders.ConfirmPayment(c.UserContext(), c.Params("id"), req.Method, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// MarkDelivered POST /orders/:id/deliver.
func (h *OrdersHandler) MarkDelivered(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	result, err := h.orders.MarkDelivered(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DeliveryResponse{
		Order:         orderResponse(result.Order),
		PointsAwarded: result.PointsAwarded,
		RewardCode:    result.RewardCode,
	}})
}

// History GET /users/:id/orders?limit=.
func (h *OrdersHandler) History(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("limit must be a positive integer", nil)
		}
		limit = parsed
	}
	orders, err := h.orders.History(c.UserContext(), c.Params("id"), actor, limit)
	if err != nil {
		return err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func orderResponse(o *domain.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return dto.OrderResponse{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		GiftRecipientID: o.GiftRecipientID,
		Items:           items,
		Status:          o.Status,
		Subtotal:        o.Subtotal(),
		Discount:        o.Discount,
		DiscountReason:  o.DiscountReason,
		Total:           o.Total(),
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.Timestamp,
		DeliveredAt:     o.DeliveredAt,
	}
}
