package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// OrderService drives orders past Pending Payment: payment confirmation and
// delivery, plus read access for buyers and staff.
type OrderService struct {
	orders     repository.OrderRepository
	catalog    repository.CatalogRepository
	discounts  repository.DiscountRepository
	loyalty    repository.LoyaltyRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.CommerceConfig
	now        Clock
}

// OrderDependencies bundles collaborators.
type OrderDependencies struct {
	OrderRepo    repository.OrderRepository
	CatalogRepo  repository.CatalogRepository
	DiscountRepo repository.DiscountRepository
	LoyaltyRepo  repository.LoyaltyRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Commerce     config.CommerceConfig
	Clock        Clock
}

// DeliveryResult reports the side effects of a delivery.
type DeliveryResult struct {
	Order         *domain.Order
	PointsAwarded int
	PointsBalance int
	RewardCode    string
}

// NewOrderService creates the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:     deps.OrderRepo,
		catalog:    deps.CatalogRepo,
		discounts:  deps.DiscountRepo,
		loyalty:    deps.LoyaltyRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Commerce,
		now:        clockOrNow(deps.Clock),
	}
}

// ConfirmPayment records that staff verified payment.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, method string, staff domain.Actor) (*domain.Order, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperrors.NewValidationError("payment method required", nil)
	}
	order, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
		if err := o.Transition(domain.OrderStatusPaymentReceived); err != nil {
			return err
		}
		o.PaymentMethod = method
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "order", map[string]any{"order_id": orderID})
	}
	s.logger.Info("payment confirmed",
		zap.String("order_id", orderID),
		zap.String("staff_id", staff.ID),
		zap.String("method", method))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventPaymentConfirmed,
		OrderID: orderID,
		Actor:   events.ActorOf(staff),
		Payload: events.PaymentConfirmedPayload{BuyerID: order.BuyerID, Method: method},
	})
	return order, nil
}

// MarkDelivered completes the order. Stock, points and any referral reward
// are written after the status change; their failures are logged for
// reconciliation since the delivery itself already happened.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID string, staff domain.Actor) (*DeliveryResult, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	order, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
		if err := o.Transition(domain.OrderStatusDelivered); err != nil {
			return err
		}
		at := s.now()
		o.DeliveredAt = &at
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "order", map[string]any{"order_id": orderID})
	}

	result := &DeliveryResult{Order: order}
	if err := s.catalog.DecrementStock(ctx, order.Items); err != nil {
		s.logger.Error("stock not decremented after delivery; manual reconciliation needed",
			zap.String("order_id", orderID), zap.Error(err))
	}
	if s.cfg.PointsPerOrder > 0 {
		balance, err := s.loyalty.AddPoints(ctx, order.BuyerID, s.cfg.PointsPerOrder)
		if err != nil {
			s.logger.Error("loyalty points not awarded; manual reconciliation needed",
				zap.String("order_id", orderID),
				zap.String("buyer_id", order.BuyerID),
				zap.Error(err))
		} else {
			result.PointsAwarded = s.cfg.PointsPerOrder
			result.PointsBalance = balance
		}
	}
	result.RewardCode = s.issueReferralReward(ctx, order, staff)

	s.logger.Info("order delivered",
		zap.String("order_id", orderID),
		zap.String("staff_id", staff.ID),
		zap.String("deliver_to", order.DeliveryTarget()))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderDelivered,
		OrderID: orderID,
		Actor:   events.ActorOf(staff),
		Payload: events.OrderDeliveredPayload{
			BuyerID:       order.BuyerID,
			DeliverTo:     order.DeliveryTarget(),
			Items:         order.Items,
			PointsAwarded: result.PointsAwarded,
			PointsBalance: result.PointsBalance,
			ShowPoints:    !order.IsGift(),
		},
	})
	return result, nil
}

func (s *OrderService) issueReferralReward(ctx context.Context, order *domain.Order, staff domain.Actor) string {
	if order.Referral == nil || s.cfg.ReferrerRewardDiscount <= 0 {
		return ""
	}
	code := mintCode(rewardCodePrefix)
	created := s.now()
	err := s.discounts.Create(ctx, code, domain.DiscountRecord{
		Type:         domain.DiscountKindRedeem,
		Amount:       s.cfg.ReferrerRewardDiscount,
		GeneratedFor: order.Referral.ReferrerID,
		CreatedAt:    &created,
	})
	if err != nil {
		s.logger.Error("referral reward not issued; manual reconciliation needed",
			zap.String("order_id", order.ID),
			zap.String("referrer_id", order.Referral.ReferrerID),
			zap.Error(err))
		return ""
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventReferralRewardIssued,
		OrderID: order.ID,
		Actor:   events.ActorOf(staff),
		Payload: events.ReferralRewardPayload{
			ReferrerID: order.Referral.ReferrerID,
			Code:       code,
			Amount:     s.cfg.ReferrerRewardDiscount,
		},
	})
	return code
}

// OrderInfo returns a single order to its buyer, its recipient or staff.
func (s *OrderService) OrderInfo(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order", map[string]any{"order_id": orderID})
	}
	if !actor.IsStaff() && actor.ID != order.BuyerID && actor.ID != order.GiftRecipientID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return order, nil
}

// History lists a user's orders, newest first. Users see only their own.
func (s *OrderService) History(ctx context.Context, userID string, actor domain.Actor, limit int) ([]domain.Order, error) {
	if !actor.IsStaff() && actor.ID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// DeliveredOrders lists the delivered orders a user bought.
func (s *OrderService) DeliveredOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := orders[:0]
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelivered {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	if err := publish(ctx, s.dispatcher, s.now, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
