package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/payment"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// TicketService runs the cart and ticket state machine.
type TicketService struct {
	registry   *TicketRegistry
	catalog    repository.CatalogRepository
	orders     repository.OrderRepository
	counters   repository.CounterRepository
	discounts  repository.DiscountRepository
	referrals  repository.ReferralRepository
	tiers      TierResolver
	presenter  payment.Presenter
	display    CartDisplay
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.CommerceConfig
	now        Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Registry     *TicketRegistry
	CatalogRepo  repository.CatalogRepository
	OrderRepo    repository.OrderRepository
	CounterRepo  repository.CounterRepository
	DiscountRepo repository.DiscountRepository
	ReferralRepo repository.ReferralRepository
	Tiers        TierResolver
	Presenter    payment.Presenter
	Display      CartDisplay
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Commerce     config.CommerceConfig
	Clock        Clock
}

// ConfirmResult is what the buyer sees after confirming.
type ConfirmResult struct {
	Ticket  *domain.Ticket
	Order   *domain.Order
	Invoice *payment.Invoice
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	registry := deps.Registry
	if registry == nil {
		registry = NewTicketRegistry()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		registry:   registry,
		catalog:    deps.CatalogRepo,
		orders:     deps.OrderRepo,
		counters:   deps.CounterRepo,
		discounts:  deps.DiscountRepo,
		referrals:  deps.ReferralRepo,
		tiers:      deps.Tiers,
		presenter:  deps.Presenter,
		display:    deps.Display,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Commerce,
		now:        clockOrNow(deps.Clock),
	}
}

// Registry exposes the open tickets to collaborators that share them.
func (s *TicketService) Registry() *TicketRegistry {
	return s.registry
}

// OpenTicket starts a conversation. An empty id gets a generated key.
func (s *TicketService) OpenTicket(ctx context.Context, id string, creator domain.Actor, category string) (*domain.Ticket, error) {
	if creator.ID == "" {
		return nil, apperrors.NewUnauthorized("creator required")
	}
	cat, err := domain.ParseTicketCategory(category)
	if err != nil {
		return nil, mapError(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = generateTicketKey()
	}
	ticket := domain.NewTicket(id, creator.ID, cat, s.now())
	if err := s.registry.Open(ticket); err != nil {
		return nil, mapError(err)
	}
	s.logger.Info("ticket opened",
		zap.String("ticket_id", id),
		zap.String("actor_id", creator.ID),
		zap.String("category", string(cat)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketOpened,
		TicketID: id,
		Actor:    events.ActorOf(creator),
		Payload:  events.TicketOpenedPayload{CreatorID: creator.ID, Category: cat},
	})
	return ticket, nil
}

// CloseTicket retires the ticket and forgets its state.
func (s *TicketService) CloseTicket(ctx context.Context, id string, actor domain.Actor) (*domain.Ticket, error) {
	closed, err := s.registry.Close(id, func(t *domain.Ticket) error {
		return requireParticipant(t, actor)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.logger.Info("ticket closed", zap.String("ticket_id", id), zap.String("actor_id", actor.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: id,
		OrderID:  closed.OrderID,
		Actor:    events.ActorOf(actor),
		Payload:  events.TicketClosedPayload{CreatorID: closed.CreatorID, OrderID: closed.OrderID},
	})
	return closed, nil
}

// GetTicket returns the ticket to its creator or staff.
func (s *TicketService) GetTicket(_ context.Context, id string, actor domain.Actor) (*domain.Ticket, error) {
	t, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(t, actor); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTickets returns every open ticket. Staff only.
func (s *TicketService) ListTickets(_ context.Context, actor domain.Actor) ([]*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	return s.registry.List(), nil
}

// AddItem puts one unit of productID into the cart.
func (s *TicketService) AddItem(ctx context.Context, id string, actor domain.Actor, productID string) (*domain.Ticket, error) {
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireParticipant(t, actor); err != nil {
			return err
		}
		if err := t.CanEditCart(); err != nil {
			return err
		}
		product, err := s.catalog.Get(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrProductNotFound.Withf("product %s not found", productID)
		}
		if err != nil {
			return fmt.Errorf("load product %s: %w", productID, err)
		}
		return t.AddItem(*product)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.showCart(ctx, updated)
	return updated, nil
}

// RemoveItem takes one unit of productID out of the cart.
func (s *TicketService) RemoveItem(ctx context.Context, id string, actor domain.Actor, productID string) (*domain.Ticket, error) {
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireParticipant(t, actor); err != nil {
			return err
		}
		return t.RemoveItem(productID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.showCart(ctx, updated)
	return updated, nil
}

// ApplyCode applies a referral, redeemable or promotional code. Registry
// writes happen before the ticket changes, and nothing changes on rejection.
func (s *TicketService) ApplyCode(ctx context.Context, id string, actor domain.Actor, rawCode string) (*domain.Ticket, error) {
	code := domain.NormalizeCode(rawCode)
	if code == "" {
		return nil, apperrors.NewValidationError("discount code required", nil)
	}
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireCreator(t, actor); err != nil {
			return err
		}
		if err := t.CanApplyDiscount(); err != nil {
			return err
		}
		if domain.IsReferralCode(code) {
			return s.applyReferral(ctx, t, actor, code)
		}
		return s.applyStoredCode(ctx, t, actor, code)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.logger.Info("discount applied",
		zap.String("ticket_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("code", code),
		zap.Float64("amount", updated.Discount))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventDiscountApplied,
		TicketID: id,
		Actor:    events.ActorOf(actor),
		Payload: events.DiscountAppliedPayload{
			Kind:   updated.DiscountSource.Kind,
			Code:   updated.DiscountSource.Code,
			Amount: updated.Discount,
			Reason: updated.DiscountReason,
		},
	})
	s.showCart(ctx, updated)
	return updated, nil
}

func (s *TicketService) applyReferral(ctx context.Context, t *domain.Ticket, actor domain.Actor, code string) error {
	referrerID, err := s.referrals.Referrer(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrCodeUnknown.Withf("invalid referral code; %s does not exist", code)
	}
	if err != nil {
		return fmt.Errorf("load referral %s: %w", code, err)
	}
	delivered, err := s.orders.HasDelivered(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("check order history: %w", err)
	}
	referral := domain.ReferralCode{Code: code, ReferrerID: referrerID, Amount: s.cfg.ReferralNewUserDiscount}
	if err := referral.Check(actor.ID, delivered); err != nil {
		return err
	}
	return t.ApplyDiscount(referral.Amount, referral.Reason(), referral.Source(), referral.Info())
}

func (s *TicketService) applyStoredCode(ctx context.Context, t *domain.Ticket, actor domain.Actor, code string) error {
	var kind domain.DiscountKind
	rec, err := s.discounts.Update(ctx, code, func(rec *domain.DiscountRecord) error {
		variant, err := domain.StoredCode(code, *rec)
		if err != nil {
			return err
		}
		switch c := variant.(type) {
		case domain.RedeemableCode:
			if err := c.Check(actor.ID); err != nil {
				return err
			}
			*rec = c.Redeem()
			kind = domain.DiscountKindRedeem
		case domain.PromotionalCode:
			if err := c.Check(s.now()); err != nil {
				return err
			}
			*rec = c.Redeem()
			kind = domain.DiscountKindPromo
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrCodeUnknown
	}
	if err != nil {
		return err
	}
	source := domain.DiscountSource{Kind: kind, Code: code}
	if err := t.ApplyDiscount(rec.Amount, domain.CodeReason(code), source, nil); err != nil {
		s.logger.Error("discount code consumed but not applied; manual reconciliation needed",
			zap.String("ticket_id", t.ID),
			zap.String("code", code),
			zap.Error(err))
		return err
	}
	return nil
}

// Confirm snapshots the cart into a Pending Payment order and asks for an invoice.
func (s *TicketService) Confirm(ctx context.Context, id string, actor domain.Actor) (*ConfirmResult, error) {
	var order *domain.Order
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireCreator(t, actor); err != nil {
			return err
		}
		if err := t.CanEditCart(); err != nil {
			return err
		}
		if len(t.Cart) == 0 {
			return domain.ErrCartEmpty
		}
		if err := s.validateStock(ctx, t); err != nil {
			return err
		}
		if err := s.applyTierDiscount(ctx, t, actor); err != nil {
			return err
		}

		seq, err := s.counters.Next(ctx, s.cfg.OrderCounterName)
		if err != nil {
			return fmt.Errorf("allocate order id: %w", err)
		}
		order = &domain.Order{
			ID:              fmt.Sprintf("%s%04d", s.cfg.OrderIDPrefix, seq),
			BuyerID:         t.CreatorID,
			GiftRecipientID: t.GiftRecipientID,
			ChannelID:       t.ID,
			Items:           t.Snapshot(),
			Status:          domain.OrderStatusPendingPayment,
			Discount:        t.Discount,
			DiscountReason:  t.DiscountReason,
			Referral:        t.Referral,
			Timestamp:       s.now(),
		}
		if t.DiscountSource.Kind != domain.DiscountKindNone {
			src := t.DiscountSource
			order.DiscountSource = &src
		}
		if err := s.orders.Create(ctx, order); err != nil {
			s.logger.Warn("order id allocated but order not written",
				zap.String("ticket_id", t.ID),
				zap.String("order_id", order.ID),
				zap.Error(err))
			return fmt.Errorf("write order %s: %w", order.ID, err)
		}
		t.OrderID = order.ID
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.logger.Info("order confirmed",
		zap.String("ticket_id", id),
		zap.String("order_id", order.ID),
		zap.String("actor_id", actor.ID),
		zap.Float64("discount", order.Discount))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventOrderConfirmed,
		TicketID: id,
		OrderID:  order.ID,
		Actor:    events.ActorOf(actor),
		Payload: events.OrderConfirmedPayload{
			BuyerID:         order.BuyerID,
			GiftRecipientID: order.GiftRecipientID,
			Items:           order.Items,
			Discount:        order.Discount,
			DiscountReason:  order.DiscountReason,
			Total:           order.Total(),
		},
	})
	s.showCart(ctx, updated)

	return &ConfirmResult{Ticket: updated, Order: order, Invoice: s.present(ctx, order)}, nil
}

func (s *TicketService) validateStock(ctx context.Context, t *domain.Ticket) error {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return t.ValidateStock(func(productID string) (domain.Product, bool) {
		p, ok := byID[productID]
		return p, ok
	})
}

func (s *TicketService) applyTierDiscount(ctx context.Context, t *domain.Ticket, actor domain.Actor) error {
	if t.Discount > 0 || s.tiers == nil {
		return nil
	}
	tiers, err := s.tiers.MemberTiers(ctx, actor)
	if err != nil {
		return fmt.Errorf("resolve member tiers: %w", err)
	}
	best, ok := domain.BestTier(tiers)
	if !ok {
		return nil
	}
	amount := t.Subtotal() * best.Percent / 100
	if amount <= 0 {
		return nil
	}
	source := domain.DiscountSource{Kind: domain.DiscountKindRole, Code: best.TierID}
	return t.ApplyDiscount(amount, domain.TierReason(best), source, nil)
}

func (s *TicketService) present(ctx context.Context, order *domain.Order) *payment.Invoice {
	if s.presenter == nil {
		return nil
	}
	invoice, err := s.presenter.Present(ctx, payment.Request{
		OrderID:  order.ID,
		BuyerID:  order.BuyerID,
		Items:    order.Items,
		Discount: order.Discount,
	})
	if err != nil {
		s.logger.Error("payment presentation failed; order stands",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil
	}
	return invoice
}

// Cancel reverts a Pending Payment order back into an editable cart.
func (s *TicketService) Cancel(ctx context.Context, id string, actor domain.Actor) (*domain.Ticket, error) {
	var (
		orderID  string
		refunded string
	)
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireParticipant(t, actor); err != nil {
			return err
		}
		if !t.Locked() {
			return domain.ErrNoOrder
		}
		orderID = t.OrderID
		_, err := s.orders.Update(ctx, orderID, func(o *domain.Order) error {
			if o.Status != domain.OrderStatusPendingPayment {
				return domain.ErrNotCancellable.Withf("cannot cancel: order %s is already %s", o.ID, o.Status)
			}
			return o.Transition(domain.OrderStatusCancelledByUser)
		})
		if err != nil {
			return err
		}
		if t.DiscountSource.Kind == domain.DiscountKindRedeem {
			refunded = s.refundRedeemCode(ctx, t.DiscountSource.Code, actor)
		}
		t.ClearOrder()
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "order", map[string]any{"order_id": orderID})
	}

	s.logger.Info("order cancelled",
		zap.String("ticket_id", id),
		zap.String("order_id", orderID),
		zap.String("actor_id", actor.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventOrderCancelled,
		TicketID: id,
		OrderID:  orderID,
		Actor:    events.ActorOf(actor),
		Payload:  events.OrderCancelledPayload{RefundedCode: refunded},
	})
	s.showCart(ctx, updated)
	return updated, nil
}

// refundRedeemCode hands a personal redeemable code back to actor. The order
// is already cancelled at this point, so failures are logged, not returned.
func (s *TicketService) refundRedeemCode(ctx context.Context, code string, actor domain.Actor) string {
	errNotRefundable := errors.New("not refundable")
	_, err := s.discounts.Update(ctx, code, func(rec *domain.DiscountRecord) error {
		if !rec.Refundable(actor.ID) {
			return errNotRefundable
		}
		rec.Used = false
		return nil
	})
	switch {
	case err == nil:
		return code
	case errors.Is(err, errNotRefundable):
		return ""
	default:
		s.logger.Error("redeem code not returned after cancellation; manual reconciliation needed",
			zap.String("code", code),
			zap.String("actor_id", actor.ID),
			zap.Error(err))
		return ""
	}
}

// SetGiftRecipient marks the purchase as a gift.
func (s *TicketService) SetGiftRecipient(ctx context.Context, id string, actor, recipient domain.Actor) (*domain.Ticket, error) {
	updated, err := s.registry.Mutate(id, func(t *domain.Ticket) error {
		if err := requireParticipant(t, actor); err != nil {
			return err
		}
		return t.SetGiftRecipient(recipient)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventGiftRecipientSet,
		TicketID: id,
		OrderID:  updated.OrderID,
		Actor:    events.ActorOf(actor),
		Payload:  events.GiftRecipientPayload{RecipientID: recipient.ID},
	})
	return updated, nil
}

// showCart is best effort: the ticket state stands even if the display fails.
func (s *TicketService) showCart(ctx context.Context, t *domain.Ticket) {
	if s.display == nil || t.Category != domain.TicketCategoryBuy {
		return
	}
	if err := s.display.ShowCart(ctx, t.Summary()); err != nil {
		s.logger.Warn("cart display not updated", zap.String("ticket_id", t.ID), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if err := publish(ctx, s.dispatcher, s.now, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func requireParticipant(t *domain.Ticket, actor domain.Actor) error {
	if !t.IsParticipant(actor) {
		return apperrors.NewForbidden("only the ticket creator or staff can do this")
	}
	return nil
}

func requireCreator(t *domain.Ticket, actor domain.Actor) error {
	if actor.ID != t.CreatorID {
		return apperrors.NewForbidden("only the ticket creator can do this")
	}
	return nil
}
