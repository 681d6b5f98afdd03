package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// ClaimService handles staff claim and unclaim on open tickets.
type ClaimService struct {
	registry   *TicketRegistry
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// ClaimDependencies bundles collaborators.
type ClaimDependencies struct {
	Registry   *TicketRegistry
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewClaimService creates the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrNow(deps.Clock),
	}
}

// Claim assigns the ticket to the acting staff member.
func (s *ClaimService) Claim(ctx context.Context, ticketID string, staff domain.Actor) (domain.StaffControls, error) {
	if err := requireStaff(staff); err != nil {
		return domain.StaffControls{}, err
	}
	t, err := s.registry.Mutate(ticketID, func(t *domain.Ticket) error {
		return t.Claim(staff)
	})
	if err != nil {
		return domain.StaffControls{}, mapError(err)
	}
	s.logger.Info("ticket claimed", zap.String("ticket_id", ticketID), zap.String("staff_id", staff.ID))
	s.publishClaimEvent(ctx, events.EventTicketClaimed, ticketID, staff)
	return t.StaffControls(staff), nil
}

// Unclaim releases the ticket. Unclaiming an unclaimed ticket is a no-op.
func (s *ClaimService) Unclaim(ctx context.Context, ticketID string, staff domain.Actor) (domain.StaffControls, error) {
	if err := requireStaff(staff); err != nil {
		return domain.StaffControls{}, err
	}
	var released string
	t, err := s.registry.Mutate(ticketID, func(t *domain.Ticket) error {
		released = t.ClaimedBy
		return t.Unclaim(staff)
	})
	if err != nil {
		return domain.StaffControls{}, mapError(err)
	}
	if released != "" {
		s.logger.Info("ticket unclaimed",
			zap.String("ticket_id", ticketID),
			zap.String("staff_id", staff.ID),
			zap.String("previous_claimant", released))
		s.publishClaimEvent(ctx, events.EventTicketUnclaimed, ticketID, staff)
	}
	return t.StaffControls(staff), nil
}

// Controls returns the claim surface as seen by actor.
func (s *ClaimService) Controls(_ context.Context, ticketID string, actor domain.Actor) (domain.StaffControls, error) {
	t, err := s.registry.Get(ticketID)
	if err != nil {
		return domain.StaffControls{}, err
	}
	return t.StaffControls(actor), nil
}

func (s *ClaimService) publishClaimEvent(ctx context.Context, eventType events.EventType, ticketID string, staff domain.Actor) {
	err := publish(ctx, s.dispatcher, s.now, events.Event{
		Type:     eventType,
		TicketID: ticketID,
		Actor:    events.ActorOf(staff),
		Payload:  events.ClaimPayload{StaffID: staff.ID},
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func requireStaff(actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("staff required")
	}
	if !actor.IsStaff() {
		return apperrors.NewForbidden("staff only")
	}
	return nil
}
