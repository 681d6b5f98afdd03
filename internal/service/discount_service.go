package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// PromoInput describes a promotional code to create. MaxUses 0 means
// unlimited; ExpiresInDays nil means the code never expires.
type PromoInput struct {
	Code          string
	Amount        float64
	MaxUses       int
	ExpiresInDays *int
}

// PromoCode is a stored promotional code.
type PromoCode struct {
	Code   string
	Record domain.DiscountRecord
}

// DiscountService lets owners mint server-wide promotional codes.
type DiscountService struct {
	discounts  repository.DiscountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// DiscountDependencies bundles collaborators.
type DiscountDependencies struct {
	DiscountRepo repository.DiscountRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        Clock
}

func NewDiscountService(deps DiscountDependencies) *DiscountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscountService{
		discounts:  deps.DiscountRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrNow(deps.Clock),
	}
}

// CreatePromo validates and stores a new promotional code.
func (s *DiscountService) CreatePromo(ctx context.Context, owner domain.Actor, in PromoInput) (*PromoCode, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	code := domain.NormalizeCode(in.Code)
	switch {
	case code == "":
		return nil, apperrors.NewValidationError("code required", nil)
	case domain.IsReferralCode(code):
		return nil, apperrors.NewValidationError("promotional codes cannot use the referral prefix", map[string]any{"code": code})
	case in.Amount <= 0:
		return nil, apperrors.NewValidationError("discount amount must be a positive number", map[string]any{"discount_inr": in.Amount})
	case in.MaxUses < 0:
		return nil, apperrors.NewValidationError("maximum uses cannot be negative; use 0 for unlimited", map[string]any{"max_uses": in.MaxUses})
	case in.ExpiresInDays != nil && *in.ExpiresInDays <= 0:
		return nil, apperrors.NewValidationError("expiry in days must be a positive number", map[string]any{"expires_in_days": *in.ExpiresInDays})
	}

	now := s.now().UTC()
	active := true
	record := domain.DiscountRecord{
		Type:      domain.DiscountKindPromo,
		Amount:    in.Amount,
		Active:    &active,
		MaxUses:   domain.LimitUses(in.MaxUses),
		CreatedAt: &now,
	}
	if in.ExpiresInDays != nil {
		expires := now.Add(time.Duration(*in.ExpiresInDays) * 24 * time.Hour)
		record.ExpiresAt = &expires
	}

	if err := s.discounts.Create(ctx, code, record); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperrors.NewConflict("a discount code with that name already exists", map[string]any{"code": code})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("promotional code created",
		zap.String("code", code),
		zap.Float64("amount", in.Amount),
		zap.Int("max_uses", in.MaxUses),
		zap.String("owner_id", owner.ID))
	if err := publish(ctx, s.dispatcher, s.now, events.Event{
		Type:  events.EventPromoCreated,
		Actor: events.ActorOf(owner),
		Payload: events.PromoCreatedPayload{
			Code:      code,
			Amount:    in.Amount,
			MaxUses:   record.MaxUses.Max(),
			ExpiresAt: record.ExpiresAt,
		},
	}); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(events.EventPromoCreated)), zap.Error(err))
	}
	return &PromoCode{Code: code, Record: record}, nil
}

func requireOwner(actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("owner required")
	}
	if !actor.Owner {
		return apperrors.NewForbidden("owner only")
	}
	return nil
}
