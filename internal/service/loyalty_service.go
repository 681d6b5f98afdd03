package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

const leaderboardSize = 10

// LoyaltyService exposes the points program and referral codes.
type LoyaltyService struct {
	loyalty    repository.LoyaltyRepository
	discounts  repository.DiscountRepository
	referrals  repository.ReferralRepository
	counters   repository.CounterRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	rewards    []config.LoyaltyReward
	now        Clock
}

// LoyaltyDependencies bundles collaborators.
type LoyaltyDependencies struct {
	LoyaltyRepo  repository.LoyaltyRepository
	DiscountRepo repository.DiscountRepository
	ReferralRepo repository.ReferralRepository
	CounterRepo  repository.CounterRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Commerce     config.CommerceConfig
	Clock        Clock
}

// Redemption is a reward bought with points.
type Redemption struct {
	Code      string
	Points    int
	Amount    float64
	Remaining int
}

// NewLoyaltyService creates the service.
func NewLoyaltyService(deps LoyaltyDependencies) *LoyaltyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rewards := append([]config.LoyaltyReward(nil), deps.Commerce.LoyaltyRewards...)
	sort.Slice(rewards, func(i, j int) bool { return rewards[i].Points < rewards[j].Points })
	return &LoyaltyService{
		loyalty:    deps.LoyaltyRepo,
		discounts:  deps.DiscountRepo,
		referrals:  deps.ReferralRepo,
		counters:   deps.CounterRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		rewards:    rewards,
		now:        clockOrNow(deps.Clock),
	}
}

func (s *LoyaltyService) Balance(ctx context.Context, userID string) (int, error) {
	points, err := s.loyalty.Points(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return points, nil
}

// Rewards lists the configured rewards, cheapest first.
func (s *LoyaltyService) Rewards() []config.LoyaltyReward {
	return append([]config.LoyaltyReward(nil), s.rewards...)
}

// Redeem spends points on the reward priced at exactly points and mints a
// personal redeemable code for it.
func (s *LoyaltyService) Redeem(ctx context.Context, actor domain.Actor, points int) (*Redemption, error) {
	reward, ok := s.reward(points)
	if !ok {
		return nil, apperrors.NewValidationError("no reward costs that many points", map[string]any{"points": points})
	}
	remaining, err := s.loyalty.Spend(ctx, actor.ID, reward.Points)
	if errors.Is(err, repository.ErrInsufficientPoints) {
		return nil, mapError(domain.ErrInsufficientPoints)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	code := mintCode(redeemCodePrefix)
	created := s.now()
	err = s.discounts.Create(ctx, code, domain.DiscountRecord{
		Type:         domain.DiscountKindRedeem,
		Amount:       reward.Discount,
		GeneratedFor: actor.ID,
		CreatedAt:    &created,
	})
	if err != nil {
		s.logger.Error("points spent but reward code not written; manual reconciliation needed",
			zap.String("user_id", actor.ID),
			zap.Int("points", reward.Points),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("loyalty reward redeemed",
		zap.String("user_id", actor.ID),
		zap.Int("points", reward.Points),
		zap.String("code", code))
	if err := publish(ctx, s.dispatcher, s.now, events.Event{
		Type:  events.EventLoyaltyRedeemed,
		Actor: events.ActorOf(actor),
		Payload: events.LoyaltyRedeemedPayload{
			UserID:    actor.ID,
			Points:    reward.Points,
			Code:      code,
			Amount:    reward.Discount,
			Remaining: remaining,
		},
	}); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(events.EventLoyaltyRedeemed)), zap.Error(err))
	}
	return &Redemption{Code: code, Points: reward.Points, Amount: reward.Discount, Remaining: remaining}, nil
}

func (s *LoyaltyService) reward(points int) (config.LoyaltyReward, bool) {
	for _, r := range s.rewards {
		if r.Points == points {
			return r, true
		}
	}
	return config.LoyaltyReward{}, false
}

const defaultAdjustReason = "Manual adjustment by owner."

// AdjustPoints adds or removes points by hand. The balance never drops
// below zero.
func (s *LoyaltyService) AdjustPoints(ctx context.Context, owner domain.Actor, userID string, amount int, reason string) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperrors.NewValidationError("user id required", nil)
	}
	if amount == 0 {
		return 0, apperrors.NewValidationError("amount must not be zero", nil)
	}
	if strings.TrimSpace(reason) == "" {
		reason = defaultAdjustReason
	}

	balance, err := s.loyalty.Adjust(ctx, userID, amount)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	s.logger.Info("loyalty points adjusted",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
		zap.String("owner_id", owner.ID))
	if err := publish(ctx, s.dispatcher, s.now, events.Event{
		Type:    events.EventPointsAdjusted,
		Actor:   events.ActorOf(owner),
		Payload: events.PointsAdjustedPayload{UserID: userID, Amount: amount, Balance: balance, Reason: reason},
	}); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(events.EventPointsAdjusted)), zap.Error(err))
	}
	return balance, nil
}

// Leaderboard returns the top members by points.
func (s *LoyaltyService) Leaderboard(ctx context.Context) ([]repository.Member, error) {
	top, err := s.loyalty.Top(ctx, leaderboardSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return top, nil
}

// ReferralCode returns the member's referral code, issuing one on first use.
// The counter is only advanced when a new code is registered.
func (s *LoyaltyService) ReferralCode(ctx context.Context, userID string) (string, error) {
	code, created, err := s.referrals.Ensure(ctx, userID, func() (string, error) {
		seq, err := s.counters.Next(ctx, repository.CounterReferral)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%04d", domain.ReferralCodePrefix, seq), nil
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return "", apperrors.NewConflict("referral code already issued", map[string]any{"user_id": userID})
	}
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if created {
		s.logger.Info("referral code issued", zap.String("user_id", userID), zap.String("code", code))
	}
	return code, nil
}
