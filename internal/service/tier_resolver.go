package service

import (
	"context"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
)

// TierResolver returns the discount tiers an actor holds.
type TierResolver interface {
	MemberTiers(ctx context.Context, actor domain.Actor) ([]domain.MemberTier, error)
}

// ConfigTierResolver maps the actor's platform roles onto configured role discounts.
type ConfigTierResolver struct {
	discounts []config.RoleDiscount
}

func NewConfigTierResolver(discounts []config.RoleDiscount) *ConfigTierResolver {
	return &ConfigTierResolver{discounts: discounts}
}

func (r *ConfigTierResolver) MemberTiers(_ context.Context, actor domain.Actor) ([]domain.MemberTier, error) {
	var tiers []domain.MemberTier
	for _, d := range r.discounts {
		if actor.HasRole(d.RoleID) {
			tiers = append(tiers, domain.MemberTier{TierID: d.RoleID, Percent: d.Percent})
		}
	}
	return tiers, nil
}
