package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReferralCodePrefix marks codes looked up in the referral registry.
const ReferralCodePrefix = "REF-"

// DiscountKind tags where a ticket discount came from.
type DiscountKind string

const (
	DiscountKindNone     DiscountKind = ""
	DiscountKindReferral DiscountKind = "referral"
	DiscountKindRedeem   DiscountKind = "redeem"
	DiscountKindPromo    DiscountKind = "promo"
	DiscountKindRole     DiscountKind = "role"
)

// DiscountSource records the provenance of an applied discount.
type DiscountSource struct {
	Kind DiscountKind `json:"kind,omitempty"`
	Code string       `json:"code,omitempty"`
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsReferralCode reports whether code belongs to the referral registry.
func IsReferralCode(code string) bool {
	return strings.HasPrefix(code, ReferralCodePrefix)
}

// DiscountRecord is a code as stored in the discounts collection.
// A missing type is treated as promo.
type DiscountRecord struct {
	Type         DiscountKind `json:"type,omitempty"`
	Amount       float64      `json:"discount_inr"`
	Used         bool         `json:"used,omitempty"`
	GeneratedFor string       `json:"generated_for,omitempty"`
	Active       *bool        `json:"is_active,omitempty"`
	MaxUses      UseLimit     `json:"max_uses"`
	Uses         int          `json:"uses,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	CreatedAt    *time.Time   `json:"created_at,omitempty"`
}

func (r DiscountRecord) Kind() DiscountKind {
	if r.Type == DiscountKindNone {
		return DiscountKindPromo
	}
	return r.Type
}

// IsActive defaults to true when the flag was never written.
func (r DiscountRecord) IsActive() bool {
	return r.Active == nil || *r.Active
}

// ReferralCode is a new-customer discount tied to a referring member.
type ReferralCode struct {
	Code       string
	ReferrerID string
	Amount     float64
}

// Check validates the code for buyerID. hasDelivered reports whether the
// buyer already has a Delivered order.
func (c ReferralCode) Check(buyerID string, hasDelivered bool) error {
	if c.ReferrerID == buyerID {
		return ErrReferralSelf
	}
	if hasDelivered {
		return ErrReferralNotNew
	}
	if c.Amount <= 0 {
		return ErrProgramNotConfigured.Withf("the referral program discount is not configured; please contact staff")
	}
	return nil
}

func (c ReferralCode) Reason() string {
	return fmt.Sprintf("Referral Discount (Code: %s)", c.Code)
}

func (c ReferralCode) Source() DiscountSource {
	return DiscountSource{Kind: DiscountKindReferral, Code: c.Code}
}

func (c ReferralCode) Info() *ReferralInfo {
	return &ReferralInfo{Code: c.Code, ReferrerID: c.ReferrerID}
}

// RedeemableCode is a one-time code, usually minted for loyalty points.
type RedeemableCode struct {
	Code   string
	Record DiscountRecord
}

func (c RedeemableCode) Check(buyerID string) error {
	if c.Record.Used {
		return ErrCodeUsed
	}
	if c.Record.GeneratedFor != "" && c.Record.GeneratedFor != buyerID {
		return ErrCodeNotYours
	}
	return checkAmount(c.Record.Amount)
}

// Redeem returns the record marked as used.
func (c RedeemableCode) Redeem() DiscountRecord {
	r := c.Record
	r.Used = true
	return r
}

// PromotionalCode is a shared code with optional use cap and expiry.
type PromotionalCode struct {
	Code   string
	Record DiscountRecord
}

func (c PromotionalCode) Check(now time.Time) error {
	if !c.Record.IsActive() {
		return ErrPromoInactive
	}
	if c.Record.MaxUses.Reached(c.Record.Uses) {
		return ErrPromoExhausted
	}
	if c.Record.ExpiresAt != nil && c.Record.ExpiresAt.Before(now) {
		return ErrPromoExpired
	}
	return checkAmount(c.Record.Amount)
}

// Redeem returns the record with one more use counted.
func (c PromotionalCode) Redeem() DiscountRecord {
	r := c.Record
	r.Uses++
	return r
}

// CodeReason is the discount reason shown for redeem and promo codes.
func CodeReason(code string) string {
	return fmt.Sprintf("Discount Code (%s)", code)
}

// StoredCode resolves a registry record into its variant:
// RedeemableCode or PromotionalCode.
func StoredCode(code string, rec DiscountRecord) (any, error) {
	switch rec.Kind() {
	case DiscountKindRedeem:
		return RedeemableCode{Code: code, Record: rec}, nil
	case DiscountKindPromo:
		return PromotionalCode{Code: code, Record: rec}, nil
	default:
		return nil, ErrCodeRejected.Withf("unknown discount code type %q; please contact staff", rec.Type)
	}
}

// Refundable reports whether cancelling an order should hand this code back
// to actorID.
func (r DiscountRecord) Refundable(actorID string) bool {
	return r.Kind() == DiscountKindRedeem && r.Used && r.GeneratedFor != "" && r.GeneratedFor == actorID
}

func checkAmount(amount float64) error {
	if amount <= 0 {
		return ErrInvalidDiscount.Withf("the discount amount for this code is not positive; please contact staff")
	}
	return nil
}

// MemberTier is a role-based percentage discount held by an actor.
type MemberTier struct {
	TierID  string  `json:"tier_id"`
	Percent float64 `json:"percent"`
}

// BestTier returns the tier with the highest percentage.
func BestTier(tiers []MemberTier) (MemberTier, bool) {
	var best MemberTier
	found := false
	for _, t := range tiers {
		if t.Percent <= 0 {
			continue
		}
		if !found || t.Percent > best.Percent {
			best = t
			found = true
		}
	}
	return best, found
}

// TierReason is the discount reason recorded for a tier discount.
func TierReason(t MemberTier) string {
	return fmt.Sprintf("%g%% Role Discount (role %s)", t.Percent, t.TierID)
}
