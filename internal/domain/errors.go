package domain

import "fmt"

// RuleError is a business rule rejection. Two RuleErrors match under errors.Is
// when their codes are equal, so callers can compare against the sentinels
// below while still carrying a specific reason.
type RuleError struct {
	Code   string
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

// Is matches on Code.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

// Withf returns a copy of the rule with a more specific reason.
func (e *RuleError) Withf(format string, args ...any) *RuleError {
	return &RuleError{Code: e.Code, Reason: fmt.Sprintf(format, args...)}
}

var (
	ErrNotBuyTicket         = &RuleError{Code: "NOT_BUY_TICKET", Reason: "this action is only available in buy tickets"}
	ErrCartLocked           = &RuleError{Code: "CART_LOCKED", Reason: "the cart is locked by a confirmed order; cancel the order to edit it"}
	ErrCartEmpty            = &RuleError{Code: "CART_EMPTY", Reason: "your cart is empty; add products before confirming"}
	ErrProductNotFound      = &RuleError{Code: "PRODUCT_NOT_FOUND", Reason: "product not found"}
	ErrStockExceeded        = &RuleError{Code: "STOCK_EXCEEDED", Reason: "not enough stock"}
	ErrDiscountApplied      = &RuleError{Code: "DISCOUNT_ALREADY_APPLIED", Reason: "a discount has already been applied to this order; only one discount can be applied per order"}
	ErrInvalidDiscount      = &RuleError{Code: "INVALID_DISCOUNT", Reason: "discount amount must be positive"}
	ErrCodeUnknown          = &RuleError{Code: "CODE_UNKNOWN", Reason: "that discount code is invalid or does not exist"}
	ErrCodeRejected         = &RuleError{Code: "CODE_REJECTED", Reason: "that discount code cannot be used"}
	ErrReferralSelf         = &RuleError{Code: "REFERRAL_SELF", Reason: "you cannot use your own referral code"}
	ErrReferralNotNew       = &RuleError{Code: "REFERRAL_NOT_NEW_CUSTOMER", Reason: "referral codes are for new customers only"}
	ErrCodeUsed             = &RuleError{Code: "CODE_USED", Reason: "that redemption code has already been used"}
	ErrCodeNotYours         = &RuleError{Code: "CODE_NOT_YOURS", Reason: "this redemption code was not generated for your account"}
	ErrPromoInactive        = &RuleError{Code: "PROMO_INACTIVE", Reason: "this promotional code is no longer active"}
	ErrPromoExhausted       = &RuleError{Code: "PROMO_EXHAUSTED", Reason: "this promotional code has reached its maximum number of uses"}
	ErrPromoExpired         = &RuleError{Code: "PROMO_EXPIRED", Reason: "this promotional code has expired"}
	ErrNoOrder              = &RuleError{Code: "NO_ORDER", Reason: "cannot cancel: no order has been confirmed in this ticket yet"}
	ErrNotCancellable       = &RuleError{Code: "NOT_CANCELLABLE", Reason: "cannot cancel: the order is no longer pending payment"}
	ErrInvalidTransition    = &RuleError{Code: "INVALID_TRANSITION", Reason: "invalid order status transition"}
	ErrAlreadyClaimed       = &RuleError{Code: "ALREADY_CLAIMED", Reason: "this ticket is already claimed"}
	ErrNotClaimant          = &RuleError{Code: "NOT_CLAIMANT", Reason: "you cannot unclaim a ticket that was claimed by someone else"}
	ErrGiftSelf             = &RuleError{Code: "GIFT_SELF", Reason: "you cannot gift to yourself"}
	ErrGiftBot              = &RuleError{Code: "GIFT_BOT", Reason: "you cannot gift to a bot account"}
	ErrTicketAlreadyOpen    = &RuleError{Code: "TICKET_ALREADY_OPEN", Reason: "you already have an open ticket"}
	ErrUnknownCategory      = &RuleError{Code: "UNKNOWN_CATEGORY", Reason: "unknown ticket category"}
	ErrInsufficientPoints   = &RuleError{Code: "INSUFFICIENT_POINTS", Reason: "not enough points for this reward"}
	ErrProgramNotConfigured = &RuleError{Code: "PROGRAM_NOT_CONFIGURED", Reason: "this program is not configured; please contact staff"}
)
