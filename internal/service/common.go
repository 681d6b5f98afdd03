package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// Code prefixes for minted redeemable codes.
const (
	redeemCodePrefix = "REDEEM-"
	rewardCodePrefix = "REWARD-"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func mintCode(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// ruleStatus overrides the default 422 for rules that are really conflicts
// or permission problems.
var ruleStatus = map[string]int{
	domain.ErrAlreadyClaimed.Code:    http.StatusConflict,
	domain.ErrTicketAlreadyOpen.Code: http.StatusConflict,
	domain.ErrNotClaimant.Code:       http.StatusForbidden,
	domain.ErrCodeUnknown.Code:       http.StatusNotFound,
	domain.ErrProductNotFound.Code:   http.StatusNotFound,
	domain.ErrUnknownCategory.Code:   http.StatusBadRequest,
}

// mapError turns rule rejections into DomainErrors carrying the rule code and
// leaves everything else to apperrors.MapError.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	var rule *domain.RuleError
	if errors.As(err, &rule) {
		if status, ok := ruleStatus[rule.Code]; ok {
			return &apperrors.DomainError{Code: rule.Code, Message: rule.Reason, HTTPStatus: status, Err: rule}
		}
		return apperrors.NewRejection(rule.Code, rule.Reason, rule, nil)
	}
	return apperrors.MapError(err)
}

func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return mapError(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, now Clock, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clockOrNow(now)()
	}
	return dispatcher.Publish(ctx, event)
}
