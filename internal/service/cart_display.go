package service

import (
	"context"

	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
)

// CartDisplay redraws the cart summary in the conversation.
type CartDisplay interface {
	ShowCart(ctx context.Context, summary domain.CartSummary) error
}

// EventCartDisplay hands the summary to whatever renders the conversation by
// publishing cart_updated.
type EventCartDisplay struct {
	dispatcher events.Dispatcher
	now        Clock
}

func NewEventCartDisplay(dispatcher events.Dispatcher, now Clock) *EventCartDisplay {
	return &EventCartDisplay{dispatcher: dispatcher, now: clockOrNow(now)}
}

func (d *EventCartDisplay) ShowCart(ctx context.Context, summary domain.CartSummary) error {
	return publish(ctx, d.dispatcher, d.now, events.Event{
		Type:     events.EventCartUpdated,
		TicketID: summary.TicketID,
		OrderID:  summary.OrderID,
		Payload:  events.CartUpdatedPayload{Summary: summary},
	})
}
