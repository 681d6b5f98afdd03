package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/events"
)

// EventSink forwards events out of the process, e.g. to Kafka.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotificationService logs domain events and hands them to the delivery
// flows through an EventSink.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       EventSink
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, sink EventSink, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.String("order_id", event.OrderID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	if n.cfg.LogOnly || n.sink == nil {
		return nil
	}
	return n.sink.Publish(ctx, event)
}
