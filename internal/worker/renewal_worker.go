package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RenewalNotifier sends the renewal reminders due now.
type RenewalNotifier interface {
	Notify(ctx context.Context) (int, error)
}

// NotificationRegistrar subscribes notification handlers to the dispatcher.
type NotificationRegistrar interface {
	RegisterHandlers()
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifications NotificationRegistrar) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
}

// RenewalWorker checks for expiring subscriptions on a fixed interval.
type RenewalWorker struct {
	notifier RenewalNotifier
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

func NewRenewalWorker(notifier RenewalNotifier, interval time.Duration, logger *zap.Logger) *RenewalWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenewalWorker{
		notifier: notifier,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs one check immediately and then one per interval until ctx ends.
func (w *RenewalWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// Wait blocks until the worker loop has exited.
func (w *RenewalWorker) Wait() {
	<-w.done
}

func (w *RenewalWorker) runOnce(ctx context.Context) {
	sent, err := w.notifier.Notify(ctx)
	if err != nil {
		w.logger.Error("renewal check failed", zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info("renewal reminders sent", zap.Int("count", sent))
	}
}
