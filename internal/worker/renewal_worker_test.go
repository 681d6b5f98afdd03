package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) Notify(context.Context) (int, error) {
	n.calls.Add(1)
	return 1, n.err
}

func TestRenewalWorkerRunsUntilCancelled(t *testing.T) {
	t.Parallel()

	notifier := &countingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewRenewalWorker(notifier, 5*time.Millisecond, nil)
	w.Start(ctx)

	assert.Eventually(t, func() bool { return notifier.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	w.Wait()

	after := notifier.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, notifier.calls.Load())
}

func TestRenewalWorkerKeepsRunningAfterErrors(t *testing.T) {
	t.Parallel()

	notifier := &countingNotifier{err: errors.New("store offline")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewRenewalWorker(notifier, 5*time.Millisecond, nil)
	w.Start(ctx)

	assert.Eventually(t, func() bool { return notifier.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

type registrar struct{ called bool }

func (r *registrar) RegisterHandlers() { r.called = true }

func TestStartNotificationWorker(t *testing.T) {
	t.Parallel()

	r := &registrar{}
	StartNotificationWorker(r)
	assert.True(t, r.called)
	StartNotificationWorker(nil)
}
