package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/metrics"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

// RetrySweeper periodically streams notifications still due for push and
// retries each once. Its backoff schedule is per-notification: every
// notification's deliveryAttempts count seeds a fresh
// backoff.ExponentialBackOff so the wait grows with attempt count but is
// capped at maxWait, and the notification is failed outright
// once it has been pending longer than retryWindow (spec.md §4.6).
//
// This is a DB-backed approach, same as the teacher's retry worker: the
// schedule survives restarts because retryAfterDateTime is persisted, not
// held in memory.
type RetrySweeper struct {
	store       repository.NotificationStore
	dispatcher  *service.PushDispatcher
	clients     *service.ClientRegistry
	interval    time.Duration
	initialWait time.Duration
	maxWait     time.Duration
	retryWindow time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewRetrySweeper(
	store repository.NotificationStore,
	dispatcher *service.PushDispatcher,
	clients *service.ClientRegistry,
	interval, initialWait, maxWait, retryWindow time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RetrySweeper {
	return &RetrySweeper{
		store:       store,
		dispatcher:  dispatcher,
		clients:     clients,
		interval:    interval,
		initialWait: initialWait,
		maxWait:     maxWait,
		retryWindow: retryWindow,
		metrics:     m,
		logger:      logger,
	}
}

// Run ticks every interval and sweeps one window of retryable
// notifications. Stops cleanly when ctx is cancelled, including mid-sweep
// (the per-item select below is cooperative).
func (rs *RetrySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	rs.logger.Info("retry sweeper started", zap.Duration("interval", rs.interval))

	for {
		select {
		case <-ctx.Done():
			rs.logger.Info("retry sweeper stopping")
			return
		case <-ticker.C:
			rs.sweep(ctx)
		}
	}
}

func (rs *RetrySweeper) sweep(ctx context.Context) {
	items, err := rs.store.StreamRetryable(ctx)
	if err != nil {
		rs.logger.Error("retry sweep stream error", zap.Error(err))
		return
	}

	swept := 0
	for {
		select {
		case <-ctx.Done():
			return
		case pair, ok := <-items:
			if !ok {
				if swept > 0 {
					rs.logger.Info("retry sweep cycle complete", zap.Int("swept", swept))
				}
				rs.metrics.RetrySweepCycles.Inc()
				return
			}
			rs.retryOne(ctx, pair)
			rs.metrics.RetrySweepItems.Inc()
			swept++
		}
	}
}

func (rs *RetrySweeper) retryOne(ctx context.Context, pair repository.RetryablePair) {
	n, box := pair.Notification, pair.Box

	if time.Since(n.CreatedDateTime) > rs.retryWindow {
		if err := rs.store.UpdateStatus(ctx, n.NotificationID, domain.StatusFailed); err != nil {
			rs.logger.Error("mark failed after retry window exhausted failed",
				zap.String("notification_id", n.NotificationID), zap.Error(err))
			return
		}
		rs.metrics.NotificationsFailed.Inc()
		rs.logger.Warn("retry window exhausted, notification failed",
			zap.String("notification_id", n.NotificationID), zap.Int("attempts", n.DeliveryAttempts))
		return
	}

	client, err := rs.clients.FindOrCreateClient(ctx, box.BoxCreator.ClientID)
	if err != nil {
		rs.logger.Error("resolve client for retry failed",
			zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	secret, ok := client.ActiveSecret()
	if !ok {
		rs.logger.Warn("client has no active secret, skipping retry", zap.String("client_id", client.ClientID))
		return
	}

	delivered, err := rs.dispatcher.Push(ctx, box, n, secret)
	if err != nil || !delivered {
		rs.scheduleNextAttempt(ctx, n)
		return
	}

	if err := rs.store.MarkPushed(ctx, n.NotificationID); err != nil {
		rs.logger.Error("mark pushed after retry failed",
			zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	if err := rs.store.UpdateStatus(ctx, n.NotificationID, domain.StatusAcknowledged); err != nil {
		rs.logger.Error("acknowledge after retry push failed",
			zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	rs.metrics.NotificationsDelivered.Inc()
}

func (rs *RetrySweeper) scheduleNextAttempt(ctx context.Context, n *domain.Notification) {
	wait := rs.backoffFor(n.DeliveryAttempts)
	retryAfter := time.Now().UTC().Add(wait)
	if err := rs.store.ScheduleRetry(ctx, n.NotificationID, retryAfter); err != nil {
		rs.logger.Error("schedule next retry attempt failed",
			zap.String("notification_id", n.NotificationID), zap.Error(err))
	}
}

// backoffFor replays an ExponentialBackOff attempts times to land on the
// interval that attempt would have produced, bounded by maxWait. Jitter
// comes from backoff.ExponentialBackOff's own RandomizationFactor.
func (rs *RetrySweeper) backoffFor(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rs.initialWait
	b.MaxInterval = rs.maxWait
	b.MaxElapsedTime = 0
	b.Reset()

	wait := b.InitialInterval
	for i := 0; i < attempts; i++ {
		wait = b.NextBackOff()
	}
	if wait > rs.maxWait {
		wait = rs.maxWait
	}
	return wait
}
