package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/repository"
)

// DeliveryCoordinator implements saveAndMaybePush (spec.md §4.5): persist
// a notification, then attempt one best-effort push if its box has a
// valid push subscriber. A push failure never fails the publish — it
// only leaves the notification for RetrySweeper to pick up.
type DeliveryCoordinator struct {
	boxes             *BoxRegistry
	clients           *ClientRegistry
	store             repository.NotificationStore
	dispatcher        *PushDispatcher
	initialRetryDelay time.Duration
	logger            *zap.Logger
}

func NewDeliveryCoordinator(
	boxes *BoxRegistry,
	clients *ClientRegistry,
	store repository.NotificationStore,
	dispatcher *PushDispatcher,
	initialRetryDelay time.Duration,
	logger *zap.Logger,
) *DeliveryCoordinator {
	return &DeliveryCoordinator{
		boxes:             boxes,
		clients:           clients,
		store:             store,
		dispatcher:        dispatcher,
		initialRetryDelay: initialRetryDelay,
		logger:            logger,
	}
}

// SaveAndMaybePush is the five-step procedure behind POST
// /box/{boxId}/notifications: look up the box, persist the notification
// (idempotently), and — only if the box has a push subscriber — attempt
// one immediate delivery.
func (c *DeliveryCoordinator) SaveAndMaybePush(ctx context.Context, boxID string, req domain.PublishNotificationRequest) (domain.DeliveryResult, error) {
	box, err := c.boxes.GetBox(ctx, boxID)
	if errors.Is(err, domain.ErrBoxNotFound) {
		return domain.DeliveryResult{Outcome: domain.DeliveryBoxNotFound, Reason: "box not found"}, nil
	}
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("lookup box: %w", err)
	}

	notificationID := req.NotificationID
	if notificationID == "" {
		notificationID = uuid.New().String()
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID:     notificationID,
		BoxID:              boxID,
		MessageContentType: req.MessageContentType,
		Message:            req.Message,
		Status:             domain.StatusPending,
		CreatedDateTime:    now,
		MessageSizeBytes:   len(req.Message),
	}

	stored, err := c.store.Save(ctx, n)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("save notification: %w", err)
	}
	if !stored {
		existing, findErr := c.store.FindByID(ctx, notificationID)
		if findErr != nil {
			return domain.DeliveryResult{}, fmt.Errorf("lookup duplicate notification: %w", findErr)
		}
		return domain.DeliveryResult{Outcome: domain.DeliveryDuplicateSuppressed, Notification: existing, Reason: "notification already exists"}, nil
	}

	if box.HasValidPushSubscriber() {
		c.attemptPush(ctx, box, n)
	}

	return domain.DeliveryResult{Outcome: domain.DeliverySuccess, Notification: n}, nil
}

// attemptPush is best-effort: a successful push marks the notification
// pushed and ACKNOWLEDGED; any failure — including being unable to
// resolve the client's signing secret — leaves the notification PENDING
// with a retryAfterDateTime set, for RetrySweeper to pick up later.
func (c *DeliveryCoordinator) attemptPush(ctx context.Context, box *domain.Box, n *domain.Notification) {
	client, err := c.clients.FindOrCreateClient(ctx, box.BoxCreator.ClientID)
	if err != nil {
		c.logger.Warn("could not resolve client for push, deferring to retry sweep",
			zap.String("notification_id", n.NotificationID), zap.Error(err))
		c.deferRetry(ctx, n)
		return
	}

	secret, ok := client.ActiveSecret()
	if !ok {
		c.logger.Warn("client has no active secret, deferring to retry sweep",
			zap.String("client_id", client.ClientID))
		c.deferRetry(ctx, n)
		return
	}

	delivered, err := c.dispatcher.Push(ctx, box, n, secret)
	if err != nil || !delivered {
		c.deferRetry(ctx, n)
		return
	}

	if err := c.store.MarkPushed(ctx, n.NotificationID); err != nil {
		c.logger.Error("mark pushed failed", zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	pushed := time.Now().UTC()
	n.PushedDateTime = &pushed

	if err := c.store.UpdateStatus(ctx, n.NotificationID, domain.StatusAcknowledged); err != nil {
		c.logger.Error("acknowledge after push failed", zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	n.Status = domain.StatusAcknowledged
}

func (c *DeliveryCoordinator) deferRetry(ctx context.Context, n *domain.Notification) {
	retryAfter := time.Now().UTC().Add(c.initialRetryDelay)
	if err := c.store.ScheduleRetry(ctx, n.NotificationID, retryAfter); err != nil {
		c.logger.Error("schedule retry failed", zap.String("notification_id", n.NotificationID), zap.Error(err))
		return
	}
	n.RetryAfterDateTime = &retryAfter
}
