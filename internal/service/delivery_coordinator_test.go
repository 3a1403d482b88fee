package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/gateway"
	"github.com/ppnshub/notification-hub/internal/ratelimiter"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

func newCoordinator(t *testing.T, gw gateway.PushGateway) (*service.DeliveryCoordinator, *repository.MockBoxRepository, *service.BoxRegistry) {
	t.Helper()
	boxRepo := repository.NewMockBoxRepository()
	boxes := service.NewBoxRegistry(boxRepo, zap.NewNop())
	clients := service.NewClientRegistry(repository.NewMockClientRepository())
	store := repository.NewMockNotificationStore(boxRepo)
	dispatcher := service.NewPushDispatcher(gw, ratelimiter.New(1000), zap.NewNop())

	coordinator := service.NewDeliveryCoordinator(boxes, clients, store, dispatcher, 50*time.Millisecond, zap.NewNop())
	return coordinator, boxRepo, boxes
}

func TestSaveAndMaybePush_BoxNotFound(t *testing.T) {
	coordinator, _, _ := newCoordinator(t, &gateway.MockPushGateway{})

	result, err := coordinator.SaveAndMaybePush(context.Background(), "missing-box", domain.PublishNotificationRequest{
		MessageContentType: domain.ContentTypeJSON, Message: []byte("{}"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.DeliveryBoxNotFound {
		t.Fatalf("expected DeliveryBoxNotFound, got %v", result.Outcome)
	}
}

func TestSaveAndMaybePush_PullOnlyBoxSkipsPush(t *testing.T) {
	gw := &gateway.MockPushGateway{NotifySuccessful: true}
	coordinator, _, boxes := newCoordinator(t, gw)
	ctx := context.Background()

	created := boxes.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})

	result, err := coordinator.SaveAndMaybePush(ctx, created.Box.BoxID, domain.PublishNotificationRequest{
		MessageContentType: domain.ContentTypeJSON, Message: []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.DeliverySuccess {
		t.Fatalf("expected DeliverySuccess, got %v", result.Outcome)
	}
	if result.Notification.PushedDateTime != nil {
		t.Fatal("expected no push attempt for a pull-only box")
	}
}

func TestSaveAndMaybePush_PushBoxMarksPushedOnSuccess(t *testing.T) {
	gw := &gateway.MockPushGateway{NotifySuccessful: true}
	coordinator, boxRepo, boxes := newCoordinator(t, gw)
	ctx := context.Background()

	created := boxes.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})
	if err := boxRepo.UpdateSubscriber(ctx, created.Box.BoxID, &domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: "https://example.test/cb"}); err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}

	result, err := coordinator.SaveAndMaybePush(ctx, created.Box.BoxID, domain.PublishNotificationRequest{
		MessageContentType: domain.ContentTypeJSON, Message: []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Notification.PushedDateTime == nil {
		t.Fatal("expected pushedDateTime to be set on successful gateway delivery")
	}
	if result.Notification.RetryAfterDateTime != nil {
		t.Fatal("expected no retry scheduled on successful delivery")
	}
}

func TestSaveAndMaybePush_PushFailureSchedulesRetry(t *testing.T) {
	gw := &gateway.MockPushGateway{NotifySuccessful: false}
	coordinator, boxRepo, boxes := newCoordinator(t, gw)
	ctx := context.Background()

	created := boxes.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})
	if err := boxRepo.UpdateSubscriber(ctx, created.Box.BoxID, &domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: "https://example.test/cb"}); err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}

	result, err := coordinator.SaveAndMaybePush(ctx, created.Box.BoxID, domain.PublishNotificationRequest{
		MessageContentType: domain.ContentTypeJSON, Message: []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Notification.RetryAfterDateTime == nil {
		t.Fatal("expected retryAfterDateTime to be set on gateway-reported failure")
	}
	if result.Notification.Status != domain.StatusPending {
		t.Fatalf("expected status to remain PENDING after a push failure, got %v", result.Notification.Status)
	}
}

func TestSaveAndMaybePush_DuplicateNotificationIDSuppressed(t *testing.T) {
	coordinator, _, boxes := newCoordinator(t, &gateway.MockPushGateway{})
	ctx := context.Background()

	created := boxes.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})
	req := domain.PublishNotificationRequest{NotificationID: "fixed-id", MessageContentType: domain.ContentTypeJSON, Message: []byte(`{"a":1}`)}

	first, err := coordinator.SaveAndMaybePush(ctx, created.Box.BoxID, req)
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if first.Outcome != domain.DeliverySuccess {
		t.Fatalf("expected first publish to succeed, got %v", first.Outcome)
	}

	second, err := coordinator.SaveAndMaybePush(ctx, created.Box.BoxID, req)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if second.Outcome != domain.DeliveryDuplicateSuppressed {
		t.Fatalf("expected DeliveryDuplicateSuppressed, got %v", second.Outcome)
	}
}
