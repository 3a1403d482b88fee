package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/gateway"
	"github.com/ppnshub/notification-hub/internal/metrics"
	"github.com/ppnshub/notification-hub/internal/ratelimiter"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
	"github.com/ppnshub/notification-hub/internal/worker"
)

func newSweeper(t *testing.T, gw gateway.PushGateway) (*worker.RetrySweeper, repository.NotificationStore, repository.BoxRepository) {
	t.Helper()
	boxRepo := repository.NewMockBoxRepository()
	store := repository.NewMockNotificationStore(boxRepo)
	clients := service.NewClientRegistry(repository.NewMockClientRepository())
	dispatcher := service.NewPushDispatcher(gw, ratelimiter.New(1000), zap.NewNop())
	m := metrics.New(prometheus.NewRegistry())

	sweeper := worker.NewRetrySweeper(store, dispatcher, clients,
		50*time.Millisecond, 10*time.Millisecond, time.Minute, time.Hour, m, zap.NewNop())
	return sweeper, store, boxRepo
}

func seedPushableBox(t *testing.T, boxRepo repository.BoxRepository) *domain.Box {
	t.Helper()
	box := &domain.Box{
		BoxID:      "box-1",
		BoxName:    "inbox",
		BoxCreator: domain.BoxCreator{ClientID: "client-1"},
		Subscriber: &domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: "https://example.test/cb"},
	}
	if err := boxRepo.Insert(context.Background(), box); err != nil {
		t.Fatalf("seed box: %v", err)
	}
	return box
}

func TestRetrySweeper_DeliversDueNotification(t *testing.T) {
	gw := &gateway.MockPushGateway{NotifySuccessful: true}
	sweeper, store, boxRepo := newSweeper(t, gw)
	ctx := context.Background()
	seedPushableBox(t, boxRepo)

	n := &domain.Notification{
		NotificationID: "n-1", BoxID: "box-1", Status: domain.StatusPending,
		CreatedDateTime: time.Now().UTC(), MessageContentType: domain.ContentTypeJSON, Message: []byte("{}"),
	}
	if _, err := store.Save(ctx, n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	sweepOnce(t, sweeper)

	stored, err := store.FindByID(ctx, "n-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PushedDateTime == nil {
		t.Fatal("expected notification to have been pushed by the sweep")
	}
}

func TestRetrySweeper_ExhaustedWindowMarksFailed(t *testing.T) {
	gw := &gateway.MockPushGateway{NotifySuccessful: false}
	sweeper, store, boxRepo := newSweeperWithWindow(t, gw, time.Millisecond)
	ctx := context.Background()
	seedPushableBox(t, boxRepo)

	n := &domain.Notification{
		NotificationID: "n-1", BoxID: "box-1", Status: domain.StatusPending,
		CreatedDateTime: time.Now().UTC().Add(-time.Hour), MessageContentType: domain.ContentTypeJSON, Message: []byte("{}"),
	}
	if _, err := store.Save(ctx, n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	sweepOnce(t, sweeper)

	stored, err := store.FindByID(ctx, "n-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != domain.StatusFailed {
		t.Fatalf("expected StatusFailed after window exhaustion, got %v", stored.Status)
	}
}

func newSweeperWithWindow(t *testing.T, gw gateway.PushGateway, retryWindow time.Duration) (*worker.RetrySweeper, repository.NotificationStore, repository.BoxRepository) {
	t.Helper()
	boxRepo := repository.NewMockBoxRepository()
	store := repository.NewMockNotificationStore(boxRepo)
	clients := service.NewClientRegistry(repository.NewMockClientRepository())
	dispatcher := service.NewPushDispatcher(gw, ratelimiter.New(1000), zap.NewNop())
	m := metrics.New(prometheus.NewRegistry())

	sweeper := worker.NewRetrySweeper(store, dispatcher, clients,
		50*time.Millisecond, 10*time.Millisecond, time.Minute, retryWindow, m, zap.NewNop())
	return sweeper, store, boxRepo
}

// sweepOnce drives exactly one sweep cycle by running the sweeper and
// cancelling shortly after the first tick, since Run's loop is private.
func sweepOnce(t *testing.T, sweeper *worker.RetrySweeper) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()
	sweeper.Run(ctx)
}
