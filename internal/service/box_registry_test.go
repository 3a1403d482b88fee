package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

func newBoxRegistry() (*service.BoxRegistry, *repository.MockBoxRepository) {
	repo := repository.NewMockBoxRepository()
	return service.NewBoxRegistry(repo, zap.NewNop()), repo
}

func TestCreateBox_FirstCallCreates(t *testing.T) {
	registry, _ := newBoxRegistry()

	result := registry.CreateBox(context.Background(), domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})

	if result.Outcome != domain.BoxCreated {
		t.Fatalf("expected BoxCreated, got %v", result.Outcome)
	}
	if result.Box.BoxName != "inbox" || result.Box.BoxCreator.ClientID != "client-1" {
		t.Fatalf("unexpected box: %+v", result.Box)
	}
}

func TestCreateBox_SecondCallRetrievesExisting(t *testing.T) {
	registry, _ := newBoxRegistry()
	ctx := context.Background()

	first := registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})
	second := registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})

	if second.Outcome != domain.BoxRetrieved {
		t.Fatalf("expected BoxRetrieved, got %v", second.Outcome)
	}
	if second.Box.BoxID != first.Box.BoxID {
		t.Fatalf("expected same box id across create-or-retrieve calls")
	}
}

func TestCreateBox_SameNameDifferentClientCreatesSeparateBox(t *testing.T) {
	registry, _ := newBoxRegistry()
	ctx := context.Background()

	first := registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})
	second := registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-2"})

	if second.Outcome != domain.BoxCreated {
		t.Fatalf("expected BoxCreated for a different client, got %v", second.Outcome)
	}
	if second.Box.BoxID == first.Box.BoxID {
		t.Fatalf("expected distinct boxes for distinct clients")
	}
}

func TestGetBoxByNameAndClientID_Found(t *testing.T) {
	registry, _ := newBoxRegistry()
	ctx := context.Background()

	created := registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "inbox", ClientID: "client-1"})

	box, err := registry.GetBoxByNameAndClientID(ctx, "inbox", "client-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.BoxID != created.Box.BoxID {
		t.Fatalf("expected box id %s, got %s", created.Box.BoxID, box.BoxID)
	}
}

func TestGetBoxByNameAndClientID_NotFound(t *testing.T) {
	registry, _ := newBoxRegistry()

	_, err := registry.GetBoxByNameAndClientID(context.Background(), "missing", "client-1")
	if err != domain.ErrBoxNotFound {
		t.Fatalf("expected ErrBoxNotFound, got %v", err)
	}
}

func TestListBoxesByClientID(t *testing.T) {
	registry, _ := newBoxRegistry()
	ctx := context.Background()

	registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "a", ClientID: "client-1"})
	registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "b", ClientID: "client-1"})
	registry.CreateBox(ctx, domain.CreateBoxRequest{BoxName: "c", ClientID: "client-2"})

	boxes, err := registry.ListBoxesByClientID(ctx, "client-1")
	if err != nil {
		t.Fatalf("list boxes: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("expected 2 boxes for client-1, got %d", len(boxes))
	}
}
