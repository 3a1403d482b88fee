package service_test

import (
	"context"
	"testing"

	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
)

func TestFindOrCreateClient_CreatesOnFirstReference(t *testing.T) {
	repo := repository.NewMockClientRepository()
	registry := service.NewClientRegistry(repo)
	ctx := context.Background()

	client, err := registry.FindOrCreateClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	secret, ok := client.ActiveSecret()
	if !ok || secret == "" {
		t.Fatal("expected a generated active secret")
	}
	if len(secret) < 22 {
		t.Fatalf("expected a secret with at least 128 bits of entropy, got %d chars", len(secret))
	}
}

func TestFindOrCreateClient_SecondCallReturnsSameSecret(t *testing.T) {
	repo := repository.NewMockClientRepository()
	registry := service.NewClientRegistry(repo)
	ctx := context.Background()

	first, err := registry.FindOrCreateClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := registry.FindOrCreateClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	firstSecret, _ := first.ActiveSecret()
	secondSecret, _ := second.ActiveSecret()
	if firstSecret != secondSecret {
		t.Fatal("expected stable secret across repeated find-or-create calls")
	}
}
