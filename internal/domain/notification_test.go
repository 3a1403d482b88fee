package domain_test

import (
	"testing"

	"github.com/ppnshub/notification-hub/internal/domain"
)

func TestContentType_IsValid(t *testing.T) {
	cases := []struct {
		ct    domain.ContentType
		valid bool
	}{
		{domain.ContentTypeJSON, true},
		{domain.ContentTypeXML, true},
		{"text/plain", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := tc.ct.IsValid(); got != tc.valid {
			t.Fatalf("ContentType(%q).IsValid() = %v, want %v", tc.ct, got, tc.valid)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	cases := []struct {
		status   domain.Status
		terminal bool
	}{
		{domain.StatusPending, false},
		{domain.StatusAcknowledged, true},
		{domain.StatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.IsTerminal(); got != tc.terminal {
			t.Fatalf("Status(%q).IsTerminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestSubscriber_IsValidPush(t *testing.T) {
	t.Run("push with url is valid", func(t *testing.T) {
		s := domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: "https://example.com/cb"}
		if !s.IsValidPush() {
			t.Fatal("expected push subscriber with URL to be valid")
		}
	})

	t.Run("push without url is invalid", func(t *testing.T) {
		s := domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: ""}
		if s.IsValidPush() {
			t.Fatal("expected push subscriber without URL to be invalid")
		}
	})

	t.Run("pull is never a valid push subscriber", func(t *testing.T) {
		s := domain.Subscriber{Kind: domain.SubscriberPull}
		if s.IsValidPush() {
			t.Fatal("expected pull subscriber to never be push-valid")
		}
	})

	t.Run("zero value has no subscriber", func(t *testing.T) {
		var s domain.Subscriber
		if s.HasSubscriber() {
			t.Fatal("expected zero value to report no subscriber")
		}
	})
}

func TestBox_HasValidPushSubscriber_NilSafe(t *testing.T) {
	b := &domain.Box{BoxID: "b1"}
	if b.HasValidPushSubscriber() {
		t.Fatal("expected box with nil subscriber to not be push-valid")
	}

	b.Subscriber = &domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: "https://x/cb"}
	if !b.HasValidPushSubscriber() {
		t.Fatal("expected box with push subscriber + URL to be push-valid")
	}
}
