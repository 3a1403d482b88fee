package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/eventssink"
	"github.com/ppnshub/notification-hub/internal/gateway"
)

// CallbackValidator implements validateCallbackUrl (spec.md §4.7):
// authorize, probe the candidate URL through the push gateway, persist
// the new subscriber binding, and emit an audit event on change.
type CallbackValidator struct {
	boxes  *BoxRegistry
	gw     gateway.PushGateway
	events eventssink.EventsEmitter
	logger *zap.Logger
}

func NewCallbackValidator(boxes *BoxRegistry, gw gateway.PushGateway, events eventssink.EventsEmitter, logger *zap.Logger) *CallbackValidator {
	return &CallbackValidator{boxes: boxes, gw: gw, events: events, logger: logger}
}

// ValidateCallbackURL is the PUT /box/{boxId}/callback handler's core
// operation. An empty CallbackURL switches the box to pull-only — its
// subscriber becomes Pull and no callback probe is performed.
func (v *CallbackValidator) ValidateCallbackURL(ctx context.Context, boxID string, req domain.UpdateCallbackUrlRequest) (domain.CallbackUpdateResult, error) {
	box, err := v.boxes.GetBox(ctx, boxID)
	if errors.Is(err, domain.ErrBoxNotFound) {
		return domain.CallbackUpdateResult{Outcome: domain.CallbackBoxNotFound, Reason: "box not found"}, nil
	}
	if err != nil {
		return domain.CallbackUpdateResult{}, fmt.Errorf("lookup box: %w", err)
	}

	if box.BoxCreator.ClientID != req.ClientID {
		return domain.CallbackUpdateResult{Outcome: domain.CallbackUnauthorized, Reason: "clientId does not match boxCreator"}, nil
	}

	oldCallbackURL := ""
	if box.Subscriber != nil {
		oldCallbackURL = box.Subscriber.CallbackURL
	}

	newSubscriber, outcome, reason, err := v.resolveSubscriber(ctx, req.CallbackURL)
	if err != nil {
		return domain.CallbackUpdateResult{}, fmt.Errorf("probe callback url: %w", err)
	}
	if outcome != domain.CallbackUpdated {
		return domain.CallbackUpdateResult{Outcome: outcome, Box: box, Reason: reason}, nil
	}

	if err := v.boxes.UpdateSubscriber(ctx, boxID, newSubscriber); err != nil {
		v.logger.Error("persist subscriber failed", zap.String("box_id", boxID), zap.Error(err))
		return domain.CallbackUpdateResult{Outcome: domain.CallbackUnableToUpdate, Box: box, Reason: "storage failure"}, nil
	}

	box.Subscriber = newSubscriber
	box.UpdatedDateTime = time.Now().UTC()

	if oldCallbackURL != req.CallbackURL {
		v.events.EmitCallbackURIUpdated(ctx, domain.CallbackURIUpdatedEvent{
			EventID:        uuid.New().String(),
			ApplicationID:  box.ApplicationID,
			EventDateTime:  time.Now().UTC(),
			OldCallbackURL: oldCallbackURL,
			NewCallbackURL: req.CallbackURL,
			BoxID:          box.BoxID,
			BoxName:        box.BoxName,
			Actor:          domain.Actor{ActorType: "UNKNOWN"},
			EventType:      domain.CallbackURIUpdatedEventType,
		})
	}

	return domain.CallbackUpdateResult{Outcome: domain.CallbackUpdated, Box: box}, nil
}

// resolveSubscriber probes callbackURL through the gateway when non-empty;
// an empty URL switches the box to pull-only without a probe.
func (v *CallbackValidator) resolveSubscriber(ctx context.Context, callbackURL string) (*domain.Subscriber, domain.CallbackUpdateOutcome, string, error) {
	now := time.Now().UTC()

	if callbackURL == "" {
		return &domain.Subscriber{Kind: domain.SubscriberPull, Since: now}, domain.CallbackUpdated, "", nil
	}

	successful, errorMessage, err := v.gw.ValidateCallback(ctx, callbackURL)
	if err != nil {
		return nil, 0, "", err
	}
	if !successful {
		return nil, domain.CallbackValidationFailed, errorMessage, nil
	}

	return &domain.Subscriber{Kind: domain.SubscriberPush, CallbackURL: callbackURL, Since: now}, domain.CallbackUpdated, "", nil
}
