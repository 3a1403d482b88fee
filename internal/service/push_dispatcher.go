package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/gateway"
	"github.com/ppnshub/notification-hub/internal/ratelimiter"
)

// signatureHeader is the forwarded header name the callback receiver uses
// to verify a push actually came from this hub.
const signatureHeader = "X-Hub-Signature"

// PushDispatcher builds the outbound envelope, signs it, and calls the
// external push gateway. It never retries itself — that is
// RetrySweeper's job — it only reports what happened on one attempt.
type PushDispatcher struct {
	gw      gateway.PushGateway
	limiter *ratelimiter.ClientLimiters
	logger  *zap.Logger
}

func NewPushDispatcher(gw gateway.PushGateway, limiter *ratelimiter.ClientLimiters, logger *zap.Logger) *PushDispatcher {
	return &PushDispatcher{gw: gw, limiter: limiter, logger: logger}
}

// Push attempts one delivery of n to box's push subscriber, authenticated
// with clientSecret. delivered reports the gateway's own verdict; err is
// non-nil when no verdict was obtained at all — a cancelled rate-limiter
// wait, an envelope that failed to marshal, or a transport/breaker failure
// — both are retryable from the caller's point of view, but only err is
// worth logging as an infrastructure event.
func (d *PushDispatcher) Push(ctx context.Context, box *domain.Box, n *domain.Notification, clientSecret domain.ClientSecret) (delivered bool, err error) {
	if err := d.limiter.Wait(ctx, box.BoxCreator.ClientID); err != nil {
		return false, fmt.Errorf("rate limiter wait: %w", err)
	}

	envelopeBytes, err := json.Marshal(n)
	if err != nil {
		return false, fmt.Errorf("marshal notification envelope: %w", err)
	}
	signature := sign(clientSecret, envelopeBytes)

	envelope := gateway.OutboundNotification{
		DestinationURL: box.Subscriber.CallbackURL,
		ForwardedHeaders: []gateway.ForwardedHeader{
			{Key: "Content-Type", Value: string(n.MessageContentType)},
			{Key: signatureHeader, Value: signature},
		},
		Payload: json.RawMessage(envelopeBytes),
	}

	successful, err := d.gw.Notify(ctx, envelope)
	if err != nil {
		d.logger.Warn("push gateway call failed",
			zap.String("notification_id", n.NotificationID),
			zap.String("box_id", box.BoxID),
			zap.Bool("breaker_open", gateway.IsBreakerOpen(err)),
			zap.Error(err),
		)
		return false, err
	}

	return successful, nil
}

// sign computes the hex-encoded HMAC-SHA1 of envelopeBytes keyed by secret.
// HMAC is the one signing primitive with no library anywhere in the
// retrieval corpus, so it is built directly on the standard library as
// documented in SPEC_FULL.md's domain stack table.
func sign(secret domain.ClientSecret, envelopeBytes []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(envelopeBytes)
	return hex.EncodeToString(mac.Sum(nil))
}
