// Package eventssink posts audit records to the external application-events
// service (spec.md §4.7 step 5, §6). It is a deliberate collaborator at the
// edge of the core: emission failure must never fail the operation that
// triggered it.
package eventssink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
)

const callbackURIUpdatedPath = "/application-events/ppnsCallbackUriUpdated"

// EventsEmitter abstracts the audit events sink so CallbackValidator can
// be tested without a real HTTP call.
type EventsEmitter interface {
	EmitCallbackURIUpdated(ctx context.Context, event domain.CallbackURIUpdatedEvent)
}

// Client posts PPNS_CALLBACK_URI_UPDATED events. Its single method never
// returns an error to its caller — it logs and swallows, per spec.md
// §4.7/§7 (AuditEmitFailure: logged, swallowed).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// EmitCallbackURIUpdated posts the event and logs (but does not propagate)
// any failure. Success is an HTTP 201, per spec.md §6.
func (c *Client) EmitCallbackURIUpdated(ctx context.Context, event domain.CallbackURIUpdatedEvent) {
	if err := c.post(ctx, event); err != nil {
		c.logger.Warn("audit event emission failed",
			zap.String("event_type", event.EventType),
			zap.String("box_id", event.BoxID),
			zap.Error(err),
		)
	}
}

func (c *Client) post(ctx context.Context, event domain.CallbackURIUpdatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+callbackURIUpdatedPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected events-sink status: %d", resp.StatusCode)
	}
	return nil
}
