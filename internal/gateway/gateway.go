// Package gateway talks to the external push gateway: the service that
// performs the actual outbound HTTPS call to a customer's callback and
// probes candidate callback URLs (spec.md §4.4, §4.7, §6). It is the only
// package in this repo that knows the gateway's wire format.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ForwardedHeader is a single header the gateway must pass through
// verbatim to the customer's callback (spec.md §4.4 step 4).
type ForwardedHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OutboundNotification is the body of POST {outboundUrl}/notify.
type OutboundNotification struct {
	DestinationURL   string            `json:"destinationUrl"`
	ForwardedHeaders []ForwardedHeader `json:"forwardedHeaders"`
	Payload          json.RawMessage   `json:"payload"`
}

type notifyResponse struct {
	Successful bool `json:"successful"`
}

// ValidateCallbackRequest is the body of POST {outboundUrl}/validate-callback.
type ValidateCallbackRequest struct {
	CallbackURL string `json:"callbackUrl"`
}

type validateCallbackResponse struct {
	Successful   bool   `json:"successful"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// PushGateway abstracts the external push gateway so PushDispatcher and
// CallbackValidator can be tested without real HTTP calls, mirroring how
// the original provider abstraction separated transport from business
// logic.
type PushGateway interface {
	Notify(ctx context.Context, n OutboundNotification) (bool, error)
	ValidateCallback(ctx context.Context, callbackURL string) (successful bool, errorMessage string, err error)
}

// Client is the concrete push-gateway client. One breaker per RPC keeps a
// dead gateway from accumulating timed-out requests against either
// endpoint independently (SPEC_FULL.md §4.4 supplement).
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client

	notifyBreaker   *gobreaker.CircuitBreaker
	validateBreaker *gobreaker.CircuitBreaker
}

func New(baseURL, authToken string, timeout time.Duration) *Client {
	breakerSettings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}
	}

	return &Client{
		baseURL:         baseURL,
		authToken:       authToken,
		httpClient:      &http.Client{Timeout: timeout},
		notifyBreaker:   gobreaker.NewCircuitBreaker(breakerSettings("gateway-notify")),
		validateBreaker: gobreaker.NewCircuitBreaker(breakerSettings("gateway-validate-callback")),
	}
}

// Notify posts the envelope to the gateway's /notify RPC and reports
// whether the gateway itself reports a successful delivery. It never
// returns a panic-worthy error to the caller — any transport, decode, or
// breaker-open failure comes back as a plain error for the caller to
// classify (spec.md §4.4: "No throw escapes").
func (c *Client) Notify(ctx context.Context, n OutboundNotification) (bool, error) {
	result, err := c.notifyBreaker.Execute(func() (interface{}, error) {
		var resp notifyResponse
		if err := c.post(ctx, "/notify", n, &resp); err != nil {
			return false, err
		}
		return resp.Successful, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// ValidateCallback posts a candidate callback URL to the gateway's
// /validate-callback RPC.
func (c *Client) ValidateCallback(ctx context.Context, callbackURL string) (successful bool, errorMessage string, err error) {
	result, err := c.validateBreaker.Execute(func() (interface{}, error) {
		var resp validateCallbackResponse
		if err := c.post(ctx, "/validate-callback", ValidateCallbackRequest{CallbackURL: callbackURL}, &resp); err != nil {
			return validateCallbackResponse{}, err
		}
		return resp, nil
	})
	if err != nil {
		return false, "", err
	}
	resp := result.(validateCallbackResponse)
	return resp.Successful, resp.ErrorMessage, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected gateway status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// ErrBreakerOpen is returned by gobreaker when a breaker is tripped; kept
// here so callers can recognise it without importing gobreaker directly.
var ErrBreakerOpen = gobreaker.ErrOpenState

func IsBreakerOpen(err error) bool {
	return errors.Is(err, ErrBreakerOpen)
}
