package domain

import "time"

// Actor identifies who (if anyone) triggered an audit event. The hub
// currently emits only system-originated events, so ActorType is always
// "UNKNOWN" and ID is always empty (spec.md §4.7 step 5).
type Actor struct {
	ID        string `json:"id"`
	ActorType string `json:"actorType"`
}

// CallbackURIUpdatedEvent is posted to the external application-events
// sink whenever validateCallbackUrl changes a box's callback URL.
type CallbackURIUpdatedEvent struct {
	EventID        string    `json:"eventId"`
	ApplicationID  string    `json:"applicationId,omitempty"`
	EventDateTime  time.Time `json:"eventDateTime"`
	OldCallbackURL string    `json:"oldCallbackUrl"`
	NewCallbackURL string    `json:"newCallbackUrl"`
	BoxID          string    `json:"boxId"`
	BoxName        string    `json:"boxName"`
	Actor          Actor     `json:"actor"`
	EventType      string    `json:"eventType"`
}

const CallbackURIUpdatedEventType = "PPNS_CALLBACK_URI_UPDATED"
