package domain

import "time"

// SubscriberKind discriminates the two binding modes a box can have.
type SubscriberKind string

const (
	SubscriberNone SubscriberKind = ""
	SubscriberPush SubscriberKind = "push"
	SubscriberPull SubscriberKind = "pull"
)

// Subscriber models the consumer binding of a box as a tagged variant
// rather than an inheritance hierarchy. Only Push carries a CallbackURL;
// Pull's URL field is vestigial and never populated (spec §9 open question).
type Subscriber struct {
	Kind        SubscriberKind `bson:"kind" json:"subscriberType,omitempty"`
	CallbackURL string         `bson:"callbackUrl,omitempty" json:"callbackUrl,omitempty"`
	Since       time.Time      `bson:"since,omitempty" json:"-"`
}

// IsValidPush reports whether the subscriber is a push subscriber with a
// non-empty callback URL — the predicate used throughout the core to
// decide whether a box is eligible for outbound push.
func (s Subscriber) IsValidPush() bool {
	return s.Kind == SubscriberPush && s.CallbackURL != ""
}

// HasSubscriber reports whether the box has any bound consumer at all.
func (s Subscriber) HasSubscriber() bool {
	return s.Kind != SubscriberNone
}

// BoxCreator identifies the owning client of a box.
type BoxCreator struct {
	ClientID string `bson:"clientId" json:"clientId"`
}

// Box is a named mailbox owned by a client; the unit of subscription and
// the destination of publishes.
type Box struct {
	BoxID           string      `bson:"_id" json:"boxId"`
	BoxName         string      `bson:"boxName" json:"boxName"`
	BoxCreator      BoxCreator  `bson:"boxCreator" json:"boxCreator"`
	ApplicationID   string      `bson:"applicationId,omitempty" json:"applicationId,omitempty"`
	Subscriber      *Subscriber `bson:"subscriber,omitempty" json:"subscriber,omitempty"`
	CreatedDateTime time.Time   `bson:"createdDateTime" json:"createdDateTime"`
	UpdatedDateTime time.Time   `bson:"updatedDateTime" json:"updatedDateTime"`
}

// HasValidPushSubscriber is nil-safe: an absent subscriber behaves as
// pull-only and is never push-eligible.
func (b *Box) HasValidPushSubscriber() bool {
	return b.Subscriber != nil && b.Subscriber.IsValidPush()
}

// CreateBoxRequest is the inbound payload for PUT /box.
type CreateBoxRequest struct {
	BoxName  string `json:"boxName" validate:"required"`
	ClientID string `json:"clientId" validate:"required"`
}

// CreateBoxOutcome is the tagged result of BoxRegistry.createBox.
type CreateBoxOutcome int

const (
	BoxCreated CreateBoxOutcome = iota
	BoxRetrieved
	BoxCreateFailed
)

// CreateBoxResult carries the outcome of createBox plus the resulting box
// (on Created/Retrieved) or a failure reason (on Failed).
type CreateBoxResult struct {
	Outcome CreateBoxOutcome
	Box     *Box
	Reason  string
}

// UpdateCallbackUrlRequest is the inbound payload for PUT /box/{boxId}/callback.
type UpdateCallbackUrlRequest struct {
	ClientID    string `json:"clientId" validate:"required"`
	CallbackURL string `json:"callbackUrl" validate:"omitempty,url"`
}

// CallbackUpdateOutcome is the tagged result of CallbackValidator.validateCallbackUrl.
type CallbackUpdateOutcome int

const (
	CallbackUpdated CallbackUpdateOutcome = iota
	CallbackValidationFailed
	CallbackUnableToUpdate
	CallbackBoxNotFound
	CallbackUnauthorized
)

// CallbackUpdateResult carries the outcome of validateCallbackUrl.
type CallbackUpdateResult struct {
	Outcome CallbackUpdateOutcome
	Box     *Box
	Reason  string
}
