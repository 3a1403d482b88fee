package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/cryptobox"
	"github.com/ppnshub/notification-hub/internal/domain"
)

// RetryablePair is one item yielded by StreamRetryable: a notification
// still due for push, paired with the box that owns it so the caller
// never needs a second round-trip to check subscriber validity.
type RetryablePair struct {
	Notification *domain.Notification
	Box          *domain.Box
}

// NotificationStore is the raw persistence layer for notifications.
// Messages are sealed with cryptobox before they ever reach Mongo and
// opened on the way back out — no plaintext payload is written at rest.
type NotificationStore interface {
	Save(ctx context.Context, n *domain.Notification) (stored bool, err error)
	ListByBoxID(ctx context.Context, boxID string, filter domain.ListFilter) ([]*domain.Notification, error)
	FindByID(ctx context.Context, notificationID string) (*domain.Notification, error)
	Acknowledge(ctx context.Context, boxID string, notificationIDs []string) (matched bool, err error)
	UpdateStatus(ctx context.Context, notificationID string, status domain.Status) error
	ScheduleRetry(ctx context.Context, notificationID string, retryAfter time.Time) error
	MarkPushed(ctx context.Context, notificationID string) error
	// StreamRetryable yields notifications due for a retry sweep, paired
	// with their owning box. The channel closes when the current sweep
	// window is exhausted or ctx is cancelled; a fresh call starts a new
	// window, so the stream is restartable by design (SPEC_FULL.md §4.6).
	StreamRetryable(ctx context.Context) (<-chan RetryablePair, error)
}

const retrySweepBatchSize = 200
const retrySweepBufferSize = 200

// notificationDoc is the on-wire Mongo shape: the plaintext Message never
// leaves the domain type, only its sealed form is stored.
type notificationDoc struct {
	NotificationID     string     `bson:"notificationId"`
	BoxID              string     `bson:"boxId"`
	MessageContentType string     `bson:"messageContentType"`
	CipherText         []byte     `bson:"message"`
	Status             string     `bson:"status"`
	CreatedDateTime    time.Time  `bson:"createdDateTime"`
	RetryAfterDateTime *time.Time `bson:"retryAfterDateTime,omitempty"`
	ReadDateTime       *time.Time `bson:"readDateTime,omitempty"`
	PushedDateTime     *time.Time `bson:"pushedDateTime,omitempty"`
	MessageSizeBytes   int        `bson:"messageSizeBytes"`
	DeliveryAttempts   int        `bson:"deliveryAttempts"`
}

type mongoNotificationStore struct {
	coll   *mongo.Collection
	boxes  BoxRepository
	sealer *cryptobox.Box
	logger *zap.Logger
}

func NewMongoNotificationStore(db *mongo.Database, boxes BoxRepository, sealer *cryptobox.Box, logger *zap.Logger) NotificationStore {
	return &mongoNotificationStore{
		coll:   db.Collection("notifications"),
		boxes:  boxes,
		sealer: sealer,
		logger: logger,
	}
}

// EnsureNotificationIndexes creates the compound unique index that backs
// idempotent ingestion, the (boxId, createdDateTime) index behind
// ListByBoxID, and the TTL index on createdDateTime.
func EnsureNotificationIndexes(ctx context.Context, db *mongo.Database, ttl time.Duration) error {
	coll := db.Collection("notifications")

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "notificationId", Value: 1}, {Key: "boxId", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_notification_box_status"),
	}); err != nil {
		return fmt.Errorf("create uniq_notification_box_status: %w", err)
	}

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "boxId", Value: 1}, {Key: "createdDateTime", Value: 1}},
		Options: options.Index().SetName("boxid_createddatetime"),
	}); err != nil {
		return fmt.Errorf("create boxid_createddatetime: %w", err)
	}

	if err := ensureTTLIndex(ctx, coll, int32(ttl.Seconds())); err != nil {
		return fmt.Errorf("ensure ttl_createddatetime: %w", err)
	}

	return nil
}

// ensureTTLIndex creates the TTL index on first run and, on every
// subsequent startup, detects a live TTL declaration whose
// expireAfterSeconds disagrees with the configured value and replaces it —
// a plain CreateOne is not idempotent across a changed TTL, since Mongo
// rejects creating an index under an existing name with different options
// (spec.md §4.3: "the store must detect that its existing TTL declaration
// disagrees with config and replace it at startup").
func ensureTTLIndex(ctx context.Context, coll *mongo.Collection, ttlSeconds int32) error {
	const indexName = "ttl_createddatetime"

	specs, err := coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	for _, spec := range specs {
		if spec.Name != indexName {
			continue
		}
		if spec.ExpireAfterSeconds != nil && *spec.ExpireAfterSeconds == ttlSeconds {
			return nil
		}
		if _, err := coll.Indexes().DropOne(ctx, indexName); err != nil {
			return fmt.Errorf("drop stale ttl index: %w", err)
		}
		break
	}

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdDateTime", Value: 1}},
		Options: options.Index().SetName(indexName).SetExpireAfterSeconds(ttlSeconds),
	})
	return err
}

func toDoc(n *domain.Notification, sealer *cryptobox.Box) (*notificationDoc, error) {
	sealed, err := sealer.Seal(n.Message)
	if err != nil {
		return nil, fmt.Errorf("seal message: %w", err)
	}
	return &notificationDoc{
		NotificationID:     n.NotificationID,
		BoxID:              n.BoxID,
		MessageContentType: string(n.MessageContentType),
		CipherText:         sealed,
		Status:             string(n.Status),
		CreatedDateTime:    n.CreatedDateTime,
		RetryAfterDateTime: n.RetryAfterDateTime,
		ReadDateTime:       n.ReadDateTime,
		PushedDateTime:     n.PushedDateTime,
		MessageSizeBytes:   n.MessageSizeBytes,
		DeliveryAttempts:   n.DeliveryAttempts,
	}, nil
}

func fromDoc(d *notificationDoc, sealer *cryptobox.Box) (*domain.Notification, error) {
	plaintext, err := sealer.Open(d.CipherText)
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	return &domain.Notification{
		NotificationID:     d.NotificationID,
		BoxID:              d.BoxID,
		MessageContentType: domain.ContentType(d.MessageContentType),
		Message:            plaintext,
		Status:             domain.Status(d.Status),
		CreatedDateTime:    d.CreatedDateTime,
		RetryAfterDateTime: d.RetryAfterDateTime,
		ReadDateTime:       d.ReadDateTime,
		PushedDateTime:     d.PushedDateTime,
		MessageSizeBytes:   d.MessageSizeBytes,
		DeliveryAttempts:   d.DeliveryAttempts,
	}, nil
}

func (s *mongoNotificationStore) Save(ctx context.Context, n *domain.Notification) (bool, error) {
	doc, err := toDoc(n, s.sealer)
	if err != nil {
		return false, err
	}
	_, err = s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

func (s *mongoNotificationStore) ListByBoxID(ctx context.Context, boxID string, filter domain.ListFilter) ([]*domain.Notification, error) {
	query := bson.M{"boxId": boxID}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.From != nil || filter.To != nil {
		createdRange := bson.M{}
		if filter.From != nil {
			createdRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			createdRange["$lte"] = *filter.To
		}
		query["createdDateTime"] = createdRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdDateTime", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Notification
	for cur.Next(ctx) {
		var d notificationDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		n, err := fromDoc(&d, s.sealer)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, cur.Err()
}

func (s *mongoNotificationStore) FindByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var d notificationDoc
	err := s.coll.FindOne(ctx, bson.M{"notificationId": notificationID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return fromDoc(&d, s.sealer)
}

// Acknowledge sets status := ACKNOWLEDGED for every matching notification
// whose status is still PENDING (spec.md §4.3) — an already-terminal
// notification (ACKNOWLEDGED or FAILED) is left untouched. The write is
// considered successful whenever it does not error, even if fewer
// documents matched than ids were supplied: a second, idempotent call over
// already-acknowledged ids must still report success (spec.md §8).
func (s *mongoNotificationStore) Acknowledge(ctx context.Context, boxID string, notificationIDs []string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"boxId": boxID, "notificationId": bson.M{"$in": notificationIDs}, "status": string(domain.StatusPending)},
		bson.M{"$set": bson.M{"status": string(domain.StatusAcknowledged), "readDateTime": now}},
	)
	if err != nil {
		return false, fmt.Errorf("acknowledge notifications: %w", err)
	}
	if int(res.ModifiedCount) < len(notificationIDs) {
		s.logger.Warn("acknowledge matched fewer notifications than requested",
			zap.String("box_id", boxID),
			zap.Int("requested", len(notificationIDs)),
			zap.Int64("modified", res.ModifiedCount),
		)
	}
	return true, nil
}

func (s *mongoNotificationStore) UpdateStatus(ctx context.Context, notificationID string, status domain.Status) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"notificationId": notificationID},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *mongoNotificationStore) ScheduleRetry(ctx context.Context, notificationID string, retryAfter time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"notificationId": notificationID},
		bson.M{"$set": bson.M{"retryAfterDateTime": retryAfter}, "$inc": bson.M{"deliveryAttempts": 1}},
	)
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *mongoNotificationStore) MarkPushed(ctx context.Context, notificationID string) error {
	now := time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"notificationId": notificationID},
		bson.M{"$set": bson.M{"pushedDateTime": now}},
	)
	if err != nil {
		return fmt.Errorf("mark pushed: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// StreamRetryable runs the sweep query in a batch and fans the results out
// over a bounded channel populated by a background goroutine, so the
// sweeper can begin pushing the first item before the whole batch has
// been read off the wire. Boxes are cached per-call since a single sweep
// window typically touches far fewer boxes than notifications.
func (s *mongoNotificationStore) StreamRetryable(ctx context.Context) (<-chan RetryablePair, error) {
	now := time.Now().UTC()
	query := bson.M{
		"status": string(domain.StatusPending),
		"$or": []bson.M{
			{"retryAfterDateTime": bson.M{"$exists": false}},
			{"retryAfterDateTime": bson.M{"$lte": now}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdDateTime", Value: 1}}).SetLimit(retrySweepBatchSize)

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("stream retryable: %w", err)
	}

	out := make(chan RetryablePair, retrySweepBufferSize)

	go func() {
		defer close(out)
		defer cur.Close(ctx)

		boxCache := make(map[string]*domain.Box)

		for cur.Next(ctx) {
			var d notificationDoc
			if err := cur.Decode(&d); err != nil {
				return
			}
			n, err := fromDoc(&d, s.sealer)
			if err != nil {
				continue
			}

			box, ok := boxCache[n.BoxID]
			if !ok {
				box, err = s.boxes.FindByID(ctx, n.BoxID)
				if err != nil {
					continue
				}
				boxCache[n.BoxID] = box
			}
			if !box.HasValidPushSubscriber() {
				continue
			}

			select {
			case out <- RetryablePair{Notification: n, Box: box}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
