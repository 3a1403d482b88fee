package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ppnshub/notification-hub/internal/domain"
)

// BoxRepository is the raw persistence layer for boxes. Authorization and
// create-or-retrieve semantics live one layer up, in service.BoxRegistry —
// this type only knows how to talk to the boxes collection.
type BoxRepository interface {
	Insert(ctx context.Context, box *domain.Box) error
	FindByID(ctx context.Context, boxID string) (*domain.Box, error)
	FindByNameAndClientID(ctx context.Context, boxName, clientID string) (*domain.Box, error)
	UpdateSubscriber(ctx context.Context, boxID string, subscriber *domain.Subscriber) error
	ListByClientID(ctx context.Context, clientID string) ([]*domain.Box, error)
}

// ErrDuplicateBoxName is returned by Insert when the (boxName, clientId)
// unique index rejects the write.
var ErrDuplicateBoxName = errors.New("box name already exists for this client")

type mongoBoxRepository struct {
	coll *mongo.Collection
}

func NewMongoBoxRepository(db *mongo.Database) BoxRepository {
	return &mongoBoxRepository{coll: db.Collection("boxes")}
}

// EnsureBoxIndexes creates the unique (boxName, boxCreator.clientId) index
// BoxRegistry.createBox relies on for its dedup-by-collision semantics.
func EnsureBoxIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("boxes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "boxName", Value: 1}, {Key: "boxCreator.clientId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_boxname_client"),
	})
	return err
}

func (r *mongoBoxRepository) Insert(ctx context.Context, box *domain.Box) error {
	_, err := r.coll.InsertOne(ctx, box)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateBoxName
	}
	if err != nil {
		return fmt.Errorf("insert box: %w", err)
	}
	return nil
}

func (r *mongoBoxRepository) FindByID(ctx context.Context, boxID string) (*domain.Box, error) {
	var box domain.Box
	err := r.coll.FindOne(ctx, bson.M{"_id": boxID}).Decode(&box)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrBoxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find box by id: %w", err)
	}
	return &box, nil
}

func (r *mongoBoxRepository) FindByNameAndClientID(ctx context.Context, boxName, clientID string) (*domain.Box, error) {
	var box domain.Box
	err := r.coll.FindOne(ctx, bson.M{"boxName": boxName, "boxCreator.clientId": clientID}).Decode(&box)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrBoxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find box by name and client: %w", err)
	}
	return &box, nil
}

func (r *mongoBoxRepository) UpdateSubscriber(ctx context.Context, boxID string, subscriber *domain.Subscriber) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": boxID},
		bson.M{"$set": bson.M{"subscriber": subscriber, "updatedDateTime": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBoxNotFound
	}
	return nil
}

func (r *mongoBoxRepository) ListByClientID(ctx context.Context, clientID string) ([]*domain.Box, error) {
	cur, err := r.coll.Find(ctx, bson.M{"boxCreator.clientId": clientID})
	if err != nil {
		return nil, fmt.Errorf("list boxes by client: %w", err)
	}
	defer cur.Close(ctx)

	var boxes []*domain.Box
	for cur.Next(ctx) {
		var b domain.Box
		if err := cur.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode box: %w", err)
		}
		boxes = append(boxes, &b)
	}
	return boxes, cur.Err()
}
