package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ppnshub/notification-hub/internal/domain"
)

// ClientRepository is the raw persistence layer for clients. Secret
// generation and find-or-create semantics live in service.ClientRegistry.
type ClientRepository interface {
	FindByID(ctx context.Context, clientID string) (*domain.Client, error)
	Insert(ctx context.Context, client *domain.Client) error
}

type mongoClientRepository struct {
	coll *mongo.Collection
}

func NewMongoClientRepository(db *mongo.Database) ClientRepository {
	return &mongoClientRepository{coll: db.Collection("clients")}
}

func (r *mongoClientRepository) FindByID(ctx context.Context, clientID string) (*domain.Client, error) {
	var c domain.Client
	err := r.coll.FindOne(ctx, bson.M{"_id": clientID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &c, nil
}

func (r *mongoClientRepository) Insert(ctx context.Context, client *domain.Client) error {
	_, err := r.coll.InsertOne(ctx, client)
	if mongo.IsDuplicateKeyError(err) {
		// Lost a create race to a concurrent request for the same
		// clientId; the caller re-reads via FindByID.
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}
