package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ppnshub/notification-hub/internal/config"
	"github.com/ppnshub/notification-hub/internal/repository"
)

// Connect dials Mongo and verifies connectivity with a Ping, mirroring the
// connect-then-ping shape of a pgxpool.Connect call.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// EnsureIndexes creates every index the repository layer depends on. It is
// idempotent — safe to call on every startup — and replaces the teacher's
// golang-migrate migration step, since index definitions are the only
// schema this document store needs.
func EnsureIndexes(ctx context.Context, database *mongo.Database, cfg *config.Config) error {
	if err := repository.EnsureBoxIndexes(ctx, database); err != nil {
		return fmt.Errorf("ensure box indexes: %w", err)
	}

	ttl := time.Duration(cfg.NotificationTTLinSeconds) * time.Second
	if err := repository.EnsureNotificationIndexes(ctx, database, ttl); err != nil {
		return fmt.Errorf("ensure notification indexes: %w", err)
	}

	return nil
}
