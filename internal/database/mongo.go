package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/keyxmakerx/bookdir/internal/config"
)

// NewMongo connects to MongoDB and pings the primary before returning the
// client. Multi-document transactions (book + user snapshot) need a replica
// set or Atlas cluster; a standalone mongod will fail those writes.
func NewMongo(cfg config.DatabaseConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	ping := func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
	if err := pingWithRetry("mongodb", ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
