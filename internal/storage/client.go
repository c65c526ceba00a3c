// Package storage persists per-user gallery indexes in a document database.
// The database owns the index; the messaging platform owns the bytes.
package storage

import (
	"context"
	"fmt"

	"github.com/img2tg/img2tg/internal/logger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Client wraps a MongoDB connection pool for one URI.
type Client struct {
	mc *mongo.Client
}

// Connect establishes and verifies a connection. Callers hold the client in
// the session cache; it is not reconnected per request.
func Connect(ctx context.Context, uri string, maxPoolSize, minPoolSize uint64) (*Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize)

	mc, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := mc.Ping(ctx, nil); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Debug("Mongo connection established", map[string]interface{}{
		"max_pool_size": maxPoolSize,
		"min_pool_size": minPoolSize,
	})
	return &Client{mc: mc}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c.mc == nil {
		return nil
	}
	return c.mc.Disconnect(ctx)
}

// Gallery returns the store for one named collection. The database name
// follows the collection name, matching how galleries were provisioned.
func (c *Client) Gallery(collection string) *GalleryStore {
	return &GalleryStore{col: c.mc.Database(collection).Collection(collection)}
}
