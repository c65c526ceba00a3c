package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNoGallery means the user has no item array for the destination.
	ErrNoGallery = errors.New("no gallery for destination")
	// ErrNoPlaceholder means the matched item carries no placeholder handle.
	ErrNoPlaceholder = errors.New("no placeholder recorded for file")
)

// GalleryStore reads and appends gallery items in one collection.
type GalleryStore struct {
	col *mongo.Collection
}

func galleryField(chatID string) string {
	return "galleries." + chatID
}

// AppendItems pushes items onto the destination's array in a single upsert,
// creating the user document when absent and bumping lastUpdated. One batch
// means exactly one database write.
func (s *GalleryStore) AppendItems(ctx context.Context, userID, chatID string, items []GalleryItem, at time.Time) error {
	if len(items) == 0 {
		return nil
	}

	update := bson.M{
		"$push": bson.M{galleryField(chatID): bson.M{"$each": items}},
		"$set":  bson.M{"lastUpdated": at},
	}

	_, err := s.col.UpdateOne(ctx, bson.M{"userId": userID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append gallery items: %w", err)
	}
	return nil
}

// UserGalleries loads the user's destination map, projected down to one
// destination when chatID is non-empty. A missing document or empty map is
// a nil result, not an error.
func (s *GalleryStore) UserGalleries(ctx context.Context, userID, chatID string) (map[string][]GalleryItem, error) {
	projection := bson.M{"galleries": 1}
	if chatID != "" {
		projection = bson.M{galleryField(chatID): 1}
	}

	var doc UserGalleryDocument
	err := s.col.FindOne(ctx, bson.M{"userId": userID}, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load galleries: %w", err)
	}
	if len(doc.Galleries) == 0 {
		return nil, nil
	}
	return doc.Galleries, nil
}

// Placeholder locates the stored placeholder handle for fileID inside one
// destination's array.
func (s *GalleryStore) Placeholder(ctx context.Context, userID, chatID, fileID string) (string, error) {
	field := galleryField(chatID)
	filter := bson.M{"userId": userID, field: bson.M{"$exists": true}}

	var doc UserGalleryDocument
	err := s.col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{field: 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNoGallery
		}
		return "", fmt.Errorf("failed to search for placeholder: %w", err)
	}

	items, ok := doc.Galleries[chatID]
	if !ok {
		return "", ErrNoGallery
	}
	for _, item := range items {
		if item.FileID == fileID {
			if item.Placeholder == "" {
				return "", ErrNoPlaceholder
			}
			return item.Placeholder, nil
		}
	}
	return "", ErrNoPlaceholder
}
