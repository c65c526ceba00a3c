package storage

import (
	"sort"
	"time"
)

// GalleryItem records one uploaded file. Items are appended at upload time
// and never mutated or deleted afterwards.
type GalleryItem struct {
	MessageID   int       `bson:"messageId" json:"messageId"`
	FileID      string    `bson:"fileId" json:"fileId"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	UploadedAt  time.Time `bson:"uploadedAt" json:"uploadedAt"`
	Caption     string    `bson:"caption,omitempty" json:"caption,omitempty"`
	Placeholder string    `bson:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// UserGalleryDocument is the per-user index: a map from destination chat to
// its ordered uploads. Array order after upsert is not guaranteed, so reads
// always sort.
type UserGalleryDocument struct {
	UserID      string                   `bson:"userId" json:"userId"`
	Galleries   map[string][]GalleryItem `bson:"galleries" json:"galleries"`
	LastUpdated time.Time                `bson:"lastUpdated" json:"lastUpdated"`
}

// SortByRecency orders items most recent first. The sort is stable so items
// sharing a timestamp keep their stored relative order.
func SortByRecency(items []GalleryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}
