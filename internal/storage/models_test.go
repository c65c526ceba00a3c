package storage

import (
	"testing"
	"time"
)

func TestSortByRecency_MostRecentFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []GalleryItem{
		{FileID: "oldest", Timestamp: base},
		{FileID: "newest", Timestamp: base.Add(2 * time.Hour)},
		{FileID: "middle", Timestamp: base.Add(time.Hour)},
	}

	SortByRecency(items)

	want := []string{"newest", "middle", "oldest"}
	for i, fileID := range want {
		if items[i].FileID != fileID {
			t.Errorf("Position %d: expected %s, got %s", i, fileID, items[i].FileID)
		}
	}
}

func TestSortByRecency_EqualTimestampsKeepStoredOrder(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []GalleryItem{
		{FileID: "first", Timestamp: at},
		{FileID: "second", Timestamp: at},
		{FileID: "third", Timestamp: at},
	}

	SortByRecency(items)

	want := []string{"first", "second", "third"}
	for i, fileID := range want {
		if items[i].FileID != fileID {
			t.Errorf("Position %d: expected %s, got %s", i, fileID, items[i].FileID)
		}
	}
}

func TestSortByRecency_EmptyAndSingle(t *testing.T) {
	SortByRecency(nil)

	one := []GalleryItem{{FileID: "only"}}
	SortByRecency(one)
	if one[0].FileID != "only" {
		t.Error("Single-item slice must be unchanged")
	}
}

func TestGalleryField(t *testing.T) {
	if got := galleryField("-1001"); got != "galleries.-1001" {
		t.Errorf("Expected galleries.-1001, got %s", got)
	}
}
