package services

import (
	"testing"

	"github.com/plotpointe/milestones/models"
)

func TestDBVideoFeedFiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&models.Video{}, &models.VideoStats{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := []models.Video{
		{ID: 1, WriterID: 1, Title: "Small", URL: "https://youtube.com/watch?v=1"},
		{ID: 2, WriterID: 1, Title: "Big", URL: "https://youtu.be/2"},
		{ID: 3, WriterID: 1, Title: "Not YouTube", URL: "https://vimeo.com/3"},
		{ID: 4, WriterID: 1, Title: "No stats", URL: "https://youtube.com/watch?v=4"},
		{ID: 5, WriterID: 2, Title: "Other writer", URL: "https://youtube.com/watch?v=5"},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed videos: %v", err)
	}
	stats := []models.VideoStats{
		{VideoID: "1", ViewsTotal: ptrInt64(500)},
		{VideoID: "2", ViewsTotal: ptrInt64(9_000)},
		{VideoID: "3", ViewsTotal: ptrInt64(100)},
		{VideoID: "5", ViewsTotal: ptrInt64(42)},
	}
	if err := db.Create(&stats).Error; err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	feed := NewDBVideoFeed(db)
	observations, err := feed.VideosForWriter(1)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if len(observations) != 2 {
		t.Fatalf("observations = %d, want 2 (YouTube with stats only)", len(observations))
	}
	if observations[0].VideoID != "2" || observations[1].VideoID != "1" {
		t.Fatalf("order = [%s %s], want views desc [2 1]", observations[0].VideoID, observations[1].VideoID)
	}
	if observations[0].Views == nil || *observations[0].Views != 9_000 {
		t.Fatalf("views = %v, want 9000", observations[0].Views)
	}
	if observations[0].Title == nil || *observations[0].Title != "Big" {
		t.Fatalf("title = %v, want Big", observations[0].Title)
	}
}
