package models

import "time"

// Video is a writer's published video as known to the analytics import.
type Video struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WriterID  uint      `gorm:"index;not null" json:"writer_id"`
	Title     string    `gorm:"size:512" json:"title"`
	URL       string    `gorm:"size:1024" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoStats carries the latest total view count per video, refreshed by the
// external YouTube analytics import. VideoID is stored as text because the
// upstream feed keys stats by the stringified video ID.
type VideoStats struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	VideoID    string    `gorm:"size:64;uniqueIndex;not null" json:"video_id"`
	ViewsTotal *int64    `json:"views_total"`
	UpdatedAt  time.Time `json:"updated_at"`
}
