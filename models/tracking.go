package models

import "time"

// VideoMilestoneTracking stores the last observed view count per video.
// Title and URL are best-effort metadata: once known they are never replaced
// with NULL, so a transient gap in the feed cannot erase them.
type VideoMilestoneTracking struct {
	VideoID       string    `gorm:"primaryKey;size:64" json:"video_id"`
	WriterID      uint      `gorm:"index;not null" json:"writer_id"`
	VideoTitle    *string   `gorm:"size:512" json:"video_title"`
	VideoURL      *string   `gorm:"size:1024" json:"video_url"`
	CurrentViews  int64     `gorm:"not null;default:0" json:"current_views"`
	LastCheckedAt time.Time `gorm:"not null" json:"last_checked_at"`
}
