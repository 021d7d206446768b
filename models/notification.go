package models

import "time"

// MilestoneNotification records a single achieved view-count milestone for a
// video. The unique index on (video_id, milestone_type) is what guarantees a
// milestone is recorded at most once, regardless of how often or how
// concurrently the checker runs.
type MilestoneNotification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	WriterID       uint      `gorm:"index;not null" json:"writer_id"`
	VideoID        string    `gorm:"size:64;not null;uniqueIndex:idx_video_milestone" json:"video_id"`
	VideoTitle     *string   `gorm:"size:512" json:"video_title"`
	VideoURL       *string   `gorm:"size:1024" json:"video_url"`
	MilestoneType  string    `gorm:"size:32;not null;uniqueIndex:idx_video_milestone" json:"milestone_type"`
	MilestoneValue int64     `gorm:"not null" json:"milestone_value"`
	CurrentViews   int64     `gorm:"not null" json:"current_views"`
	AchievedAt     time.Time `gorm:"index;not null" json:"achieved_at"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	IsCelebrated   bool      `gorm:"not null;default:false" json:"is_celebrated"`
}
