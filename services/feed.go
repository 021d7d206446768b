package services

import "gorm.io/gorm"

// VideoFeed supplies the current view counts for a writer's videos. The
// evaluator only sees observations, so the feed can be swapped out in tests.
type VideoFeed interface {
	VideosForWriter(writerID uint) ([]VideoObservation, error)
}

// DBVideoFeed reads view counts from the analytics import tables: each video
// row joined with its latest stats row. Only YouTube videos with a known view
// total are reported, highest view count first.
type DBVideoFeed struct {
	db *gorm.DB
}

// NewDBVideoFeed builds a feed over the analytics tables in db.
func NewDBVideoFeed(db *gorm.DB) *DBVideoFeed {
	return &DBVideoFeed{db: db}
}

// VideosForWriter implements VideoFeed.
func (f *DBVideoFeed) VideosForWriter(writerID uint) ([]VideoObservation, error) {
	observations := make([]VideoObservation, 0)
	err := f.db.Table("videos AS v").
		Select("CAST(v.id AS CHAR) AS video_id, v.title AS title, v.url AS url, s.views_total AS views").
		Joins("LEFT JOIN video_stats s ON CAST(v.id AS CHAR) = s.video_id").
		Where("v.writer_id = ?", writerID).
		Where("v.url LIKE ? OR v.url LIKE ?", "%youtube.com%", "%youtu.be%").
		Where("s.views_total IS NOT NULL").
		Order("s.views_total DESC").
		Scan(&observations).Error
	return observations, err
}
