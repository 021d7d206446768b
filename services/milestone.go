package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/utils"
)

// ErrNotFound is returned when a notification does not exist or does not
// belong to the requesting writer.
var ErrNotFound = errors.New("notification not found")

const defaultUncelebratedCap = 5

// VideoObservation is one video as reported by the view-count feed. Views is
// a pointer so a missing count can be told apart from zero; observations
// without a usable ID or view count are skipped, not treated as errors.
type VideoObservation struct {
	VideoID string  `gorm:"column:video_id"`
	Title   *string `gorm:"column:title"`
	URL     *string `gorm:"column:url"`
	Views   *int64  `gorm:"column:views"`
}

// MilestoneService owns the milestone tracking and notification tables. The
// milestone catalog is injected so tests can run with small thresholds.
type MilestoneService struct {
	db         *gorm.DB
	milestones []MilestoneDefinition
}

// NewMilestoneService builds a service over db. A nil or empty catalog falls
// back to the product default.
func NewMilestoneService(db *gorm.DB, milestones []MilestoneDefinition) *MilestoneService {
	if len(milestones) == 0 {
		milestones = DefaultMilestones()
	}
	return &MilestoneService{db: db, milestones: milestones}
}

// UpdateVideoTracking upserts the tracking row for a video in a single
// statement. Title and URL only overwrite the stored values when non-NULL.
func (s *MilestoneService) UpdateVideoTracking(videoID string, writerID uint, title, url *string, currentViews int64) error {
	now := time.Now()
	row := models.VideoMilestoneTracking{
		VideoID:       videoID,
		WriterID:      writerID,
		VideoTitle:    title,
		VideoURL:      url,
		CurrentViews:  currentViews,
		LastCheckedAt: now,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"current_views":   currentViews,
			"last_checked_at": now,
			"video_title":     gorm.Expr("COALESCE(?, video_title)", title),
			"video_url":       gorm.Expr("COALESCE(?, video_url)", url),
		}),
	}).Create(&row).Error
}

// CreateIfAbsent inserts a notification unless one already exists for the
// (video_id, milestone_type) pair. The insert relies on the table's unique
// index rather than a prior SELECT, so two concurrent checks for the same
// pair cannot both create a row; the loser sees created == false.
func (s *MilestoneService) CreateIfAbsent(writerID uint, videoID string, title, url *string, milestone MilestoneDefinition, currentViews int64, achievedAt time.Time) (bool, *models.MilestoneNotification, error) {
	row := models.MilestoneNotification{
		WriterID:       writerID,
		VideoID:        videoID,
		VideoTitle:     title,
		VideoURL:       url,
		MilestoneType:  milestone.Type,
		MilestoneValue: milestone.Value,
		CurrentViews:   currentViews,
		AchievedAt:     achievedAt,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}, {Name: "milestone_type"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil, nil
	}
	return true, &row, nil
}

// CheckMilestonesForWriter runs one evaluation pass over the supplied videos.
// Every video with a usable view count gets its tracking row refreshed; every
// catalog threshold at or below that count is attempted against the ledger.
// Only notifications actually created in this pass are returned. The first
// storage error aborts the remaining videos; rows already written stay put
// and a full retry is safe because of the unique index.
func (s *MilestoneService) CheckMilestonesForWriter(writerID uint, videos []VideoObservation) ([]models.MilestoneNotification, error) {
	created := make([]models.MilestoneNotification, 0)

	for _, video := range videos {
		if video.VideoID == "" || video.Views == nil || *video.Views < 0 {
			continue
		}
		views := *video.Views
		title := utils.SanitizeTitle(video.Title)

		if err := s.UpdateVideoTracking(video.VideoID, writerID, title, video.URL, views); err != nil {
			return created, err
		}

		achievedAt := time.Now()
		for _, milestone := range s.milestones {
			if views < milestone.Value {
				continue
			}
			ok, n, err := s.CreateIfAbsent(writerID, video.VideoID, title, video.URL, milestone, views, achievedAt)
			if err != nil {
				return created, err
			}
			if ok {
				if utils.Sugar != nil {
					utils.Sugar.Infow("milestone reached",
						"writer_id", writerID,
						"video_id", video.VideoID,
						"milestone", milestone.Type,
						"views", views,
					)
				}
				created = append(created, *n)
			}
		}
	}

	return created, nil
}

// ListResult is one page of a writer's notification history.
type ListResult struct {
	Notifications []models.MilestoneNotification
	Total         int64
	HasMore       bool
}

// ListNotifications returns a page ordered newest-achieved first.
func (s *MilestoneService) ListNotifications(writerID uint, limit, offset int) (ListResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.Model(&models.MilestoneNotification{}).Where("writer_id = ?", writerID).Count(&total).Error; err != nil {
		return ListResult{}, err
	}

	notifications := make([]models.MilestoneNotification, 0, limit)
	err := s.db.Where("writer_id = ?", writerID).
		Order("achieved_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Notifications: notifications,
		Total:         total,
		HasMore:       int64(offset+limit) < total,
	}, nil
}

// ListUnread returns all unread notifications, newest-achieved first.
func (s *MilestoneService) ListUnread(writerID uint) ([]models.MilestoneNotification, error) {
	notifications := make([]models.MilestoneNotification, 0)
	err := s.db.Where("writer_id = ? AND is_read = ?", writerID, false).
		Order("achieved_at DESC").Order("id DESC").
		Find(&notifications).Error
	return notifications, err
}

// ListUncelebrated returns up to cap uncelebrated notifications oldest-first,
// so celebration popups appear in the order the milestones were achieved.
func (s *MilestoneService) ListUncelebrated(writerID uint, cap int) ([]models.MilestoneNotification, error) {
	if cap <= 0 {
		cap = defaultUncelebratedCap
	}
	notifications := make([]models.MilestoneNotification, 0, cap)
	err := s.db.Where("writer_id = ? AND is_celebrated = ?", writerID, false).
		Order("achieved_at ASC").Order("id ASC").
		Limit(cap).
		Find(&notifications).Error
	return notifications, err
}

// Counts summarizes a writer's ledger.
type Counts struct {
	Total        int64
	Unread       int64
	Uncelebrated int64
}

// NotificationCounts returns total, unread, and uncelebrated counts.
func (s *MilestoneService) NotificationCounts(writerID uint) (Counts, error) {
	var c Counts
	base := s.db.Model(&models.MilestoneNotification{}).Where("writer_id = ?", writerID)
	if err := base.Session(&gorm.Session{}).Count(&c.Total).Error; err != nil {
		return Counts{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_read = ?", false).Count(&c.Unread).Error; err != nil {
		return Counts{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_celebrated = ?", false).Count(&c.Uncelebrated).Error; err != nil {
		return Counts{}, err
	}
	return c, nil
}

// MarkRead flips is_read to true. Flipping an already-read notification is a
// no-op success; the flag never goes back to false.
func (s *MilestoneService) MarkRead(id, writerID uint) (*models.MilestoneNotification, error) {
	return s.markFlag(id, writerID, "is_read")
}

// MarkCelebrated flips is_celebrated to true with the same idempotence rule
// as MarkRead.
func (s *MilestoneService) MarkCelebrated(id, writerID uint) (*models.MilestoneNotification, error) {
	return s.markFlag(id, writerID, "is_celebrated")
}

func (s *MilestoneService) markFlag(id, writerID uint, column string) (*models.MilestoneNotification, error) {
	res := s.db.Model(&models.MilestoneNotification{}).
		Where("id = ? AND writer_id = ?", id, writerID).
		Update(column, true)
	if res.Error != nil {
		return nil, res.Error
	}

	// RowsAffected is unreliable for no-op updates on some drivers, so
	// existence is decided by the fetch.
	var n models.MilestoneNotification
	if err := s.db.Where("id = ? AND writer_id = ?", id, writerID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the writer as read and
// returns how many rows actually flipped.
func (s *MilestoneService) MarkAllRead(writerID uint) (int64, error) {
	res := s.db.Model(&models.MilestoneNotification{}).
		Where("writer_id = ? AND is_read = ?", writerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
