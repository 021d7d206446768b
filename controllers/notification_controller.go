package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plotpointe/milestones/config"
	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/services"
	"github.com/plotpointe/milestones/utils"
)

// NotificationController exposes the milestone notification ledger: history,
// counts, celebration state, and the manual check trigger.
type NotificationController struct {
	db   *gorm.DB
	svc  *services.MilestoneService
	feed services.VideoFeed
}

// NewNotificationController creates a new controller instance.
func NewNotificationController(db *gorm.DB, svc *services.MilestoneService, feed services.VideoFeed) *NotificationController {
	return &NotificationController{db: db, svc: svc, feed: feed}
}

// List returns a writer's notification history, newest first.
// Query params: limit, offset, unread_only.
func (n *NotificationController) List(ctx *gin.Context) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	if ctx.Query("unread_only") == "true" {
		notifications, err := n.svc.ListUnread(writer.ID)
		if err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "failed to fetch notifications")
			return
		}
		utils.OK(ctx, gin.H{
			"notifications": notifications,
			"total":         len(notifications),
			"hasMore":       false,
		})
		return
	}

	limit := parseQueryInt(ctx.Query("limit"), 20, 100)
	offset := parseQueryInt(ctx.Query("offset"), 0, 1<<30)

	page, err := n.svc.ListNotifications(writer.ID, limit, offset)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	utils.OK(ctx, gin.H{
		"notifications": page.Notifications,
		"total":         page.Total,
		"hasMore":       page.HasMore,
	})
}

// Count returns total, unread, and uncelebrated counts. The payload is cached
// briefly in Redis; every write path invalidates it.
func (n *NotificationController) Count(ctx *gin.Context) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	cacheKey := utils.CountCachePrefix(writer.ID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	counts, err := n.svc.NotificationCounts(writer.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to fetch notification counts")
		return
	}

	payload := gin.H{
		"success":      true,
		"total":        counts.Total,
		"unread":       counts.Unread,
		"uncelebrated": counts.Uncelebrated,
	}
	ttl := time.Duration(config.Get().CountCacheTTLSeconds) * time.Second
	utils.CacheSetJSON(cacheKey, payload, ttl)
	ctx.JSON(http.StatusOK, payload)
}

// Uncelebrated returns up to five oldest uncelebrated notifications, the
// queue a client drains one celebration popup at a time.
func (n *NotificationController) Uncelebrated(ctx *gin.Context) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	notifications, err := n.svc.ListUncelebrated(writer.ID, 0)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to fetch uncelebrated notifications")
		return
	}
	utils.OK(ctx, gin.H{"notifications": notifications})
}

// MarkRead marks one notification as read. Already-read is a no-op success.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	n.markFlag(ctx, n.svc.MarkRead, "failed to mark notification as read")
}

// MarkCelebrated marks one notification as celebrated.
func (n *NotificationController) MarkCelebrated(ctx *gin.Context) {
	n.markFlag(ctx, n.svc.MarkCelebrated, "failed to mark notification as celebrated")
}

func (n *NotificationController) markFlag(ctx *gin.Context, mark func(id, writerID uint) (*models.MilestoneNotification, error), failMsg string) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "invalid notification id")
		return
	}

	notification, err := mark(uint(id), writer.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Fail(ctx, http.StatusNotFound, "notification not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, failMsg)
		return
	}

	utils.InvalidateByPrefix(utils.CountCachePrefix(writer.ID))
	utils.OK(ctx, gin.H{"notification": notification})
}

// ReadAll marks every unread notification as read and reports how many rows
// actually flipped.
func (n *NotificationController) ReadAll(ctx *gin.Context) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	updated, err := n.svc.MarkAllRead(writer.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to mark all notifications as read")
		return
	}

	utils.InvalidateByPrefix(utils.CountCachePrefix(writer.ID))
	utils.OK(ctx, gin.H{"updated_count": updated})
}

// CheckMilestones runs one evaluation pass for the authenticated writer using
// freshly fetched view counts.
func (n *NotificationController) CheckMilestones(ctx *gin.Context) {
	writer, ok := n.currentWriter(ctx)
	if !ok {
		return
	}

	videos, err := n.feed.VideosForWriter(writer.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to check milestones")
		return
	}

	created, err := n.svc.CheckMilestonesForWriter(writer.ID, videos)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "failed to check milestones")
		return
	}

	if len(created) > 0 {
		utils.InvalidateByPrefix(utils.CountCachePrefix(writer.ID))
	}

	utils.OK(ctx, gin.H{
		"writer_id":         writer.ID,
		"writer_name":       writer.Name,
		"videos_checked":    len(videos),
		"new_notifications": len(created),
		"notifications":     created,
	})
}

// currentWriter resolves the authenticated login to its writer profile and
// writes the error response itself when that fails.
func (n *NotificationController) currentWriter(ctx *gin.Context) (*models.Writer, bool) {
	loginID, ok := getLoginID(ctx)
	if !ok {
		utils.Fail(ctx, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	var writer models.Writer
	if err := n.db.Where("login_id = ?", loginID).First(&writer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, http.StatusNotFound, "writer not found")
			return nil, false
		}
		utils.Fail(ctx, http.StatusInternalServerError, "failed to resolve writer")
		return nil, false
	}
	return &writer, true
}

func parseQueryInt(raw string, def, maxVal int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
