package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/utils"
)

// StartBackgroundChecker launches a goroutine that periodically runs an
// evaluation pass for every writer. It is best-effort: a failing writer is
// logged and skipped, the next tick retries everything (safe because the
// ledger deduplicates). A non-positive interval disables the checker.
func StartBackgroundChecker(db *gorm.DB, svc *MilestoneService, feed VideoFeed, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		for {
			// Sleep first so boot is not delayed by a full sweep
			time.Sleep(interval)

			var writers []models.Writer
			if err := db.Find(&writers).Error; err != nil {
				utils.Sugar.Warnf("milestone checker: listing writers failed: %v", err)
				continue
			}

			for _, w := range writers {
				videos, err := feed.VideosForWriter(w.ID)
				if err != nil {
					utils.Sugar.Warnf("milestone checker: feed failed for writer %d: %v", w.ID, err)
					continue
				}
				created, err := svc.CheckMilestonesForWriter(w.ID, videos)
				if err != nil {
					utils.Sugar.Warnf("milestone checker: pass failed for writer %d: %v", w.ID, err)
					continue
				}
				if len(created) > 0 {
					utils.Sugar.Infof("milestone checker: writer %d gained %d notifications", w.ID, len(created))
					utils.InvalidateByPrefix(utils.CountCachePrefix(w.ID))
				}
			}
		}
	}()
}
