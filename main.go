package main

import (
	"time"

	"github.com/plotpointe/milestones/config"
	"github.com/plotpointe/milestones/models"
	"github.com/plotpointe/milestones/routes"
	"github.com/plotpointe/milestones/services"
	"github.com/plotpointe/milestones/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.Login{},
		&models.Writer{},
		&models.Video{},
		&models.VideoStats{},
		&models.VideoMilestoneTracking{},
		&models.MilestoneNotification{},
	)

	svc := services.NewMilestoneService(db, services.DefaultMilestones())
	feed := services.NewDBVideoFeed(db)

	r := routes.SetupRouter(db, svc, feed)

	// Optional periodic sweep over all writers; manual triggers stay the
	// primary path.
	services.StartBackgroundChecker(db, svc, feed, time.Duration(cfg.CheckIntervalMinutes)*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
