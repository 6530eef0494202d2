package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/FrejusAdedemi/wim-plateform/internal/clients/youtube"
	"github.com/FrejusAdedemi/wim-plateform/internal/db"
	"github.com/FrejusAdedemi/wim-plateform/internal/jobs"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/services"
	"github.com/FrejusAdedemi/wim-plateform/internal/utils"
)

// One-shot content sync, for operators and cron. Without -course-id it syncs
// every published course that has a video source.
func main() {
	var courseID string
	var force bool
	var createModules bool
	var refreshMetadata bool
	var maxVideos int
	flag.StringVar(&courseID, "course-id", "", "sync only this course id")
	flag.BoolVar(&force, "force", false, "ignore the freshness window")
	flag.BoolVar(&createModules, "create-modules", false, "create a default module for courses without one")
	flag.BoolVar(&refreshMetadata, "refresh-metadata", false, "also refresh stale video metadata")
	flag.IntVar(&maxVideos, "max-videos", 0, "cap videos pulled per course (0 = config default)")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	cfg := jobs.LoadConfig(log)
	if maxVideos > 0 {
		cfg.MaxVideos = maxVideos
	}

	ctx := context.Background()
	apiKey := utils.GetEnv("YOUTUBE_API_KEY", "", log)
	youtubeClient, err := youtube.NewClient(ctx, apiKey, log)
	if err != nil {
		log.Error("Could not init youtube client", "error", err)
		os.Exit(1)
	}

	courseRepo := repos.NewCourseRepo(thePG, log)
	courseModuleRepo := repos.NewCourseModuleRepo(thePG, log)
	lessonRepo := repos.NewLessonRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)

	catalogService := services.NewCatalogService(thePG, log, courseRepo, courseModuleRepo, lessonRepo, reviewRepo, enrollmentRepo)
	syncService := services.NewSyncService(thePG, log, courseRepo, courseModuleRepo, lessonRepo, catalogService, youtubeClient, nil, cfg.FreshnessWindow)

	opts := services.SyncOptions{
		Force:         force,
		CreateModules: createModules,
		MaxVideos:     cfg.MaxVideos,
	}

	if courseID != "" {
		id, err := uuid.Parse(strings.TrimSpace(courseID))
		if err != nil {
			fmt.Printf("invalid course id %q\n", courseID)
			os.Exit(1)
		}
		result, err := syncService.SyncCourse(ctx, nil, id, opts)
		if err != nil {
			log.Error("Sync failed", "course_id", id, "error", err)
			os.Exit(1)
		}
		fmt.Printf("course %s: created=%d updated=%d skipped=%d synced=%v\n",
			id, result.Created, result.Updated, result.Skipped, result.Synced)
	} else {
		results, err := syncService.SyncAll(ctx, opts)
		if err != nil {
			log.Error("Sync failed", "error", err)
			os.Exit(1)
		}
		for _, r := range results {
			fmt.Printf("course %s: created=%d updated=%d skipped=%d synced=%v\n",
				r.CourseID, r.Created, r.Updated, r.Skipped, r.Synced)
		}
	}

	if refreshMetadata {
		updated, err := syncService.RefreshMetadata(ctx, nil, cfg.MetadataMaxAge, cfg.MetadataBatchSize)
		if err != nil {
			log.Error("Metadata refresh failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("metadata refreshed for %d lessons\n", updated)
	}
}
