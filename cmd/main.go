package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FrejusAdedemi/wim-plateform/internal/clients/redis"
	"github.com/FrejusAdedemi/wim-plateform/internal/clients/youtube"
	"github.com/FrejusAdedemi/wim-plateform/internal/db"
	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/jobs"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/services"
	"github.com/FrejusAdedemi/wim-plateform/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	courseModuleRepo := repos.NewCourseModuleRepo(thePG, log)
	lessonRepo := repos.NewLessonRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	lessonProgressRepo := repos.NewLessonProgressRepo(thePG, log)
	quizAttemptRepo := repos.NewQuizAttemptRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	certificateRepo := repos.NewCertificateRepo(thePG, log)
	userStatisticsRepo := repos.NewUserStatisticsRepo(thePG, log)

	// Event bus, optional: without redis the services run silently.
	var bus events.Bus
	if eventBus, err := redis.NewEventBus(log); err != nil {
		log.Warn("Redis event bus unavailable, events disabled", "error", err)
	} else {
		bus = eventBus
		defer eventBus.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	catalogService := services.NewCatalogService(thePG, log, courseRepo, courseModuleRepo, lessonRepo, reviewRepo, enrollmentRepo)
	certificateService := services.NewCertificateService(thePG, log, certificateRepo, userRepo, courseRepo, quizAttemptRepo, bus)
	progressService := services.NewProgressService(thePG, log, enrollmentRepo, lessonRepo, courseModuleRepo, lessonProgressRepo, certificateService, bus)
	quizService := services.NewQuizService(thePG, log, enrollmentRepo, lessonRepo, courseModuleRepo, quizAttemptRepo, progressService)
	enrollmentService := services.NewEnrollmentService(thePG, log, enrollmentRepo, courseRepo, reviewRepo, catalogService)
	statisticsService := services.NewStatisticsService(thePG, log, userStatisticsRepo, enrollmentRepo, lessonProgressRepo, quizAttemptRepo)
	_ = quizService
	_ = enrollmentService
	_ = statisticsService

	// Content sync
	syncConfig := jobs.LoadConfig(log)
	apiKey := utils.GetEnv("YOUTUBE_API_KEY", "", log)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if apiKey == "" {
		log.Warn("YOUTUBE_API_KEY not set, content sync disabled")
	} else {
		youtubeClient, err := youtube.NewClient(ctx, apiKey, log)
		if err != nil {
			log.Error("Could not init youtube client", "error", err)
			os.Exit(1)
		}
		syncService := services.NewSyncService(thePG, log, courseRepo, courseModuleRepo, lessonRepo, catalogService, youtubeClient, bus, syncConfig.FreshnessWindow)
		worker := jobs.NewSyncWorker(syncService, syncConfig, log)
		worker.Start(ctx)
	}

	log.Info("WIM platform engine running")
	<-ctx.Done()
	log.Info("Shutting down")
}
