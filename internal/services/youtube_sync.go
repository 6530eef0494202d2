package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/clients/youtube"
	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
	"github.com/FrejusAdedemi/wim-plateform/internal/utils"
)

const (
	// DefaultFreshnessWindow suppresses re-syncs of a course that was synced
	// recently, unless forced.
	DefaultFreshnessWindow = time.Hour

	// syncConcurrency bounds parallel course syncs in SyncAll.
	syncConcurrency = 4
)

// VideoSource is the port the sync job pulls external video metadata through.
// *youtube.Client is the production implementation.
type VideoSource interface {
	GetPlaylistDetails(ctx context.Context, playlistID string) (*youtube.Playlist, error)
	GetPlaylistVideos(ctx context.Context, playlistID string, maxVideos int) ([]*youtube.Video, error)
	GetChannelVideos(ctx context.Context, channelID string, maxVideos int) ([]*youtube.Video, error)
	GetVideosDetails(ctx context.Context, videoIDs []string) ([]*youtube.Video, error)
}

type SyncOptions struct {
	// Force bypasses the freshness window.
	Force bool
	// CreateModules lets the sync create a default module for a course that
	// has none yet.
	CreateModules bool
	// MaxVideos caps how many videos are pulled per course; 0 means no cap.
	MaxVideos int
}

type SyncResult struct {
	CourseID uuid.UUID
	Synced   bool
	Created  int
	Updated  int
	Skipped  int
}

type SyncService interface {
	// SyncCourse reconciles one course's lessons against its external video
	// source. A course synced within the freshness window is left untouched
	// unless opts.Force is set.
	SyncCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, opts SyncOptions) (*SyncResult, error)
	// SyncAll reconciles every published course that has a video source.
	// Courses fail independently; one course's error never aborts the rest.
	SyncAll(ctx context.Context, opts SyncOptions) ([]*SyncResult, error)
	// RefreshMetadata re-fetches metadata for video lessons not updated in
	// olderThan, at most batchSize of them, without creating or reordering
	// lessons. Returns how many lessons were updated.
	RefreshMetadata(ctx context.Context, tx *gorm.DB, olderThan time.Duration, batchSize int) (int, error)
}

type syncService struct {
	db        *gorm.DB
	log       *logger.Logger
	courses   repos.CourseRepo
	modules   repos.CourseModuleRepo
	lessons   repos.LessonRepo
	catalog   CatalogService
	source    VideoSource
	bus       events.Bus
	freshness time.Duration
	now       func() time.Time
}

func NewSyncService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	modules repos.CourseModuleRepo,
	lessons repos.LessonRepo,
	catalog CatalogService,
	source VideoSource,
	bus events.Bus,
	freshness time.Duration,
) SyncService {
	if freshness <= 0 {
		freshness = DefaultFreshnessWindow
	}
	serviceLog := baseLog.With("service", "SyncService")
	return &syncService{
		db:        db,
		log:       serviceLog,
		courses:   courses,
		modules:   modules,
		lessons:   lessons,
		catalog:   catalog,
		source:    source,
		bus:       bus,
		freshness: freshness,
		now:       time.Now,
	}
}

func (s *syncService) SyncCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, opts SyncOptions) (*SyncResult, error) {
	result := &SyncResult{CourseID: courseID}
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		courses, err := s.courses.GetByIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			return apierr.NotFound("course %s not found", courseID)
		}
		course := courses[0]
		if !course.HasYoutubeSource() {
			return apierr.Validation("course %s has no youtube source", courseID)
		}

		if !opts.Force && course.LastYoutubeSync != nil && s.now().Sub(*course.LastYoutubeSync) < s.freshness {
			s.log.Debug("Course synced recently, skipping",
				"course_id", courseID,
				"last_sync", course.LastYoutubeSync)
			return nil
		}

		videos, playlist, err := s.fetchVideos(ctx, course, opts.MaxVideos)
		if err != nil {
			return apierr.External(err)
		}

		module, err := s.targetModule(ctx, tx, course, opts.CreateModules)
		if err != nil {
			return err
		}

		for _, v := range videos {
			if !v.Embeddable {
				result.Skipped++
				continue
			}
			created, err := s.upsertLesson(ctx, tx, module.ID, v)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if _, err := s.catalog.RecalculateCourseDuration(ctx, tx, courseID); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"is_youtube_synced": true,
			"last_youtube_sync": s.now().UTC(),
		}
		if playlist != nil {
			if playlist.ChannelTitle != "" {
				fields["youtube_channel_name"] = playlist.ChannelTitle
			}
			if playlist.ThumbnailURL != "" && course.YoutubeThumbnailURL == "" {
				fields["youtube_thumbnail_url"] = playlist.ThumbnailURL
			}
		}
		if err := s.courses.UpdateFields(ctx, tx, courseID, fields); err != nil {
			return err
		}

		result.Synced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Synced {
		s.log.Info("Course synced",
			"course_id", courseID,
			"created", result.Created,
			"updated", result.Updated,
			"skipped", result.Skipped)
		publish(ctx, s.bus, s.log, events.Event{
			Type:    events.TypeCourseSynced,
			Channel: "course:" + courseID.String(),
			Data: map[string]interface{}{
				"course_id": courseID.String(),
				"created":   result.Created,
				"updated":   result.Updated,
			},
		})
	}
	return result, nil
}

func (s *syncService) SyncAll(ctx context.Context, opts SyncOptions) ([]*SyncResult, error) {
	courses, err := s.courses.GetPublishedWithYoutubeSource(ctx, nil)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []*SyncResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, course := range courses {
		courseID := course.ID
		g.Go(func() error {
			res, err := s.SyncCourse(gctx, nil, courseID, opts)
			if err != nil {
				// Per-course isolation: log and move on.
				s.log.Error("Course sync failed", "course_id", courseID, "error", err)
				return nil
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *syncService) RefreshMetadata(ctx context.Context, tx *gorm.DB, olderThan time.Duration, batchSize int) (int, error) {
	updated := 0
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		cutoff := s.now().Add(-olderThan)
		stale, err := s.lessons.GetStaleVideoLessons(ctx, tx, cutoff, batchSize)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]string, 0, len(stale))
		for _, l := range stale {
			ids = append(ids, l.YoutubeVideoID)
		}
		videos, err := s.source.GetVideosDetails(ctx, ids)
		if err != nil {
			return apierr.External(err)
		}
		byID := make(map[string]*youtube.Video, len(videos))
		for _, v := range videos {
			byID[v.ID] = v
		}

		for _, lesson := range stale {
			v, ok := byID[lesson.YoutubeVideoID]
			if !ok {
				s.log.Warn("Video no longer available", "lesson_id", lesson.ID, "video_id", lesson.YoutubeVideoID)
				continue
			}
			if err := s.lessons.UpdateFields(ctx, tx, lesson.ID, map[string]interface{}{
				"youtube_title":            v.Title,
				"youtube_description":      v.Description,
				"youtube_thumbnail_url":    v.ThumbnailURL,
				"youtube_duration_seconds": v.DurationSeconds,
				"youtube_view_count":       v.ViewCount,
				"duration":                 videoDurationMinutes(v.DurationSeconds),
			}); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.log.Info("Video metadata refreshed", "updated", updated)
	}
	return updated, nil
}

func (s *syncService) fetchVideos(ctx context.Context, course *types.Course, maxVideos int) ([]*youtube.Video, *youtube.Playlist, error) {
	if course.YoutubePlaylistID != "" {
		videos, err := s.source.GetPlaylistVideos(ctx, course.YoutubePlaylistID, maxVideos)
		if err != nil {
			return nil, nil, err
		}
		playlist, err := s.source.GetPlaylistDetails(ctx, course.YoutubePlaylistID)
		if err != nil {
			// Channel branding is cosmetic; the video list is what matters.
			s.log.Warn("Could not load playlist details",
				"course_id", course.ID,
				"playlist_id", course.YoutubePlaylistID,
				"error", err)
			playlist = nil
		}
		return videos, playlist, nil
	}
	videos, err := s.source.GetChannelVideos(ctx, course.YoutubeChannelID, maxVideos)
	if err != nil {
		return nil, nil, err
	}
	return videos, nil, nil
}

func (s *syncService) targetModule(ctx context.Context, tx *gorm.DB, course *types.Course, createModules bool) (*types.CourseModule, error) {
	module, err := s.modules.GetFirstByCourseID(ctx, tx, course.ID)
	if err == nil {
		return module, nil
	}
	if !isRecordNotFound(err) {
		return nil, err
	}
	if !createModules {
		return nil, apierr.Validation("course %s has no modules", course.ID)
	}
	module, created, err := s.modules.GetOrCreateByPosition(ctx, tx, &types.CourseModule{
		CourseID:    course.ID,
		Position:    1,
		Title:       "Course Content",
		IsPublished: true,
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("Created default module for synced course", "course_id", course.ID, "module_id", module.ID)
	}
	return module, nil
}

// upsertLesson matches on (module, video id): known videos get their metadata
// refreshed in place, new ones are appended at the end of the module.
func (s *syncService) upsertLesson(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, v *youtube.Video) (bool, error) {
	existing, err := s.lessons.GetByModuleAndVideoID(ctx, tx, moduleID, v.ID)
	if err != nil && !isRecordNotFound(err) {
		return false, err
	}

	duration := videoDurationMinutes(v.DurationSeconds)
	if existing != nil {
		return false, s.lessons.UpdateFields(ctx, tx, existing.ID, map[string]interface{}{
			"title":                    v.Title,
			"youtube_title":            v.Title,
			"youtube_description":      v.Description,
			"youtube_thumbnail_url":    v.ThumbnailURL,
			"youtube_duration_seconds": v.DurationSeconds,
			"youtube_view_count":       v.ViewCount,
			"youtube_published_at":     v.PublishedAt,
			"duration":                 duration,
			"video_url":                watchURL(v.ID),
		})
	}

	position, err := s.lessons.NextPosition(ctx, tx, moduleID)
	if err != nil {
		return false, err
	}
	lesson := &types.Lesson{
		ModuleID:               moduleID,
		Position:               position,
		Title:                  v.Title,
		Slug:                   utils.Slugify(v.Title),
		LessonType:             types.LessonTypeVideo,
		VideoURL:               watchURL(v.ID),
		Duration:               duration,
		IsPublished:            true,
		YoutubeVideoID:         v.ID,
		YoutubeTitle:           v.Title,
		YoutubeDescription:     v.Description,
		YoutubeThumbnailURL:    v.ThumbnailURL,
		YoutubeDurationSeconds: v.DurationSeconds,
		YoutubeViewCount:       v.ViewCount,
		YoutubePublishedAt:     v.PublishedAt,
	}
	if _, err := s.lessons.Create(ctx, tx, []*types.Lesson{lesson}); err != nil {
		return false, err
	}
	return true, nil
}

// videoDurationMinutes converts seconds to whole minutes with a 1 minute
// floor, so even a 30 second clip counts as a lesson.
func videoDurationMinutes(seconds int) int {
	if seconds <= 60 {
		return 1
	}
	return seconds / 60
}

func watchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}
