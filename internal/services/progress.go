package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

// ProgressService owns the per-lesson progress rows and the derived completion
// state on the enrollment. Enrollment.ProgressPercentage, IsCompleted and
// CompletedAt are written here and nowhere else.
type ProgressService interface {
	// RecalculateProgress recomputes the enrollment's percentage from the
	// durable lesson progress rows and persists it. Crossing 100 for the
	// first time marks the enrollment completed and triggers certificate
	// issuance; dropping back below 100 clears the completed flag.
	RecalculateProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (float64, error)
	MarkLessonStarted(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	MarkLessonCompleted(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, float64, error)
	MarkLessonIncomplete(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, float64, error)
	UpdateVideoPosition(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, position, secondsSpent int) (*types.LessonProgress, error)
	SaveLessonNotes(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, notes string) (*types.LessonProgress, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	enrollments    repos.EnrollmentRepo
	lessons        repos.LessonRepo
	modules        repos.CourseModuleRepo
	lessonProgress repos.LessonProgressRepo
	certificates   CertificateService
	bus            events.Bus
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	enrollments repos.EnrollmentRepo,
	lessons repos.LessonRepo,
	modules repos.CourseModuleRepo,
	lessonProgress repos.LessonProgressRepo,
	certificates CertificateService,
	bus events.Bus,
) ProgressService {
	serviceLog := baseLog.With("service", "ProgressService")
	return &progressService{
		db:             db,
		log:            serviceLog,
		enrollments:    enrollments,
		lessons:        lessons,
		modules:        modules,
		lessonProgress: lessonProgress,
		certificates:   certificates,
		bus:            bus,
	}
}

func (s *progressService) RecalculateProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (float64, error) {
	var pct float64
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollments, err := s.enrollments.GetByIDs(ctx, tx, []uuid.UUID{enrollmentID})
		if err != nil {
			return err
		}
		if len(enrollments) == 0 {
			return apierr.NotFound("enrollment %s not found", enrollmentID)
		}
		enrollment := enrollments[0]

		total, err := s.lessons.CountPublishedByCourseID(ctx, tx, enrollment.CourseID)
		if err != nil {
			return err
		}
		if total > 0 {
			completed, err := s.lessonProgress.CountCompletedByEnrollmentID(ctx, tx, enrollmentID)
			if err != nil {
				return err
			}
			pct = float64(completed) / float64(total) * 100
			// Completions can outlive a lesson that was since unpublished.
			if pct > 100 {
				pct = 100
			}
		}

		fields := map[string]interface{}{"progress_percentage": pct}
		newlyCompleted := false
		if total > 0 && pct >= 100 {
			if !enrollment.IsCompleted {
				fields["is_completed"] = true
				newlyCompleted = true
			}
			if enrollment.CompletedAt == nil {
				now := time.Now().UTC()
				fields["completed_at"] = now
				enrollment.CompletedAt = &now
			}
		} else if enrollment.IsCompleted || enrollment.CompletedAt != nil {
			fields["is_completed"] = false
			fields["completed_at"] = nil
			enrollment.IsCompleted = false
			enrollment.CompletedAt = nil
		}
		if err := s.enrollments.UpdateFields(ctx, tx, enrollmentID, fields); err != nil {
			return err
		}
		enrollment.ProgressPercentage = pct

		if newlyCompleted {
			enrollment.IsCompleted = true
			s.log.Info("Enrollment completed",
				"enrollment_id", enrollment.ID,
				"user_id", enrollment.UserID,
				"course_id", enrollment.CourseID)
			if _, _, err := s.certificates.IssueForEnrollment(ctx, tx, enrollment); err != nil {
				// Progress is already durable; issuance can be retried later.
				s.log.Error("Certificate issuance failed", "enrollment_id", enrollment.ID, "error", err)
			}
			publish(ctx, s.bus, s.log, events.Event{
				Type:    events.TypeEnrollmentCompleted,
				Channel: "user:" + enrollment.UserID.String(),
				Data: map[string]interface{}{
					"enrollment_id": enrollment.ID.String(),
					"course_id":     enrollment.CourseID.String(),
				},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pct, nil
}

func (s *progressService) MarkLessonStarted(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	var row *types.LessonProgress
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, _, err := s.resolveActiveEnrollment(ctx, tx, userID, lessonID)
		if err != nil {
			return err
		}
		row, _, err = s.lessonProgress.GetOrCreate(ctx, tx, &types.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{"last_accessed": now}
		if row.StartedAt == nil {
			fields["started_at"] = now
			row.StartedAt = &now
		}
		row.LastAccessed = now
		if err := s.lessonProgress.UpdateFields(ctx, tx, row.ID, fields); err != nil {
			return err
		}
		return s.touchEnrollment(ctx, tx, enrollment, now)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *progressService) MarkLessonCompleted(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, float64, error) {
	var (
		row *types.LessonProgress
		pct float64
	)
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, _, err := s.resolveActiveEnrollment(ctx, tx, userID, lessonID)
		if err != nil {
			return err
		}
		row, _, err = s.lessonProgress.GetOrCreate(ctx, tx, &types.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if !row.IsCompleted {
			fields := map[string]interface{}{
				"is_completed":  true,
				"completed_at":  now,
				"last_accessed": now,
			}
			if row.StartedAt == nil {
				fields["started_at"] = now
				row.StartedAt = &now
			}
			if err := s.lessonProgress.UpdateFields(ctx, tx, row.ID, fields); err != nil {
				return err
			}
			row.IsCompleted = true
			row.CompletedAt = &now
			row.LastAccessed = now
		}
		if err := s.touchEnrollment(ctx, tx, enrollment, now); err != nil {
			return err
		}

		pct, err = s.RecalculateProgress(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		publish(ctx, s.bus, s.log, events.Event{
			Type:    events.TypeLessonCompleted,
			Channel: "user:" + userID.String(),
			Data: map[string]interface{}{
				"lesson_id":     lessonID.String(),
				"enrollment_id": enrollment.ID.String(),
				"progress":      pct,
			},
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return row, pct, nil
}

func (s *progressService) MarkLessonIncomplete(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, float64, error) {
	var (
		row *types.LessonProgress
		pct float64
	)
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, _, err := s.resolveActiveEnrollment(ctx, tx, userID, lessonID)
		if err != nil {
			return err
		}
		row, err = s.lessonProgress.GetByEnrollmentAndLesson(ctx, tx, enrollment.ID, lessonID)
		if isRecordNotFound(err) {
			return apierr.NotFound("no progress recorded for lesson %s", lessonID)
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if row.IsCompleted {
			if err := s.lessonProgress.UpdateFields(ctx, tx, row.ID, map[string]interface{}{
				"is_completed":  false,
				"completed_at":  nil,
				"last_accessed": now,
			}); err != nil {
				return err
			}
			row.IsCompleted = false
			row.CompletedAt = nil
			row.LastAccessed = now
		}

		pct, err = s.RecalculateProgress(ctx, tx, enrollment.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return row, pct, nil
}

func (s *progressService) UpdateVideoPosition(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, position, secondsSpent int) (*types.LessonProgress, error) {
	if position < 0 {
		return nil, apierr.Validation("video position must not be negative, got %d", position)
	}
	if secondsSpent < 0 {
		return nil, apierr.Validation("seconds spent must not be negative, got %d", secondsSpent)
	}

	var row *types.LessonProgress
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, _, err := s.resolveActiveEnrollment(ctx, tx, userID, lessonID)
		if err != nil {
			return err
		}
		row, _, err = s.lessonProgress.GetOrCreate(ctx, tx, &types.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{
			"video_position": position,
			"time_spent":     row.TimeSpent + secondsSpent,
			"last_accessed":  now,
		}
		if row.StartedAt == nil {
			fields["started_at"] = now
			row.StartedAt = &now
		}
		if err := s.lessonProgress.UpdateFields(ctx, tx, row.ID, fields); err != nil {
			return err
		}
		row.VideoPosition = position
		row.TimeSpent += secondsSpent
		row.LastAccessed = now

		if err := s.enrollments.UpdateFields(ctx, tx, enrollment.ID, map[string]interface{}{
			"total_time_spent": enrollment.TotalTimeSpent + secondsSpent,
			"last_accessed":    now,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *progressService) SaveLessonNotes(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, notes string) (*types.LessonProgress, error) {
	var row *types.LessonProgress
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, _, err := s.resolveActiveEnrollment(ctx, tx, userID, lessonID)
		if err != nil {
			return err
		}
		row, _, err = s.lessonProgress.GetOrCreate(ctx, tx, &types.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
		})
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.lessonProgress.UpdateFields(ctx, tx, row.ID, map[string]interface{}{
			"notes":         notes,
			"last_accessed": now,
		}); err != nil {
			return err
		}
		row.Notes = notes
		row.LastAccessed = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// resolveActiveEnrollment walks lesson -> module -> course and returns the
// caller's active enrollment in that course.
func (s *progressService) resolveActiveEnrollment(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.Enrollment, *types.Lesson, error) {
	lessons, err := s.lessons.GetByIDs(ctx, tx, []uuid.UUID{lessonID})
	if err != nil {
		return nil, nil, err
	}
	if len(lessons) == 0 {
		return nil, nil, apierr.NotFound("lesson %s not found", lessonID)
	}
	lesson := lessons[0]

	modules, err := s.modules.GetByIDs(ctx, tx, []uuid.UUID{lesson.ModuleID})
	if err != nil {
		return nil, nil, err
	}
	if len(modules) == 0 {
		return nil, nil, apierr.NotFound("module %s not found", lesson.ModuleID)
	}

	enrollment, err := s.enrollments.GetByUserAndCourse(ctx, tx, userID, modules[0].CourseID)
	if isRecordNotFound(err) {
		return nil, nil, apierr.NotFound("user %s is not enrolled in course %s", userID, modules[0].CourseID)
	}
	if err != nil {
		return nil, nil, err
	}
	if !enrollment.IsActive {
		return nil, nil, apierr.Validation("enrollment %s is not active", enrollment.ID)
	}
	return enrollment, lesson, nil
}

func (s *progressService) touchEnrollment(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment, now time.Time) error {
	fields := map[string]interface{}{"last_accessed": now}
	if enrollment.StartedAt == nil {
		fields["started_at"] = now
		enrollment.StartedAt = &now
	}
	enrollment.LastAccessed = now
	return s.enrollments.UpdateFields(ctx, tx, enrollment.ID, fields)
}
