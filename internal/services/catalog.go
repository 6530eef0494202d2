package services

import (
	"context"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
)

// CatalogService recomputes the denormalized rollups on the course row.
// Duration, rating, review count and student count live there only for cheap
// listing queries; the underlying rows stay the source of truth.
type CatalogService interface {
	RecalculateCourseDuration(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error)
	RecalculateCourseRating(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	RefreshStudentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	modules     repos.CourseModuleRepo
	lessons     repos.LessonRepo
	reviews     repos.ReviewRepo
	enrollments repos.EnrollmentRepo
}

func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	modules repos.CourseModuleRepo,
	lessons repos.LessonRepo,
	reviews repos.ReviewRepo,
	enrollments repos.EnrollmentRepo,
) CatalogService {
	serviceLog := baseLog.With("service", "CatalogService")
	return &catalogService{
		db:          db,
		log:         serviceLog,
		courses:     courses,
		modules:     modules,
		lessons:     lessons,
		reviews:     reviews,
		enrollments: enrollments,
	}
}

// RecalculateCourseDuration refreshes each module's duration and the course
// total from the published lessons, returning the course total in minutes.
func (s *catalogService) RecalculateCourseDuration(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error) {
	var total int64
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		if err := s.requireCourse(ctx, tx, courseID); err != nil {
			return err
		}
		modules, err := s.modules.GetByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		for _, m := range modules {
			moduleTotal, err := s.lessons.SumPublishedDurationByModuleID(ctx, tx, m.ID)
			if err != nil {
				return err
			}
			if int(moduleTotal) != m.Duration {
				if err := s.modules.UpdateFields(ctx, tx, m.ID, map[string]interface{}{
					"duration": moduleTotal,
				}); err != nil {
					return err
				}
			}
		}

		total, err = s.lessons.SumPublishedDurationByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		return s.courses.UpdateFields(ctx, tx, courseID, map[string]interface{}{
			"duration": total,
		})
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *catalogService) RecalculateCourseRating(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	return runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		if err := s.requireCourse(ctx, tx, courseID); err != nil {
			return err
		}
		avg, err := s.reviews.AverageRatingByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		count, err := s.reviews.CountByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		return s.courses.UpdateFields(ctx, tx, courseID, map[string]interface{}{
			"rating":        math.Round(avg*100) / 100,
			"total_reviews": count,
		})
	})
}

func (s *catalogService) RefreshStudentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	return runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		count, err := s.enrollments.CountActiveByCourseID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		return s.courses.UpdateFields(ctx, tx, courseID, map[string]interface{}{
			"total_students": count,
		})
	})
}

func (s *catalogService) requireCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	courses, err := s.courses.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return apierr.NotFound("course %s not found", courseID)
	}
	return nil
}
