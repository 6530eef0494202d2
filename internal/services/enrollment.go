package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

type SubmitReviewInput struct {
	Rating            int
	Comment           string
	ContentQuality    *int
	InstructorQuality *int
	ValueForMoney     *int
}

type EnrollmentService interface {
	// Enroll is idempotent on (user, course). Enrolling again while active
	// returns the existing row; enrolling after an unenroll reactivates it
	// with its progress intact. The bool reports whether a row was created.
	Enroll(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, bool, error)
	Unenroll(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error
	ToggleFavorite(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error)
	ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error)
	SubmitReview(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, in SubmitReviewInput) (*types.Review, error)
}

type enrollmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	courses     repos.CourseRepo
	reviews     repos.ReviewRepo
	catalog     CatalogService
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	enrollments repos.EnrollmentRepo,
	courses repos.CourseRepo,
	reviews repos.ReviewRepo,
	catalog CatalogService,
) EnrollmentService {
	serviceLog := baseLog.With("service", "EnrollmentService")
	return &enrollmentService{
		db:          db,
		log:         serviceLog,
		enrollments: enrollments,
		courses:     courses,
		reviews:     reviews,
		catalog:     catalog,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, bool, error) {
	var (
		enrollment *types.Enrollment
		created    bool
	)
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		courses, err := s.courses.GetByIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			return apierr.NotFound("course %s not found", courseID)
		}
		if !courses[0].IsPublished {
			return apierr.Validation("course %s is not published", courseID)
		}

		now := time.Now().UTC()
		enrollment, created, err = s.enrollments.GetOrCreate(ctx, tx, &types.Enrollment{
			UserID:       userID,
			CourseID:     courseID,
			IsActive:     true,
			EnrolledAt:   now,
			LastAccessed: now,
		})
		if err != nil {
			return err
		}
		if !created && !enrollment.IsActive {
			if err := s.enrollments.UpdateFields(ctx, tx, enrollment.ID, map[string]interface{}{
				"is_active":     true,
				"last_accessed": now,
			}); err != nil {
				return err
			}
			enrollment.IsActive = true
			enrollment.LastAccessed = now
			s.log.Info("Enrollment reactivated", "enrollment_id", enrollment.ID, "course_id", courseID)
		}
		return s.catalog.RefreshStudentCount(ctx, tx, courseID)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("User enrolled", "user_id", userID, "course_id", courseID)
	}
	return enrollment, created, nil
}

// Unenroll deactivates the enrollment but keeps its progress rows, so a later
// re-enroll picks up where the user left off.
func (s *enrollmentService) Unenroll(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
	return runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, err := s.enrollments.GetByUserAndCourse(ctx, tx, userID, courseID)
		if isRecordNotFound(err) {
			return apierr.NotFound("user %s is not enrolled in course %s", userID, courseID)
		}
		if err != nil {
			return err
		}
		if enrollment.IsActive {
			if err := s.enrollments.UpdateFields(ctx, tx, enrollment.ID, map[string]interface{}{
				"is_active": false,
			}); err != nil {
				return err
			}
		}
		return s.catalog.RefreshStudentCount(ctx, tx, courseID)
	})
}

func (s *enrollmentService) ToggleFavorite(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	var enrollment *types.Enrollment
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		var err error
		enrollment, err = s.enrollments.GetByUserAndCourse(ctx, tx, userID, courseID)
		if isRecordNotFound(err) {
			return apierr.NotFound("user %s is not enrolled in course %s", userID, courseID)
		}
		if err != nil {
			return err
		}
		if err := s.enrollments.UpdateFields(ctx, tx, enrollment.ID, map[string]interface{}{
			"is_favorite": !enrollment.IsFavorite,
		}); err != nil {
			return err
		}
		enrollment.IsFavorite = !enrollment.IsFavorite
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *enrollmentService) ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error) {
	return s.enrollments.GetActiveByUserID(ctx, tx, userID)
}

func (s *enrollmentService) SubmitReview(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, in SubmitReviewInput) (*types.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apierr.Validation("rating must be between 1 and 5, got %d", in.Rating)
	}
	for _, sub := range []*int{in.ContentQuality, in.InstructorQuality, in.ValueForMoney} {
		if sub != nil && (*sub < 1 || *sub > 5) {
			return nil, apierr.Validation("sub-scores must be between 1 and 5, got %d", *sub)
		}
	}

	var review *types.Review
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollment, err := s.enrollments.GetByUserAndCourse(ctx, tx, userID, courseID)
		if isRecordNotFound(err) {
			return apierr.Validation("user %s must be enrolled in course %s to review it", userID, courseID)
		}
		if err != nil {
			return err
		}

		review = &types.Review{
			UserID:            userID,
			CourseID:          courseID,
			EnrollmentID:      &enrollment.ID,
			IsVerified:        true,
			Rating:            in.Rating,
			Comment:           in.Comment,
			ContentQuality:    in.ContentQuality,
			InstructorQuality: in.InstructorQuality,
			ValueForMoney:     in.ValueForMoney,
		}
		if err := s.reviews.Upsert(ctx, tx, review); err != nil {
			return err
		}
		return s.catalog.RecalculateCourseRating(ctx, tx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}
