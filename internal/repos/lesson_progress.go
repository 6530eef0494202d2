package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

type LessonProgressRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) (*types.LessonProgress, bool, error)
	GetByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)
	GetByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error)
	CountCompletedByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error)
	CountCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	GetCompletionDatesByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	repoLog := baseLog.With("repo", "LessonProgressRepo")
	return &lessonProgressRepo{db: db, log: repoLog}
}

// GetOrCreate lazily materializes the (enrollment_id, lesson_id) row on
// first interaction with a lesson.
func (r *lessonProgressRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) (*types.LessonProgress, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", row.EnrollmentID, row.LessonID).
		FirstOrCreate(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return row, res.RowsAffected > 0, nil
}

func (r *lessonProgressRepo) GetByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.LessonProgress
	if err := transaction.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *lessonProgressRepo) GetByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LessonProgress
	if enrollmentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonProgressRepo) CountCompletedByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LessonProgress{}).
		Where("enrollment_id = ? AND is_completed = ?", enrollmentID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *lessonProgressRepo) CountCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LessonProgress{}).
		Joins("JOIN enrollment e ON e.id = lesson_progress.enrollment_id").
		Where("e.user_id = ? AND lesson_progress.is_completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetCompletionDatesByUserID returns the distinct calendar days (most recent
// first) on which the user completed at least one lesson. The streak walk
// runs over this instead of issuing one existence query per day.
func (r *lessonProgressRepo) GetCompletionDatesByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var dates []time.Time
	if err := transaction.WithContext(ctx).
		Raw(`SELECT DISTINCT DATE(lp.completed_at) AS day
		     FROM lesson_progress lp
		     JOIN enrollment e ON e.id = lp.enrollment_id
		     WHERE e.user_id = ? AND lp.is_completed = TRUE AND lp.completed_at IS NOT NULL
		     ORDER BY day DESC`, userID).
		Scan(&dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *lessonProgressRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.LessonProgress{}).
		Where("id = ?", id).
		Updates(fields).Error
}
