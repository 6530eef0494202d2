package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error)
	GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error)
	GetByModuleAndVideoID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, videoID string) (*types.Lesson, error)
	CountPublishedByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	SumPublishedDurationByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	SumPublishedDurationByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int64, error)
	NextPosition(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int, error)
	GetStaleVideoLessons(ctx context.Context, tx *gorm.DB, updatedBefore time.Time, limit int) ([]*types.Lesson, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Lesson{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lesson
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) GetByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lesson
	if moduleID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) GetByModuleAndVideoID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, videoID string) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Lesson
	if err := transaction.WithContext(ctx).
		Where("module_id = ? AND youtube_video_id = ?", moduleID, videoID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *lessonRepo) CountPublishedByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Joins("JOIN course_module cm ON cm.id = lesson.module_id").
		Where("cm.course_id = ? AND cm.is_published = ? AND cm.deleted_at IS NULL AND lesson.is_published = ?", courseID, true, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *lessonRepo) SumPublishedDurationByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Select("COALESCE(SUM(lesson.duration), 0)").
		Joins("JOIN course_module cm ON cm.id = lesson.module_id").
		Where("cm.course_id = ? AND cm.is_published = ? AND cm.deleted_at IS NULL AND lesson.is_published = ?", courseID, true, true).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *lessonRepo) SumPublishedDurationByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Select("COALESCE(SUM(duration), 0)").
		Where("module_id = ? AND is_published = ?", moduleID, true).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// NextPosition returns the next free order slot in a module's lesson list.
func (r *lessonRepo) NextPosition(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var max int
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Select("COALESCE(MAX(position), 0)").
		Where("module_id = ?", moduleID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *lessonRepo) GetStaleVideoLessons(ctx context.Context, tx *gorm.DB, updatedBefore time.Time, limit int) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lesson
	q := transaction.WithContext(ctx).
		Where("lesson_type = ? AND is_published = ? AND youtube_video_id <> '' AND updated_at < ?", types.LessonTypeVideo, true, updatedBefore).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Where("id = ?", id).
		Updates(fields).Error
}
