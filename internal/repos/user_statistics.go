package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

type UserStatisticsRepo interface {
	GetOrCreateByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserStatistics) error
}

type userStatisticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStatisticsRepo(db *gorm.DB, baseLog *logger.Logger) UserStatisticsRepo {
	repoLog := baseLog.With("repo", "UserStatisticsRepo")
	return &userStatisticsRepo{db: db, log: repoLog}
}

func (r *userStatisticsRepo) GetOrCreateByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.UserStatistics{UserID: userID}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userStatisticsRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserStatistics) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}
