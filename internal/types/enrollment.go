package types

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	// ProgressPercentage, IsCompleted and CompletedAt are owned by the
	// progress aggregator; nothing else writes them.
	ProgressPercentage float64 `gorm:"column:progress_percentage;type:numeric(5,2);not null;default:0" json:"progress_percentage"`
	IsCompleted        bool    `gorm:"column:is_completed;not null;default:false" json:"is_completed"`

	IsActive   bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsFavorite bool `gorm:"column:is_favorite;not null;default:false" json:"is_favorite"`

	TotalTimeSpent int `gorm:"column:total_time_spent;not null;default:0" json:"total_time_spent"`

	EnrolledAt   time.Time  `gorm:"column:enrolled_at;not null;default:now()" json:"enrolled_at"`
	StartedAt    *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastAccessed time.Time  `gorm:"column:last_accessed;not null;default:now()" json:"last_accessed"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }
