package types

import (
	"time"

	"github.com/google/uuid"
)

type LessonProgress struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;index:idx_enrollment_lesson,unique" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`
	LessonID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_enrollment_lesson,unique" json:"lesson_id"`
	Lesson       *Lesson     `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	// Invariant: CompletedAt is set exactly when IsCompleted is true.
	IsCompleted bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	TimeSpent     int `gorm:"column:time_spent;not null;default:0" json:"time_spent"`
	VideoPosition int `gorm:"column:video_position;not null;default:0" json:"video_position"`

	StartedAt    *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	LastAccessed time.Time  `gorm:"column:last_accessed;not null;default:now()" json:"last_accessed"`

	Notes string `gorm:"column:notes" json:"notes"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }
