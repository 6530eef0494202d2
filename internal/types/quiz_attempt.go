package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizPassThreshold is the minimum score (out of 100) for a passing attempt.
const QuizPassThreshold = 70.0

type QuizAttempt struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`
	LessonID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson       *Lesson     `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	Score          float64 `gorm:"column:score;type:numeric(5,2);not null;default:0" json:"score"`
	TotalQuestions int     `gorm:"column:total_questions;not null;default:0" json:"total_questions"`
	CorrectAnswers int     `gorm:"column:correct_answers;not null;default:0" json:"correct_answers"`
	IsPassed       bool    `gorm:"column:is_passed;not null;default:false" json:"is_passed"`

	TimeTaken int `gorm:"column:time_taken;not null;default:0" json:"time_taken"`

	Answers datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`

	StartedAt   time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }
