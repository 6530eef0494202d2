package types

import (
	"time"

	"github.com/google/uuid"
)

// UserStatistics is a denormalized rollup, recomputed on demand from
// enrollments, lesson progress and quiz attempts. It is never the source of
// truth; LongestStreakDays is the only field carrying state across
// recomputations (a high-water mark).
type UserStatistics struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	TotalCoursesEnrolled  int `gorm:"column:total_courses_enrolled;not null;default:0" json:"total_courses_enrolled"`
	TotalCoursesCompleted int `gorm:"column:total_courses_completed;not null;default:0" json:"total_courses_completed"`
	TotalLessonsCompleted int `gorm:"column:total_lessons_completed;not null;default:0" json:"total_lessons_completed"`
	TotalStudyTime        int `gorm:"column:total_study_time;not null;default:0" json:"total_study_time"`
	TotalQuizzesPassed    int `gorm:"column:total_quizzes_passed;not null;default:0" json:"total_quizzes_passed"`

	AverageQuizScore float64 `gorm:"column:average_quiz_score;type:numeric(5,2);not null;default:0" json:"average_quiz_score"`
	AverageProgress  float64 `gorm:"column:average_progress;type:numeric(5,2);not null;default:0" json:"average_progress"`

	CurrentStreakDays int        `gorm:"column:current_streak_days;not null;default:0" json:"current_streak_days"`
	LongestStreakDays int        `gorm:"column:longest_streak_days;not null;default:0" json:"longest_streak_days"`
	LastStudyDate     *time.Time `gorm:"column:last_study_date;type:date" json:"last_study_date,omitempty"`

	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserStatistics) TableName() string { return "user_statistics" }
