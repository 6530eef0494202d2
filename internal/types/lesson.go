package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LessonTypeVideo    = "video"
	LessonTypeText     = "text"
	LessonTypeQuiz     = "quiz"
	LessonTypeExercise = "exercise"
)

type Lesson struct {
	ID       uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModuleID uuid.UUID     `gorm:"type:uuid;not null;index:idx_module_position,unique;index:idx_module_video" json:"module_id"`
	Module   *CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Position int           `gorm:"column:position;not null;index:idx_module_position,unique" json:"position"`

	Title      string `gorm:"column:title;not null" json:"title"`
	Slug       string `gorm:"column:slug" json:"slug"`
	LessonType string `gorm:"column:lesson_type;not null;default:'video'" json:"lesson_type"`
	Content    string `gorm:"column:content" json:"content"`
	VideoURL   string `gorm:"column:video_url" json:"video_url"`

	// Duration is in minutes; youtube-sourced lessons derive it from
	// YoutubeDurationSeconds with a 1 minute floor.
	Duration  int    `gorm:"column:duration;not null;default:0" json:"duration"`
	Resources string `gorm:"column:resources" json:"resources"`

	IsPreview   bool `gorm:"column:is_preview;not null;default:false" json:"is_preview"`
	IsPublished bool `gorm:"column:is_published;not null;default:true" json:"is_published"`

	YoutubeVideoID         string     `gorm:"column:youtube_video_id;index:idx_module_video" json:"youtube_video_id"`
	YoutubeTitle           string     `gorm:"column:youtube_title" json:"youtube_title"`
	YoutubeDescription     string     `gorm:"column:youtube_description" json:"youtube_description"`
	YoutubeThumbnailURL    string     `gorm:"column:youtube_thumbnail_url" json:"youtube_thumbnail_url"`
	YoutubeDurationSeconds int        `gorm:"column:youtube_duration_seconds;not null;default:0" json:"youtube_duration_seconds"`
	YoutubeViewCount       int64      `gorm:"column:youtube_view_count;not null;default:0" json:"youtube_view_count"`
	YoutubePublishedAt     *time.Time `gorm:"column:youtube_published_at" json:"youtube_published_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
