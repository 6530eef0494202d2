package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type Course struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Slug            string     `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description     string     `gorm:"column:description" json:"description"`
	FullDescription string     `gorm:"column:full_description" json:"full_description"`
	CategoryID      *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category        *Category  `gorm:"constraint:OnDelete:SET NULL;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	InstructorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Difficulty string  `gorm:"column:difficulty;not null;default:'beginner'" json:"difficulty"`
	Duration   int     `gorm:"column:duration;not null;default:0" json:"duration"`
	Price      float64 `gorm:"column:price;type:numeric(10,2);not null;default:0" json:"price"`

	// Derived fields, written only by the catalog/enrollment services.
	Rating        float64 `gorm:"column:rating;type:numeric(3,2);not null;default:0" json:"rating"`
	TotalStudents int     `gorm:"column:total_students;not null;default:0" json:"total_students"`
	TotalReviews  int     `gorm:"column:total_reviews;not null;default:0" json:"total_reviews"`

	IsPublished bool `gorm:"column:is_published;not null;default:false" json:"is_published"`
	IsNew       bool `gorm:"column:is_new;not null;default:true" json:"is_new"`
	IsFeatured  bool `gorm:"column:is_featured;not null;default:false" json:"is_featured"`

	Prerequisites      string `gorm:"column:prerequisites" json:"prerequisites"`
	LearningObjectives string `gorm:"column:learning_objectives" json:"learning_objectives"`

	YoutubePlaylistID   string     `gorm:"column:youtube_playlist_id" json:"youtube_playlist_id"`
	YoutubeChannelID    string     `gorm:"column:youtube_channel_id" json:"youtube_channel_id"`
	YoutubeChannelName  string     `gorm:"column:youtube_channel_name" json:"youtube_channel_name"`
	YoutubeThumbnailURL string     `gorm:"column:youtube_thumbnail_url" json:"youtube_thumbnail_url"`
	IsYoutubeSynced     bool       `gorm:"column:is_youtube_synced;not null;default:false" json:"is_youtube_synced"`
	LastYoutubeSync     *time.Time `gorm:"column:last_youtube_sync" json:"last_youtube_sync,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

// HasYoutubeSource reports whether the course is linked to an external video
// source the sync job can pull from.
func (c *Course) HasYoutubeSource() bool {
	return c.YoutubePlaylistID != "" || c.YoutubeChannelID != ""
}
