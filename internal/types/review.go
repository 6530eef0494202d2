package types

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_review_user_course,unique" json:"user_id"`
	User         *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_review_user_course,unique" json:"course_id"`
	Course       *Course     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	EnrollmentID *uuid.UUID  `gorm:"type:uuid;index" json:"enrollment_id,omitempty"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:SET NULL;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`

	Rating  int    `gorm:"column:rating;not null" json:"rating"`
	Comment string `gorm:"column:comment" json:"comment"`

	ContentQuality    *int `gorm:"column:content_quality" json:"content_quality,omitempty"`
	InstructorQuality *int `gorm:"column:instructor_quality" json:"instructor_quality,omitempty"`
	ValueForMoney     *int `gorm:"column:value_for_money" json:"value_for_money,omitempty"`

	IsVerified   bool `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	IsFeatured   bool `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	HelpfulCount int  `gorm:"column:helpful_count;not null;default:0" json:"helpful_count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Review) TableName() string { return "review" }
