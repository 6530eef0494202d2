package types

import (
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_cert_user_course,unique" json:"user_id"`
	User         *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_cert_user_course,unique" json:"course_id"`
	Course       *Course     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`

	// CertificateID and VerificationCode are assigned exactly once at
	// issuance and never regenerated.
	CertificateID    string `gorm:"uniqueIndex;not null;column:certificate_id" json:"certificate_id"`
	VerificationCode string `gorm:"uniqueIndex;not null;column:verification_code" json:"verification_code"`

	// Snapshot fields: later profile or catalog edits do not alter issued
	// certificates.
	StudentName    string     `gorm:"column:student_name" json:"student_name"`
	CourseTitle    string     `gorm:"column:course_title" json:"course_title"`
	InstructorName string     `gorm:"column:instructor_name" json:"instructor_name"`
	CompletionDate *time.Time `gorm:"column:completion_date" json:"completion_date,omitempty"`
	FinalScore     *float64   `gorm:"column:final_score;type:numeric(5,2)" json:"final_score,omitempty"`

	IsValid       bool `gorm:"column:is_valid;not null;default:true" json:"is_valid"`
	DownloadCount int  `gorm:"column:download_count;not null;default:0" json:"download_count"`

	IssuedAt time.Time `gorm:"column:issued_at;not null;default:now()" json:"issued_at"`
}

func (Certificate) TableName() string { return "certificate" }
