package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

// certificateIDAttempts bounds the regenerate loop when a freshly generated
// public ID collides with an existing one.
const certificateIDAttempts = 5

type CertificateService interface {
	// IssueForEnrollment issues a certificate for a completed enrollment. The
	// bool reports whether this call created it; calling again for the same
	// enrollment returns the original certificate unchanged.
	IssueForEnrollment(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Certificate, bool, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Certificate, error)
	Verify(ctx context.Context, tx *gorm.DB, reference string) (*types.Certificate, error)
	Download(ctx context.Context, tx *gorm.DB, certificateID string) (*types.Certificate, error)
	Revoke(ctx context.Context, tx *gorm.DB, certificateID string) error
}

type certificateService struct {
	db           *gorm.DB
	log          *logger.Logger
	certificates repos.CertificateRepo
	users        repos.UserRepo
	courses      repos.CourseRepo
	quizAttempts repos.QuizAttemptRepo
	bus          events.Bus
}

func NewCertificateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	certificates repos.CertificateRepo,
	users repos.UserRepo,
	courses repos.CourseRepo,
	quizAttempts repos.QuizAttemptRepo,
	bus events.Bus,
) CertificateService {
	serviceLog := baseLog.With("service", "CertificateService")
	return &certificateService{
		db:           db,
		log:          serviceLog,
		certificates: certificates,
		users:        users,
		courses:      courses,
		quizAttempts: quizAttempts,
		bus:          bus,
	}
}

func (s *certificateService) IssueForEnrollment(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Certificate, bool, error) {
	if enrollment == nil {
		return nil, false, apierr.Validation("enrollment is required")
	}
	if !enrollment.IsCompleted || enrollment.ProgressPercentage < 100 {
		return nil, false, apierr.Validation("enrollment %s is not completed", enrollment.ID)
	}

	var (
		cert    *types.Certificate
		created bool
	)
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		users, err := s.users.GetByIDs(ctx, tx, []uuid.UUID{enrollment.UserID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return apierr.NotFound("user %s not found", enrollment.UserID)
		}
		courses, err := s.courses.GetByIDs(ctx, tx, []uuid.UUID{enrollment.CourseID})
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			return apierr.NotFound("course %s not found", enrollment.CourseID)
		}
		user := users[0]
		course := courses[0]

		instructorName := ""
		if instructors, err := s.users.GetByIDs(ctx, tx, []uuid.UUID{course.InstructorID}); err != nil {
			return err
		} else if len(instructors) > 0 {
			instructorName = instructors[0].FullName()
		}

		certificateID, err := s.newCertificateID(ctx, tx)
		if err != nil {
			return err
		}

		issuedAt := time.Now().UTC()
		row := &types.Certificate{
			UserID:           enrollment.UserID,
			CourseID:         enrollment.CourseID,
			EnrollmentID:     enrollment.ID,
			CertificateID:    certificateID,
			VerificationCode: verificationCode(enrollment.UserID, enrollment.CourseID, issuedAt),
			StudentName:      user.FullName(),
			CourseTitle:      course.Title,
			InstructorName:   instructorName,
			CompletionDate:   enrollment.CompletedAt,
			FinalScore:       s.finalScore(ctx, tx, enrollment.ID),
			IsValid:          true,
			IssuedAt:         issuedAt,
		}
		cert, created, err = s.certificates.GetOrCreate(ctx, tx, row)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info("Certificate issued",
			"certificate_id", cert.CertificateID,
			"user_id", cert.UserID,
			"course_id", cert.CourseID)
		publish(ctx, s.bus, s.log, events.Event{
			Type:    events.TypeCertificateIssued,
			Channel: "user:" + cert.UserID.String(),
			Data: map[string]interface{}{
				"certificate_id": cert.CertificateID,
				"course_id":      cert.CourseID.String(),
			},
		})
	}
	return cert, created, nil
}

func (s *certificateService) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Certificate, error) {
	return s.certificates.GetByUserID(ctx, tx, userID)
}

// Verify resolves a certificate by its public ID or its verification code.
// Unknown references and revoked certificates both come back as not found so
// the caller leaks nothing about which case it was.
func (s *certificateService) Verify(ctx context.Context, tx *gorm.DB, reference string) (*types.Certificate, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apierr.Validation("certificate reference is required")
	}

	cert, err := s.certificates.GetByCertificateID(ctx, tx, reference)
	if isRecordNotFound(err) {
		cert, err = s.certificates.GetByVerificationCode(ctx, tx, reference)
	}
	if isRecordNotFound(err) {
		return nil, apierr.NotFound("certificate %q not found", reference)
	}
	if err != nil {
		return nil, err
	}
	if !cert.IsValid {
		return nil, apierr.NotFound("certificate %q not found", reference)
	}
	return cert, nil
}

func (s *certificateService) Download(ctx context.Context, tx *gorm.DB, certificateID string) (*types.Certificate, error) {
	cert, err := s.certificates.GetByCertificateID(ctx, tx, certificateID)
	if isRecordNotFound(err) {
		return nil, apierr.NotFound("certificate %q not found", certificateID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.certificates.IncrementDownloadCount(ctx, tx, cert.ID); err != nil {
		return nil, err
	}
	cert.DownloadCount++
	return cert, nil
}

func (s *certificateService) Revoke(ctx context.Context, tx *gorm.DB, certificateID string) error {
	cert, err := s.certificates.GetByCertificateID(ctx, tx, certificateID)
	if isRecordNotFound(err) {
		return apierr.NotFound("certificate %q not found", certificateID)
	}
	if err != nil {
		return err
	}
	if !cert.IsValid {
		return nil
	}
	s.log.Info("Certificate revoked", "certificate_id", certificateID)
	return s.certificates.UpdateFields(ctx, tx, cert.ID, map[string]interface{}{
		"is_valid": false,
	})
}

// newCertificateID generates a public ID of the form WIM-<year>-<5 hex chars>
// and retries on the unlikely collision with an existing one.
func (s *certificateService) newCertificateID(ctx context.Context, tx *gorm.DB) (string, error) {
	year := time.Now().UTC().Year()
	for attempt := 0; attempt < certificateIDAttempts; attempt++ {
		b := make([]byte, 3)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		id := fmt.Sprintf("WIM-%d-%s", year, strings.ToUpper(hex.EncodeToString(b))[:5])
		exists, err := s.certificates.CertificateIDExists(ctx, tx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		s.log.Warn("Certificate ID collision, regenerating", "certificate_id", id)
	}
	return "", apierr.Conflict("could not allocate a unique certificate id after %d attempts", certificateIDAttempts)
}

// finalScore snapshots the average quiz score for the enrollment, nil when the
// course had no quizzes.
func (s *certificateService) finalScore(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) *float64 {
	attempts, err := s.quizAttempts.GetByEnrollmentID(ctx, tx, enrollmentID)
	if err != nil {
		s.log.Warn("Could not load quiz attempts for final score", "enrollment_id", enrollmentID, "error", err)
		return nil
	}
	if len(attempts) == 0 {
		return nil
	}
	var sum float64
	for _, a := range attempts {
		sum += a.Score
	}
	avg := sum / float64(len(attempts))
	return &avg
}

func verificationCode(userID, courseID uuid.UUID, issuedAt time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", userID, courseID, issuedAt.UnixNano())))
	return hex.EncodeToString(sum[:])
}
