package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/apierr"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

type SubmitQuizAttemptInput struct {
	TotalQuestions int
	CorrectAnswers int
	// TimeTaken is in seconds.
	TimeTaken int
	Answers   datatypes.JSON
}

type QuizService interface {
	// SubmitAttempt records a graded attempt. A passing score marks the quiz
	// lesson completed, which drives the enrollment percentage forward.
	SubmitAttempt(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, in SubmitQuizAttemptInput) (*types.QuizAttempt, error)
	ListAttempts(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizService struct {
	db           *gorm.DB
	log          *logger.Logger
	enrollments  repos.EnrollmentRepo
	lessons      repos.LessonRepo
	modules      repos.CourseModuleRepo
	quizAttempts repos.QuizAttemptRepo
	progress     ProgressService
}

func NewQuizService(
	db *gorm.DB,
	baseLog *logger.Logger,
	enrollments repos.EnrollmentRepo,
	lessons repos.LessonRepo,
	modules repos.CourseModuleRepo,
	quizAttempts repos.QuizAttemptRepo,
	progress ProgressService,
) QuizService {
	serviceLog := baseLog.With("service", "QuizService")
	return &quizService{
		db:           db,
		log:          serviceLog,
		enrollments:  enrollments,
		lessons:      lessons,
		modules:      modules,
		quizAttempts: quizAttempts,
		progress:     progress,
	}
}

func (s *quizService) SubmitAttempt(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, in SubmitQuizAttemptInput) (*types.QuizAttempt, error) {
	if in.TotalQuestions <= 0 {
		return nil, apierr.Validation("total questions must be positive, got %d", in.TotalQuestions)
	}
	if in.CorrectAnswers < 0 || in.CorrectAnswers > in.TotalQuestions {
		return nil, apierr.Validation("correct answers must be between 0 and %d, got %d", in.TotalQuestions, in.CorrectAnswers)
	}
	if in.TimeTaken < 0 {
		return nil, apierr.Validation("time taken must not be negative, got %d", in.TimeTaken)
	}

	var attempt *types.QuizAttempt
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		lessons, err := s.lessons.GetByIDs(ctx, tx, []uuid.UUID{lessonID})
		if err != nil {
			return err
		}
		if len(lessons) == 0 {
			return apierr.NotFound("lesson %s not found", lessonID)
		}
		lesson := lessons[0]
		if lesson.LessonType != types.LessonTypeQuiz {
			return apierr.Validation("lesson %s is not a quiz", lessonID)
		}

		modules, err := s.modules.GetByIDs(ctx, tx, []uuid.UUID{lesson.ModuleID})
		if err != nil {
			return err
		}
		if len(modules) == 0 {
			return apierr.NotFound("module %s not found", lesson.ModuleID)
		}
		enrollment, err := s.enrollments.GetByUserAndCourse(ctx, tx, userID, modules[0].CourseID)
		if isRecordNotFound(err) {
			return apierr.NotFound("user %s is not enrolled in course %s", userID, modules[0].CourseID)
		}
		if err != nil {
			return err
		}
		if !enrollment.IsActive {
			return apierr.Validation("enrollment %s is not active", enrollment.ID)
		}

		score := float64(in.CorrectAnswers) / float64(in.TotalQuestions) * 100
		now := time.Now().UTC()
		attempt = &types.QuizAttempt{
			EnrollmentID:   enrollment.ID,
			LessonID:       lessonID,
			Score:          score,
			TotalQuestions: in.TotalQuestions,
			CorrectAnswers: in.CorrectAnswers,
			IsPassed:       score >= types.QuizPassThreshold,
			TimeTaken:      in.TimeTaken,
			Answers:        in.Answers,
			StartedAt:      now.Add(-time.Duration(in.TimeTaken) * time.Second),
			CompletedAt:    &now,
		}
		if _, err := s.quizAttempts.Create(ctx, tx, []*types.QuizAttempt{attempt}); err != nil {
			return err
		}

		if attempt.IsPassed {
			if _, _, err := s.progress.MarkLessonCompleted(ctx, tx, userID, lessonID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *quizService) ListAttempts(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.QuizAttempt, error) {
	enrollment, err := s.enrollments.GetByUserAndCourse(ctx, tx, userID, courseID)
	if isRecordNotFound(err) {
		return nil, apierr.NotFound("user %s is not enrolled in course %s", userID, courseID)
	}
	if err != nil {
		return nil, err
	}
	return s.quizAttempts.GetByEnrollmentID(ctx, tx, enrollment.ID)
}
