package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/repos"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

// StatisticsService recomputes the per-user rollup from enrollments, lesson
// progress and quiz attempts. Everything except LongestStreakDays is derived
// from scratch on each call; the longest streak is a high-water mark and only
// ever moves up.
type StatisticsService interface {
	UpdateStatistics(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error)
	GetStatistics(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error)
}

type statisticsService struct {
	db             *gorm.DB
	log            *logger.Logger
	statistics     repos.UserStatisticsRepo
	enrollments    repos.EnrollmentRepo
	lessonProgress repos.LessonProgressRepo
	quizAttempts   repos.QuizAttemptRepo
	now            func() time.Time
}

func NewStatisticsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	statistics repos.UserStatisticsRepo,
	enrollments repos.EnrollmentRepo,
	lessonProgress repos.LessonProgressRepo,
	quizAttempts repos.QuizAttemptRepo,
) StatisticsService {
	serviceLog := baseLog.With("service", "StatisticsService")
	return &statisticsService{
		db:             db,
		log:            serviceLog,
		statistics:     statistics,
		enrollments:    enrollments,
		lessonProgress: lessonProgress,
		quizAttempts:   quizAttempts,
		now:            time.Now,
	}
}

func (s *statisticsService) UpdateStatistics(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error) {
	var stats *types.UserStatistics
	err := runInTx(ctx, s.db, tx, func(tx *gorm.DB) error {
		enrollments, err := s.enrollments.GetActiveByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		completedCourses := 0
		totalStudyTime := 0
		var progressSum float64
		for _, e := range enrollments {
			if e.IsCompleted {
				completedCourses++
			}
			totalStudyTime += e.TotalTimeSpent
			progressSum += e.ProgressPercentage
		}
		var avgProgress float64
		if len(enrollments) > 0 {
			avgProgress = progressSum / float64(len(enrollments))
		}

		lessonsCompleted, err := s.lessonProgress.CountCompletedByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		quizzesPassed, err := s.quizAttempts.CountPassedByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		avgQuizScore, err := s.quizAttempts.AverageScoreByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		studyDays, err := s.lessonProgress.GetCompletionDatesByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		streak := currentStreak(studyDays, s.now())

		stats, err = s.statistics.GetOrCreateByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		stats.TotalCoursesEnrolled = len(enrollments)
		stats.TotalCoursesCompleted = completedCourses
		stats.TotalLessonsCompleted = int(lessonsCompleted)
		stats.TotalStudyTime = totalStudyTime
		stats.TotalQuizzesPassed = int(quizzesPassed)
		stats.AverageQuizScore = avgQuizScore
		stats.AverageProgress = avgProgress
		stats.CurrentStreakDays = streak
		if streak > stats.LongestStreakDays {
			stats.LongestStreakDays = streak
		}
		if len(studyDays) > 0 {
			last := dateOnly(studyDays[0])
			stats.LastStudyDate = &last
		} else {
			stats.LastStudyDate = nil
		}
		return s.statistics.Save(ctx, tx, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *statisticsService) GetStatistics(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error) {
	return s.statistics.GetOrCreateByUserID(ctx, tx, userID)
}

// currentStreak counts consecutive study days ending today. A day with no
// completion breaks the run, today included: no completion today means the
// streak is 0 no matter how long yesterday's run was. studyDays must be
// distinct calendar days, most recent first.
func currentStreak(studyDays []time.Time, now time.Time) int {
	if len(studyDays) == 0 || !dateOnly(studyDays[0]).Equal(dateOnly(now)) {
		return 0
	}
	cursor := dateOnly(now)
	streak := 0
	for _, d := range studyDays {
		if !dateOnly(d).Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
