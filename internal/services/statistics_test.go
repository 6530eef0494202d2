package services

import (
	"context"
	"testing"
	"time"

	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

func day(t time.Time, offset int) time.Time {
	return dateOnly(t).AddDate(0, 0, offset)
}

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no study days", nil, 0},
		{"today only", []time.Time{day(now, 0)}, 1},
		{"three days ending today", []time.Time{day(now, 0), day(now, -1), day(now, -2)}, 3},
		{"gap breaks the walk", []time.Time{day(now, 0), day(now, -1), day(now, -3), day(now, -4)}, 2},
		{"no completion today resets", []time.Time{day(now, -1), day(now, -2)}, 0},
		{"older run without today", []time.Time{day(now, -2), day(now, -3)}, 0},
		{"single old day", []time.Time{day(now, -10)}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := currentStreak(tc.days, now); got != tc.want {
				t.Fatalf("currentStreak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUpdateStatisticsRollup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student, _, module, lessons, enrollment := seedCourseWithLessons(env.s, 2)
	quizLesson := env.s.addLesson(module.ID, 3, types.LessonTypeQuiz)

	if _, _, err := env.progress.MarkLessonCompleted(ctx, env.tx, student.ID, lessons[0].ID); err != nil {
		t.Fatalf("MarkLessonCompleted: %v", err)
	}
	if _, err := env.quiz.SubmitAttempt(ctx, env.tx, student.ID, quizLesson.ID, SubmitQuizAttemptInput{
		TotalQuestions: 10,
		CorrectAnswers: 8,
	}); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	stats, err := env.statistics.UpdateStatistics(ctx, env.tx, student.ID)
	if err != nil {
		t.Fatalf("UpdateStatistics: %v", err)
	}

	if stats.TotalCoursesEnrolled != 1 {
		t.Fatalf("courses enrolled = %d, want 1", stats.TotalCoursesEnrolled)
	}
	if stats.TotalCoursesCompleted != 0 {
		t.Fatalf("courses completed = %d, want 0", stats.TotalCoursesCompleted)
	}
	if stats.TotalLessonsCompleted != 2 {
		t.Fatalf("lessons completed = %d, want 2 (video + passed quiz)", stats.TotalLessonsCompleted)
	}
	if stats.TotalQuizzesPassed != 1 {
		t.Fatalf("quizzes passed = %d, want 1", stats.TotalQuizzesPassed)
	}
	if stats.AverageQuizScore != 80 {
		t.Fatalf("average quiz score = %v, want 80", stats.AverageQuizScore)
	}
	if stats.AverageProgress != enrollment.ProgressPercentage {
		t.Fatalf("average progress = %v, want %v", stats.AverageProgress, enrollment.ProgressPercentage)
	}
	if stats.CurrentStreakDays != 1 {
		t.Fatalf("current streak = %d, want 1", stats.CurrentStreakDays)
	}
	if stats.LastStudyDate == nil {
		t.Fatal("last study date not set")
	}
}

func TestUpdateStatisticsLongestStreakIsHighWater(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student, _, _, _, enrollment := seedCourseWithLessons(env.s, 1)

	svc := env.statistics.(*statisticsService)
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// Seed a five day run of completions ending ten days ago.
	for i := 0; i < 5; i++ {
		addCompletedProgress(env.s, enrollment.ID, day(base, -10-i))
	}

	svc.now = func() time.Time { return base }
	stats, err := svc.UpdateStatistics(ctx, env.tx, student.ID)
	if err != nil {
		t.Fatalf("UpdateStatistics: %v", err)
	}
	if stats.CurrentStreakDays != 0 {
		t.Fatalf("current streak = %d, want 0 (run ended ten days ago)", stats.CurrentStreakDays)
	}

	// Pretend the rollup ran back when the streak was live.
	svc.now = func() time.Time { return day(base, -10).Add(20 * time.Hour) }
	stats, err = svc.UpdateStatistics(ctx, env.tx, student.ID)
	if err != nil {
		t.Fatalf("UpdateStatistics: %v", err)
	}
	if stats.CurrentStreakDays != 5 {
		t.Fatalf("current streak = %d, want 5", stats.CurrentStreakDays)
	}
	if stats.LongestStreakDays != 5 {
		t.Fatalf("longest streak = %d, want 5", stats.LongestStreakDays)
	}

	// Back in the present the current streak collapses but the longest must
	// not move down.
	svc.now = func() time.Time { return base }
	stats, err = svc.UpdateStatistics(ctx, env.tx, student.ID)
	if err != nil {
		t.Fatalf("UpdateStatistics: %v", err)
	}
	if stats.CurrentStreakDays != 0 {
		t.Fatalf("current streak = %d, want 0", stats.CurrentStreakDays)
	}
	if stats.LongestStreakDays != 5 {
		t.Fatalf("longest streak = %d, want 5 preserved", stats.LongestStreakDays)
	}
}
