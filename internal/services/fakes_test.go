package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/FrejusAdedemi/wim-plateform/internal/clients/youtube"
	"github.com/FrejusAdedemi/wim-plateform/internal/events"
	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/types"
)

// store is the shared in-memory backing for the fake repos. Services only
// touch storage through the repo interfaces, so the whole service layer runs
// against it without a database.
type store struct {
	users        map[uuid.UUID]*types.User
	courses      map[uuid.UUID]*types.Course
	modules      map[uuid.UUID]*types.CourseModule
	lessons      map[uuid.UUID]*types.Lesson
	enrollments  map[uuid.UUID]*types.Enrollment
	progress     map[uuid.UUID]*types.LessonProgress
	attempts     []*types.QuizAttempt
	reviews      map[uuid.UUID]*types.Review
	certificates map[uuid.UUID]*types.Certificate
	stats        map[uuid.UUID]*types.UserStatistics
}

func newStore() *store {
	return &store{
		users:        map[uuid.UUID]*types.User{},
		courses:      map[uuid.UUID]*types.Course{},
		modules:      map[uuid.UUID]*types.CourseModule{},
		lessons:      map[uuid.UUID]*types.Lesson{},
		enrollments:  map[uuid.UUID]*types.Enrollment{},
		progress:     map[uuid.UUID]*types.LessonProgress{},
		reviews:      map[uuid.UUID]*types.Review{},
		certificates: map[uuid.UUID]*types.Certificate{},
		stats:        map[uuid.UUID]*types.UserStatistics{},
	}
}

func (s *store) addUser(email string) *types.User {
	u := &types.User{ID: uuid.New(), Email: email, FirstName: "Ada", LastName: "Lovelace"}
	s.users[u.ID] = u
	return u
}

func (s *store) addCourse(instructorID uuid.UUID, slug string) *types.Course {
	c := &types.Course{
		ID:           uuid.New(),
		Title:        "course " + slug,
		Slug:         slug,
		InstructorID: instructorID,
		IsPublished:  true,
	}
	s.courses[c.ID] = c
	return c
}

func (s *store) addModule(courseID uuid.UUID, position int) *types.CourseModule {
	m := &types.CourseModule{
		ID:          uuid.New(),
		CourseID:    courseID,
		Position:    position,
		Title:       fmt.Sprintf("module %d", position),
		IsPublished: true,
	}
	s.modules[m.ID] = m
	return m
}

func (s *store) addLesson(moduleID uuid.UUID, position int, lessonType string) *types.Lesson {
	l := &types.Lesson{
		ID:          uuid.New(),
		ModuleID:    moduleID,
		Position:    position,
		Title:       fmt.Sprintf("lesson %d", position),
		LessonType:  lessonType,
		Duration:    5,
		IsPublished: true,
		UpdatedAt:   time.Now().UTC(),
	}
	s.lessons[l.ID] = l
	return l
}

func (s *store) addEnrollment(userID, courseID uuid.UUID) *types.Enrollment {
	e := &types.Enrollment{
		ID:           uuid.New(),
		UserID:       userID,
		CourseID:     courseID,
		IsActive:     true,
		EnrolledAt:   time.Now().UTC(),
		LastAccessed: time.Now().UTC(),
	}
	s.enrollments[e.ID] = e
	return e
}

// addCompletedProgress seeds a completed lesson progress row against a fresh
// lesson id, for streak scenarios where only the completion date matters.
func addCompletedProgress(s *store, enrollmentID uuid.UUID, completedAt time.Time) *types.LessonProgress {
	p := &types.LessonProgress{
		ID:           uuid.New(),
		EnrollmentID: enrollmentID,
		LessonID:     uuid.New(),
		IsCompleted:  true,
		CompletedAt:  &completedAt,
	}
	s.progress[p.ID] = p
	return p
}

func (s *store) certificateFor(userID, courseID uuid.UUID) (*types.Certificate, error) {
	for _, c := range s.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		panic(fmt.Sprintf("unexpected numeric type %T", v))
	}
}

func asTimePtr(v interface{}) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

// --- UserRepo ---

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.User) ([]*types.User, error) {
	for _, u := range rows {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.s.users[u.ID] = u
	}
	return rows, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// --- CourseRepo ---

type fakeCourseRepo struct{ s *store }

func (r *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
	for _, c := range rows {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.s.courses[c.ID] = c
	}
	return rows, nil
}

func (r *fakeCourseRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
	var out []*types.Course
	for _, id := range ids {
		if c, ok := r.s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) GetBySlug(_ context.Context, _ *gorm.DB, slug string) (*types.Course, error) {
	for _, c := range r.s.courses {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) GetPublishedWithYoutubeSource(_ context.Context, _ *gorm.DB) ([]*types.Course, error) {
	var out []*types.Course
	for _, c := range r.s.courses {
		if c.IsPublished && c.HasYoutubeSource() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *fakeCourseRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	c, ok := r.s.courses[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "duration":
			c.Duration = asInt(v)
		case "rating":
			c.Rating = v.(float64)
		case "total_reviews":
			c.TotalReviews = asInt(v)
		case "total_students":
			c.TotalStudents = asInt(v)
		case "is_youtube_synced":
			c.IsYoutubeSynced = v.(bool)
		case "last_youtube_sync":
			c.LastYoutubeSync = asTimePtr(v)
		case "youtube_channel_name":
			c.YoutubeChannelName = v.(string)
		case "youtube_thumbnail_url":
			c.YoutubeThumbnailURL = v.(string)
		default:
			panic("fakeCourseRepo: unhandled field " + k)
		}
	}
	return nil
}

func (r *fakeCourseRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(r.s.courses, id)
	}
	return nil
}

// --- CourseModuleRepo ---

type fakeCourseModuleRepo struct{ s *store }

func (r *fakeCourseModuleRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.CourseModule) ([]*types.CourseModule, error) {
	for _, m := range rows {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		r.s.modules[m.ID] = m
	}
	return rows, nil
}

func (r *fakeCourseModuleRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.CourseModule, error) {
	var out []*types.CourseModule
	for _, id := range ids {
		if m, ok := r.s.modules[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeCourseModuleRepo) GetByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.CourseModule, error) {
	var out []*types.CourseModule
	for _, m := range r.s.modules {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeCourseModuleRepo) GetFirstByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseModule, error) {
	all, _ := r.GetByCourseID(ctx, tx, courseID)
	if len(all) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return all[0], nil
}

func (r *fakeCourseModuleRepo) GetOrCreateByPosition(_ context.Context, _ *gorm.DB, row *types.CourseModule) (*types.CourseModule, bool, error) {
	for _, m := range r.s.modules {
		if m.CourseID == row.CourseID && m.Position == row.Position {
			return m, false, nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.modules[row.ID] = row
	return row, true, nil
}

func (r *fakeCourseModuleRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	m, ok := r.s.modules[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "duration":
			m.Duration = asInt(v)
		default:
			panic("fakeCourseModuleRepo: unhandled field " + k)
		}
	}
	return nil
}

// --- LessonRepo ---

type fakeLessonRepo struct{ s *store }

func (r *fakeLessonRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Lesson) ([]*types.Lesson, error) {
	for _, l := range rows {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.UpdatedAt = time.Now().UTC()
		r.s.lessons[l.ID] = l
	}
	return rows, nil
}

func (r *fakeLessonRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	for _, id := range ids {
		if l, ok := r.s.lessons[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLessonRepo) GetByModuleID(_ context.Context, _ *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	for _, l := range r.s.lessons {
		if l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeLessonRepo) GetByModuleAndVideoID(_ context.Context, _ *gorm.DB, moduleID uuid.UUID, videoID string) (*types.Lesson, error) {
	for _, l := range r.s.lessons {
		if l.ModuleID == moduleID && l.YoutubeVideoID == videoID {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLessonRepo) publishedByCourse(courseID uuid.UUID) []*types.Lesson {
	var out []*types.Lesson
	for _, l := range r.s.lessons {
		m, ok := r.s.modules[l.ModuleID]
		if ok && m.CourseID == courseID && m.IsPublished && l.IsPublished {
			out = append(out, l)
		}
	}
	return out
}

func (r *fakeLessonRepo) CountPublishedByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
	return int64(len(r.publishedByCourse(courseID))), nil
}

func (r *fakeLessonRepo) SumPublishedDurationByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
	var total int64
	for _, l := range r.publishedByCourse(courseID) {
		total += int64(l.Duration)
	}
	return total, nil
}

func (r *fakeLessonRepo) SumPublishedDurationByModuleID(_ context.Context, _ *gorm.DB, moduleID uuid.UUID) (int64, error) {
	var total int64
	for _, l := range r.s.lessons {
		if l.ModuleID == moduleID && l.IsPublished {
			total += int64(l.Duration)
		}
	}
	return total, nil
}

func (r *fakeLessonRepo) NextPosition(_ context.Context, _ *gorm.DB, moduleID uuid.UUID) (int, error) {
	max := 0
	for _, l := range r.s.lessons {
		if l.ModuleID == moduleID && l.Position > max {
			max = l.Position
		}
	}
	return max + 1, nil
}

func (r *fakeLessonRepo) GetStaleVideoLessons(_ context.Context, _ *gorm.DB, updatedBefore time.Time, limit int) ([]*types.Lesson, error) {
	var out []*types.Lesson
	for _, l := range r.s.lessons {
		if l.LessonType == types.LessonTypeVideo && l.IsPublished && l.YoutubeVideoID != "" && l.UpdatedAt.Before(updatedBefore) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLessonRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	l, ok := r.s.lessons[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "title":
			l.Title = v.(string)
		case "video_url":
			l.VideoURL = v.(string)
		case "duration":
			l.Duration = asInt(v)
		case "youtube_title":
			l.YoutubeTitle = v.(string)
		case "youtube_description":
			l.YoutubeDescription = v.(string)
		case "youtube_thumbnail_url":
			l.YoutubeThumbnailURL = v.(string)
		case "youtube_duration_seconds":
			l.YoutubeDurationSeconds = asInt(v)
		case "youtube_view_count":
			l.YoutubeViewCount = int64(asInt(v))
		case "youtube_published_at":
			if v == nil {
				l.YoutubePublishedAt = nil
			} else if t, ok := v.(*time.Time); ok {
				l.YoutubePublishedAt = t
			} else {
				l.YoutubePublishedAt = asTimePtr(v)
			}
		default:
			panic("fakeLessonRepo: unhandled field " + k)
		}
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// --- EnrollmentRepo ---

type fakeEnrollmentRepo struct{ s *store }

func (r *fakeEnrollmentRepo) GetOrCreate(_ context.Context, _ *gorm.DB, row *types.Enrollment) (*types.Enrollment, bool, error) {
	for _, e := range r.s.enrollments {
		if e.UserID == row.UserID && e.CourseID == row.CourseID {
			return e, false, nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.enrollments[row.ID] = row
	return row, true, nil
}

func (r *fakeEnrollmentRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	for _, id := range ids {
		if e, ok := r.s.enrollments[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	for _, e := range r.s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) GetActiveByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	for _, e := range r.s.enrollments {
		if e.UserID == userID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) CountActiveByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range r.s.enrollments {
		if e.CourseID == courseID && e.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeEnrollmentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "progress_percentage":
			e.ProgressPercentage = v.(float64)
		case "is_completed":
			e.IsCompleted = v.(bool)
		case "completed_at":
			e.CompletedAt = asTimePtr(v)
		case "is_active":
			e.IsActive = v.(bool)
		case "is_favorite":
			e.IsFavorite = v.(bool)
		case "total_time_spent":
			e.TotalTimeSpent = asInt(v)
		case "started_at":
			e.StartedAt = asTimePtr(v)
		case "last_accessed":
			e.LastAccessed = v.(time.Time)
		default:
			panic("fakeEnrollmentRepo: unhandled field " + k)
		}
	}
	return nil
}

// --- LessonProgressRepo ---

type fakeLessonProgressRepo struct{ s *store }

func (r *fakeLessonProgressRepo) GetOrCreate(_ context.Context, _ *gorm.DB, row *types.LessonProgress) (*types.LessonProgress, bool, error) {
	for _, p := range r.s.progress {
		if p.EnrollmentID == row.EnrollmentID && p.LessonID == row.LessonID {
			return p, false, nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.progress[row.ID] = row
	return row, true, nil
}

func (r *fakeLessonProgressRepo) GetByEnrollmentAndLesson(_ context.Context, _ *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	for _, p := range r.s.progress {
		if p.EnrollmentID == enrollmentID && p.LessonID == lessonID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLessonProgressRepo) GetByEnrollmentID(_ context.Context, _ *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	var out []*types.LessonProgress
	for _, p := range r.s.progress {
		if p.EnrollmentID == enrollmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeLessonProgressRepo) CountCompletedByEnrollmentID(_ context.Context, _ *gorm.DB, enrollmentID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.s.progress {
		if p.EnrollmentID == enrollmentID && p.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeLessonProgressRepo) CountCompletedByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.s.progress {
		e, ok := r.s.enrollments[p.EnrollmentID]
		if ok && e.UserID == userID && p.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeLessonProgressRepo) GetCompletionDatesByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]time.Time, error) {
	seen := map[time.Time]bool{}
	for _, p := range r.s.progress {
		e, ok := r.s.enrollments[p.EnrollmentID]
		if !ok || e.UserID != userID || !p.IsCompleted || p.CompletedAt == nil {
			continue
		}
		t := p.CompletedAt.UTC()
		seen[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)] = true
	}
	var out []time.Time
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (r *fakeLessonProgressRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	p, ok := r.s.progress[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "is_completed":
			p.IsCompleted = v.(bool)
		case "completed_at":
			p.CompletedAt = asTimePtr(v)
		case "started_at":
			p.StartedAt = asTimePtr(v)
		case "last_accessed":
			p.LastAccessed = v.(time.Time)
		case "video_position":
			p.VideoPosition = asInt(v)
		case "time_spent":
			p.TimeSpent = asInt(v)
		case "notes":
			p.Notes = v.(string)
		default:
			panic("fakeLessonProgressRepo: unhandled field " + k)
		}
	}
	return nil
}

// --- QuizAttemptRepo ---

type fakeQuizAttemptRepo struct{ s *store }

func (r *fakeQuizAttemptRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.QuizAttempt) ([]*types.QuizAttempt, error) {
	for _, a := range rows {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		r.s.attempts = append(r.s.attempts, a)
	}
	return rows, nil
}

func (r *fakeQuizAttemptRepo) GetByEnrollmentID(_ context.Context, _ *gorm.DB, enrollmentID uuid.UUID) ([]*types.QuizAttempt, error) {
	var out []*types.QuizAttempt
	for _, a := range r.s.attempts {
		if a.EnrollmentID == enrollmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeQuizAttemptRepo) CountPassedByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	for _, a := range r.s.attempts {
		e, ok := r.s.enrollments[a.EnrollmentID]
		if ok && e.UserID == userID && a.IsPassed {
			count++
		}
	}
	return count, nil
}

func (r *fakeQuizAttemptRepo) AverageScoreByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (float64, error) {
	var sum float64
	var n int
	for _, a := range r.s.attempts {
		e, ok := r.s.enrollments[a.EnrollmentID]
		if ok && e.UserID == userID {
			sum += a.Score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// --- ReviewRepo ---

type fakeReviewRepo struct{ s *store }

func (r *fakeReviewRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.Review) error {
	for _, existing := range r.s.reviews {
		if existing.UserID == row.UserID && existing.CourseID == row.CourseID {
			existing.Rating = row.Rating
			existing.Comment = row.Comment
			existing.ContentQuality = row.ContentQuality
			existing.InstructorQuality = row.InstructorQuality
			existing.ValueForMoney = row.ValueForMoney
			*row = *existing
			return nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.reviews[row.ID] = row
	return nil
}

func (r *fakeReviewRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.Review, error) {
	for _, rev := range r.s.reviews {
		if rev.UserID == userID && rev.CourseID == courseID {
			return rev, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) GetByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.Review, error) {
	var out []*types.Review
	for _, rev := range r.s.reviews {
		if rev.CourseID == courseID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) AverageRatingByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (float64, error) {
	all, _ := r.GetByCourseID(ctx, tx, courseID)
	if len(all) == 0 {
		return 0, nil
	}
	var sum float64
	for _, rev := range all {
		sum += float64(rev.Rating)
	}
	return sum / float64(len(all)), nil
}

func (r *fakeReviewRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	all, _ := r.GetByCourseID(ctx, tx, courseID)
	return int64(len(all)), nil
}

// --- CertificateRepo ---

type fakeCertificateRepo struct{ s *store }

func (r *fakeCertificateRepo) GetOrCreate(_ context.Context, _ *gorm.DB, row *types.Certificate) (*types.Certificate, bool, error) {
	for _, c := range r.s.certificates {
		if c.UserID == row.UserID && c.CourseID == row.CourseID {
			return c, false, nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.certificates[row.ID] = row
	return row, true, nil
}

func (r *fakeCertificateRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error) {
	for _, c := range r.s.certificates {
		if c.UserID == userID && c.CourseID == courseID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) GetByCertificateID(_ context.Context, _ *gorm.DB, certificateID string) (*types.Certificate, error) {
	for _, c := range r.s.certificates {
		if c.CertificateID == certificateID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) GetByVerificationCode(_ context.Context, _ *gorm.DB, code string) (*types.Certificate, error) {
	for _, c := range r.s.certificates {
		if c.VerificationCode == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCertificateRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.Certificate, error) {
	var out []*types.Certificate
	for _, c := range r.s.certificates {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCertificateRepo) CertificateIDExists(_ context.Context, _ *gorm.DB, certificateID string) (bool, error) {
	for _, c := range r.s.certificates {
		if c.CertificateID == certificateID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCertificateRepo) IncrementDownloadCount(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	if c, ok := r.s.certificates[id]; ok {
		c.DownloadCount++
	}
	return nil
}

func (r *fakeCertificateRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	c, ok := r.s.certificates[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "is_valid":
			c.IsValid = v.(bool)
		default:
			panic("fakeCertificateRepo: unhandled field " + k)
		}
	}
	return nil
}

// --- UserStatisticsRepo ---

type fakeUserStatisticsRepo struct{ s *store }

func (r *fakeUserStatisticsRepo) GetOrCreateByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error) {
	for _, st := range r.s.stats {
		if st.UserID == userID {
			return st, nil
		}
	}
	st := &types.UserStatistics{ID: uuid.New(), UserID: userID}
	r.s.stats[st.ID] = st
	return st, nil
}

func (r *fakeUserStatisticsRepo) Save(_ context.Context, _ *gorm.DB, row *types.UserStatistics) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.stats[row.ID] = row
	return nil
}

// --- event bus ---

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) ofType(eventType string) []events.Event {
	var out []events.Event
	for _, e := range b.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- video source ---

type fakeVideoSource struct {
	playlists      map[string]*youtube.Playlist
	playlistVideos map[string][]*youtube.Video
	channelVideos  map[string][]*youtube.Video
	failPlaylists  map[string]error
}

func newFakeVideoSource() *fakeVideoSource {
	return &fakeVideoSource{
		playlists:      map[string]*youtube.Playlist{},
		playlistVideos: map[string][]*youtube.Video{},
		channelVideos:  map[string][]*youtube.Video{},
		failPlaylists:  map[string]error{},
	}
}

func (f *fakeVideoSource) GetPlaylistDetails(_ context.Context, playlistID string) (*youtube.Playlist, error) {
	if p, ok := f.playlists[playlistID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("playlist %s not found", playlistID)
}

func (f *fakeVideoSource) GetPlaylistVideos(_ context.Context, playlistID string, maxVideos int) ([]*youtube.Video, error) {
	if err, ok := f.failPlaylists[playlistID]; ok {
		return nil, err
	}
	videos, ok := f.playlistVideos[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	if maxVideos > 0 && len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}
	return videos, nil
}

func (f *fakeVideoSource) GetChannelVideos(_ context.Context, channelID string, maxVideos int) ([]*youtube.Video, error) {
	videos, ok := f.channelVideos[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	if maxVideos > 0 && len(videos) > maxVideos {
		videos = videos[:maxVideos]
	}
	return videos, nil
}

func (f *fakeVideoSource) GetVideosDetails(_ context.Context, videoIDs []string) ([]*youtube.Video, error) {
	index := map[string]*youtube.Video{}
	for _, vs := range f.playlistVideos {
		for _, v := range vs {
			index[v.ID] = v
		}
	}
	for _, vs := range f.channelVideos {
		for _, v := range vs {
			index[v.ID] = v
		}
	}
	var out []*youtube.Video
	for _, id := range videoIDs {
		if v, ok := index[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- wiring ---

type testEnv struct {
	s           *store
	bus         *fakeBus
	source      *fakeVideoSource
	catalog     CatalogService
	certificate CertificateService
	progress    ProgressService
	quiz        QuizService
	enrollment  EnrollmentService
	statistics  StatisticsService
	sync        SyncService
	tx          *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	s := newStore()
	bus := &fakeBus{}
	source := newFakeVideoSource()

	users := &fakeUserRepo{s: s}
	courses := &fakeCourseRepo{s: s}
	modules := &fakeCourseModuleRepo{s: s}
	lessons := &fakeLessonRepo{s: s}
	enrollments := &fakeEnrollmentRepo{s: s}
	progress := &fakeLessonProgressRepo{s: s}
	attempts := &fakeQuizAttemptRepo{s: s}
	reviews := &fakeReviewRepo{s: s}
	certificates := &fakeCertificateRepo{s: s}
	stats := &fakeUserStatisticsRepo{s: s}

	catalog := NewCatalogService(nil, log, courses, modules, lessons, reviews, enrollments)
	certificate := NewCertificateService(nil, log, certificates, users, courses, attempts, bus)
	prog := NewProgressService(nil, log, enrollments, lessons, modules, progress, certificate, bus)
	quiz := NewQuizService(nil, log, enrollments, lessons, modules, attempts, prog)
	enrollment := NewEnrollmentService(nil, log, enrollments, courses, reviews, catalog)
	statistics := NewStatisticsService(nil, log, stats, enrollments, progress, attempts)
	syncSvc := NewSyncService(nil, log, courses, modules, lessons, catalog, source, bus, time.Hour)

	return &testEnv{
		s:           s,
		bus:         bus,
		source:      source,
		catalog:     catalog,
		certificate: certificate,
		progress:    prog,
		quiz:        quiz,
		enrollment:  enrollment,
		statistics:  statistics,
		sync:        syncSvc,
		// The fakes never touch gorm; a bare handle satisfies the tx
		// plumbing without opening a connection.
		tx: &gorm.DB{},
	}
}

// seedCourseWithLessons builds one published course with a single module and
// n published video lessons, plus an enrolled user.
func seedCourseWithLessons(s *store, n int) (*types.User, *types.Course, *types.CourseModule, []*types.Lesson, *types.Enrollment) {
	instructor := s.addUser("instructor@wim.dev")
	student := s.addUser("student@wim.dev")
	course := s.addCourse(instructor.ID, "go-basics")
	module := s.addModule(course.ID, 1)
	lessons := make([]*types.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		lessons = append(lessons, s.addLesson(module.ID, i, types.LessonTypeVideo))
	}
	enrollment := s.addEnrollment(student.ID, course.ID)
	return student, course, module, lessons, enrollment
}
