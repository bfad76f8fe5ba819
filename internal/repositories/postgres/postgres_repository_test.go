package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

var baseTime = time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	// single sqlite writer
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.Question{}, &models.Exam{}, &models.ExamQuestion{}, &models.ExamSchedule{}, &models.Submission{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	return db
}

func createExam(t *testing.T, db *gorm.DB, code, subject string) *models.Exam {
	t.Helper()
	exam := &models.Exam{Code: code, Title: code, Subject: subject, Duration: 45, TotalQuestions: 1, IsActive: true, CreatedBy: "teacher-1"}
	if err := db.Create(exam).Error; err != nil {
		t.Fatalf("failed to create exam: %v", err)
	}
	return exam
}

func newSchedule(examID uint, title string, maxAttempts int) *models.ExamSchedule {
	return &models.ExamSchedule{
		ExamID:      examID,
		Title:       title,
		StartTime:   baseTime,
		EndTime:     baseTime.Add(time.Hour),
		MaxAttempts: maxAttempts,
		IsActive:    true,
		CreatedBy:   "teacher-1",
	}
}

// replace performs the version swap the schedule service runs in its transaction
func replace(t *testing.T, repo repositories.ScheduleRepository, old *models.ExamSchedule, title string) *models.ExamSchedule {
	t.Helper()
	next := *old
	next.ID = 0
	next.Title = title
	next.SupersededBy = nil
	next.DeletedAt = gorm.DeletedAt{}
	if err := repo.Insert(context.Background(), nil, &next); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := repo.Supersede(context.Background(), nil, old.ID, next.ID, baseTime); err != nil {
		t.Fatalf("Supersede() error = %v", err)
	}
	return &next
}

func TestScheduleRepository_Versions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSchedulePostgreSQL(db, cache.NewCacheManager(nil))
	exam := createExam(t, db, "PHY-1", "Physics")

	first := newSchedule(exam.ID, "Midterm", 1)
	if err := repo.Create(ctx, nil, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.LineageID != first.ID {
		t.Fatalf("LineageID = %d, want %d", first.LineageID, first.ID)
	}

	orphan := newSchedule(exam.ID, "Orphan", 1)
	if err := repo.Insert(ctx, nil, orphan); err == nil {
		t.Error("Insert() without lineage should fail")
	}

	second := replace(t, repo, first, "Midterm (room B)")

	if _, err := repo.GetByID(ctx, nil, first.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID(retired) error = %v, want not found", err)
	}
	retired, err := repo.GetByIDUnscoped(ctx, nil, first.ID)
	if err != nil {
		t.Fatalf("GetByIDUnscoped() error = %v", err)
	}
	if retired.SupersededBy == nil || *retired.SupersededBy != second.ID || !retired.DeletedAt.Valid {
		t.Errorf("retired version = %+v", retired)
	}

	current, err := repo.GetCurrent(ctx, nil, first.LineageID)
	if err != nil || current.ID != second.ID {
		t.Fatalf("GetCurrent() = %+v, %v; want id %d", current, err, second.ID)
	}

	// the retired row can only be replaced once
	if err := repo.Supersede(ctx, nil, first.ID, second.ID, baseTime); !repositories.IsNotFoundError(err) {
		t.Errorf("Supersede(retired) error = %v, want not found", err)
	}

	history, err := repo.History(ctx, nil, first.LineageID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[0].ID != first.ID || history[1].ID != second.ID {
		t.Errorf("History() = %+v", history)
	}
	if _, err := repo.History(ctx, nil, 999); !repositories.IsNotFoundError(err) {
		t.Errorf("History(unknown) error = %v, want not found", err)
	}

	if ok, err := repo.SetActive(ctx, nil, first.ID, false); err != nil || ok {
		t.Errorf("SetActive(retired) = %v, %v; want false", ok, err)
	}
	if ok, err := repo.SoftDelete(ctx, nil, second.ID); err != nil || !ok {
		t.Fatalf("SoftDelete() = %v, %v", ok, err)
	}
	deleted, err := repo.GetByIDUnscoped(ctx, nil, second.ID)
	if err != nil || deleted.SupersededBy != nil {
		t.Errorf("deleted version = %+v, %v; want no successor", deleted, err)
	}
	if _, err := repo.GetCurrent(ctx, nil, first.LineageID); !repositories.IsNotFoundError(err) {
		t.Errorf("GetCurrent(deleted lineage) error = %v, want not found", err)
	}
}

func TestScheduleRepository_List(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSchedulePostgreSQL(db, cache.NewCacheManager(nil))
	physics := createExam(t, db, "PHY-2", "Physics")
	chemistry := createExam(t, db, "CHE-1", "Chemistry")

	for _, s := range []*models.ExamSchedule{
		newSchedule(physics.ID, "Physics MIDTERM", 1),
		newSchedule(physics.ID, "100% review", 1),
		newSchedule(chemistry.ID, "Chemistry midterm", 1),
	} {
		if err := repo.Create(ctx, nil, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	old := newSchedule(physics.ID, "Old midterm", 1)
	if err := repo.Create(ctx, nil, old); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	replace(t, repo, old, "Replaced session")

	subject := "Physics"
	tests := []struct {
		name    string
		filters repositories.ScheduleFilters
		want    int64
	}{
		{"all current versions", repositories.ScheduleFilters{}, 4},
		{"search ignores case", repositories.ScheduleFilters{Search: "midterm"}, 2},
		{"percent is literal", repositories.ScheduleFilters{Search: "%"}, 1},
		{"subject via exam", repositories.ScheduleFilters{Subject: &subject}, 3},
		{"exam id", repositories.ScheduleFilters{ExamID: &chemistry.ID}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedules, total, err := repo.List(ctx, nil, tt.filters)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want || int64(len(schedules)) != tt.want {
				t.Errorf("List() total = %d, rows = %d, want %d", total, len(schedules), tt.want)
			}
		})
	}
}

func TestSubmissionRepository_CreateWithinLimit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schedules := NewSchedulePostgreSQL(db, cache.NewCacheManager(nil))
	submissions := NewSubmissionPostgreSQL(db, cache.NewCacheManager(nil))
	exam := createExam(t, db, "BIO-1", "Biology")

	first := newSchedule(exam.ID, "Quiz", 2)
	if err := schedules.Create(ctx, nil, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	start := func(studentID string, guard repositories.AttemptGuard) (*models.Submission, *models.ExamSchedule, error) {
		submission := &models.Submission{StudentID: studentID, Answers: models.EmptyAnswers, Status: models.SubmissionInProgress, StartedAt: baseTime}
		bound, err := submissions.CreateWithinLimit(ctx, nil, first.LineageID, submission, guard)
		return submission, bound, err
	}

	one, bound, err := start("student-1", nil)
	if err != nil {
		t.Fatalf("CreateWithinLimit() error = %v", err)
	}
	if one.AttemptNumber != 1 || one.ScheduleID != first.ID || bound.ID != first.ID {
		t.Errorf("first attempt = %+v bound to %d", one, bound.ID)
	}

	// attempts follow the lineage to its current version
	second := replace(t, schedules, first, "Quiz v2")
	two, bound, err := start("student-1", nil)
	if err != nil {
		t.Fatalf("CreateWithinLimit() error = %v", err)
	}
	if two.AttemptNumber != 2 || two.ScheduleID != second.ID || two.LineageID != first.LineageID || bound.ID != second.ID {
		t.Errorf("second attempt = %+v bound to %d", two, bound.ID)
	}

	if _, _, err := start("student-1", nil); !errors.Is(err, repositories.ErrAttemptLimitReached) {
		t.Errorf("third attempt error = %v, want ErrAttemptLimitReached", err)
	}
	if _, _, err := start("student-2", nil); err != nil {
		t.Errorf("other student error = %v", err)
	}

	refused := errors.New("window closed")
	var seenUsed int64 = -1
	_, _, err = start("student-3", func(schedule *models.ExamSchedule, used int64) error {
		seenUsed = used
		if schedule.ID != second.ID {
			t.Errorf("guard saw schedule %d, want %d", schedule.ID, second.ID)
		}
		return refused
	})
	if !errors.Is(err, refused) || seenUsed != 0 {
		t.Errorf("guarded attempt error = %v, used = %d", err, seenUsed)
	}

	count, err := submissions.CountByStudent(ctx, nil, "student-3", first.LineageID)
	if err != nil || count != 0 {
		t.Errorf("CountByStudent(student-3) = %d, %v; want 0", count, err)
	}

	missing := &models.Submission{StudentID: "student-1", Answers: models.EmptyAnswers, Status: models.SubmissionInProgress}
	if _, err := submissions.CreateWithinLimit(ctx, nil, 999, missing, nil); !repositories.IsNotFoundError(err) {
		t.Errorf("unknown lineage error = %v, want not found", err)
	}

	// attempts on the retired version still count for the exam
	if count, err := submissions.CountByExam(ctx, nil, exam.ID); err != nil || count != 3 {
		t.Errorf("CountByExam() = %d, %v; want 3", count, err)
	}
	unused := createExam(t, db, "BIO-2", "Biology")
	if count, err := submissions.CountByExam(ctx, nil, unused.ID); err != nil || count != 0 {
		t.Errorf("CountByExam(unused) = %d, %v; want 0", count, err)
	}
}

func TestSubmissionRepository_AttemptNumberUnique(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schedules := NewSchedulePostgreSQL(db, cache.NewCacheManager(nil))
	submissions := NewSubmissionPostgreSQL(db, cache.NewCacheManager(nil))
	exam := createExam(t, db, "CHEM-9", "Chemistry")

	schedule := newSchedule(exam.ID, "Lab quiz", 3)
	if err := schedules.Create(ctx, nil, schedule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	taken := &models.Submission{
		StudentID:     "student-1",
		ScheduleID:    schedule.ID,
		LineageID:     schedule.LineageID,
		AttemptNumber: 2,
		Answers:       models.EmptyAnswers,
		Status:        models.SubmissionInProgress,
		StartedAt:     baseTime,
	}
	if err := db.Omit("Schedule").Create(taken).Error; err != nil {
		t.Fatalf("failed to insert submission: %v", err)
	}

	next := &models.Submission{StudentID: "student-1", Answers: models.EmptyAnswers, Status: models.SubmissionInProgress, StartedAt: baseTime}
	_, err := submissions.CreateWithinLimit(ctx, nil, schedule.LineageID, next, nil)
	if !repositories.IsDuplicateKeyError(err) {
		t.Fatalf("CreateWithinLimit() error = %v, want duplicate key", err)
	}

	count, err := submissions.CountByStudent(ctx, nil, "student-1", schedule.LineageID)
	if err != nil || count != 1 {
		t.Errorf("CountByStudent() = %d, %v; want 1", count, err)
	}
}

func TestSubmissionRepository_Finalize(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schedules := NewSchedulePostgreSQL(db, cache.NewCacheManager(nil))
	submissions := NewSubmissionPostgreSQL(db, cache.NewCacheManager(nil))
	exam := createExam(t, db, "GEO-1", "Geography")

	schedule := newSchedule(exam.ID, "Final", 1)
	if err := schedules.Create(ctx, nil, schedule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	submission := &models.Submission{StudentID: "student-1", Answers: models.EmptyAnswers, Status: models.SubmissionInProgress, StartedAt: baseTime}
	if _, err := submissions.CreateWithinLimit(ctx, nil, schedule.LineageID, submission, nil); err != nil {
		t.Fatalf("CreateWithinLimit() error = %v", err)
	}

	score, maxScore := 3.0, 4.0
	submittedAt := baseTime.Add(30 * time.Minute)
	submission.Answers = `{"1":"A"}`
	submission.Status = models.SubmissionSubmitted
	submission.Score = &score
	submission.MaxScore = &maxScore
	submission.SubmittedAt = &submittedAt

	if ok, err := submissions.Finalize(ctx, nil, submission); err != nil || !ok {
		t.Fatalf("Finalize() = %v, %v", ok, err)
	}
	if ok, err := submissions.Finalize(ctx, nil, submission); err != nil || ok {
		t.Errorf("second Finalize() = %v, %v; want false", ok, err)
	}

	stored, err := submissions.GetByID(ctx, nil, submission.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != models.SubmissionSubmitted || stored.Score == nil || *stored.Score != 3 || stored.Answers != `{"1":"A"}` {
		t.Errorf("stored submission = %+v", stored)
	}

	status := models.SubmissionSubmitted
	list, total, err := submissions.List(ctx, nil, repositories.SubmissionFilters{LineageID: &schedule.LineageID, Status: &status})
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("List() = %d rows, total %d, err %v", len(list), total, err)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":  "plain",
		"50%":    `50\%`,
		"a_b":    `a\_b`,
		`back\`:  `back\\`,
		`%_\mix`: `\%\_\\mix`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
