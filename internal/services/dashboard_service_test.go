package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedQuestions(t, "Math", 4)
	env.seedQuestions(t, "Physics", 2)
	exam := env.assemble(t, "MATH-DASH", 4, false)
	schedule := env.schedule(t, exam.ID, 2)
	submissions := env.services.Submission()

	if _, err := submissions.RecordSubmission(ctx, "student-1", schedule.ID, answersJSON(t, answerKey(t, env, exam.ID))); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	title := "Retitled"
	current, err := env.services.Schedule().Update(ctx, schedule.ID, &SchedulePatch{Title: &title}, "teacher-1")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	late, err := submissions.StartAttempt(ctx, "student-2", current.ID)
	if err != nil {
		t.Fatalf("StartAttempt() error = %v", err)
	}
	if _, err := submissions.StartAttempt(ctx, "student-1", current.ID); err != nil {
		t.Fatalf("StartAttempt() error = %v", err)
	}
	env.advance(2 * time.Hour)
	if _, err := submissions.SubmitAnswers(ctx, late.ID, "student-2", nil); err != nil {
		t.Fatalf("SubmitAnswers() error = %v", err)
	}

	overview, err := env.services.Dashboard().Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.Totals.Questions != 6 || overview.Totals.Exams != 1 || overview.Totals.ActiveSchedules != 1 || overview.Totals.Submissions != 3 {
		t.Errorf("totals = %+v", overview.Totals)
	}
	if len(overview.Subjects) != 2 || overview.Subjects[0].Subject != "Math" || overview.Subjects[0].Count != 4 {
		t.Errorf("subjects = %+v", overview.Subjects)
	}

	// the retired version id reports on the whole lineage
	stats, err := env.services.Dashboard().ScheduleStats(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("ScheduleStats() error = %v", err)
	}
	if stats.LineageID != schedule.LineageID || stats.TotalAttempts != 3 || stats.Students != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Submitted != 2 || stats.InProgress != 1 || stats.LateSubmissions != 1 {
		t.Errorf("status counts = %+v", stats)
	}
	if stats.HighestScore != 4 || stats.LowestScore != 0 || stats.AverageScore != 2 {
		t.Errorf("scores = %+v", stats)
	}
	if stats.LastSubmissionAt == nil {
		t.Error("LastSubmissionAt should be set")
	}

	if _, err := env.services.Dashboard().ScheduleStats(ctx, 999); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("ScheduleStats(unknown) error = %v, want ErrScheduleNotFound", err)
	}
}
