package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/exam-service/internal/events"
)

func TestServiceEvents_Published(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedQuestions(t, "Math", 3)

	t.Run("ExamAssembled", func(t *testing.T) {
		exam := env.assemble(t, "MATH-EVT", 3, true)

		published := env.publisher.EventsOfType(events.ExamAssembled)
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.ID == "" {
			t.Error("Event ID should not be empty")
		}
		if event.Source != "exam-service" {
			t.Errorf("Expected source 'exam-service', got '%s'", event.Source)
		}
		if event.Version != "1.0" {
			t.Errorf("Expected version '1.0', got '%s'", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("Event timestamp should not be zero")
		}

		data, ok := event.Data.(events.ExamAssembledData)
		if !ok {
			t.Fatalf("Expected ExamAssembledData, got %T", event.Data)
		}
		if data.ExamID != exam.ID || data.Code != "MATH-EVT" || data.TotalQuestions != 3 || !data.Shuffled {
			t.Errorf("Unexpected payload %+v", data)
		}
	})

	t.Run("Schedule_And_Submission_Lifecycle", func(t *testing.T) {
		env.publisher.ClearEvents()

		exam := env.assemble(t, "MATH-EVT-2", 2, false)
		schedule := env.schedule(t, exam.ID, 1)
		submission, err := env.services.Submission().StartAttempt(ctx, "student-1", schedule.ID)
		if err != nil {
			t.Fatalf("StartAttempt() error = %v", err)
		}
		if _, err := env.services.Submission().SubmitAnswers(ctx, submission.ID, "student-1", []byte(`[{"question_id":"x"}]`)); err != nil {
			t.Fatalf("SubmitAnswers() error = %v", err)
		}
		if _, err := env.services.Schedule().Deactivate(ctx, schedule.ID, "teacher-1"); err != nil {
			t.Fatalf("Deactivate() error = %v", err)
		}

		var types []events.EventType
		for _, event := range env.publisher.GetPublishedEvents() {
			types = append(types, event.Type)
		}
		want := []events.EventType{
			events.ExamAssembled,
			events.ScheduleCreated,
			events.SubmissionStarted,
			events.AnswersMalformed,
			events.SubmissionScored,
			events.ScheduleDeactivated,
		}
		if len(types) != len(want) {
			t.Fatalf("Expected events %v, got %v", want, types)
		}
		for i := range want {
			if types[i] != want[i] {
				t.Errorf("Event %d: expected %s, got %s", i, want[i], types[i])
			}
		}

		started := env.publisher.EventsOfType(events.SubmissionStarted)[0].Data.(events.SubmissionStartedData)
		if started.SubmissionID != submission.ID || started.AttemptNumber != 1 || started.LineageID != schedule.LineageID {
			t.Errorf("Unexpected payload %+v", started)
		}
	})

	t.Run("Publish_Failure_Does_Not_Fail_Operation", func(t *testing.T) {
		env.publisher.ClearEvents()
		env.publisher.Err = errors.New("broker unavailable")
		defer func() { env.publisher.Err = nil }()

		exam := env.assemble(t, "MATH-EVT-3", 1, false)
		if exam.ID == 0 {
			t.Fatal("exam should be stored even when publishing fails")
		}
		if got := len(env.publisher.GetPublishedEvents()); got != 0 {
			t.Errorf("Expected no recorded events, got %d", got)
		}
	})
}

func BenchmarkPublishEvent(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockPublisher := events.NewMockEventPublisher(logger)
	ctx := context.Background()

	data := events.SubmissionScoredData{SubmissionID: 1, StudentID: "student-1", Score: 4, MaxScore: 5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		publishEvent(ctx, mockPublisher, logger, events.SubmissionScored, data)
		if i%1000 == 0 {
			mockPublisher.ClearEvents()
		}
	}
}
