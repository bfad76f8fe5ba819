package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestWatermillPublisher_Publish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, pubSub := NewInMemoryEventPublisher("exam-service", logger)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "exam-service.submission.scored")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	event := NewEvent(SubmissionScored, SubmissionScoredData{
		SubmissionID: 7,
		StudentID:    "student-1",
		LineageID:    3,
		Score:        4,
		MaxScore:     5,
	})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()

		if msg.UUID != event.ID {
			t.Errorf("Expected message uuid %s, got %s", event.ID, msg.UUID)
		}
		if got := msg.Metadata.Get("event_type"); got != string(SubmissionScored) {
			t.Errorf("Expected event_type metadata %q, got %q", SubmissionScored, got)
		}

		var decoded struct {
			Type   EventType            `json:"type"`
			Source string               `json:"source"`
			Data   SubmissionScoredData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if decoded.Type != SubmissionScored || decoded.Source != "exam-service" {
			t.Errorf("Unexpected envelope: %+v", decoded)
		}
		if decoded.Data.SubmissionID != 7 || decoded.Data.Score != 4 {
			t.Errorf("Unexpected payload: %+v", decoded.Data)
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for message")
	}
}

func TestWatermillPublisher_Topic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "with prefix", prefix: "exams", want: "exams.answers.malformed"},
		{name: "without prefix", prefix: "", want: "answers.malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := NewWatermillPublisher(nil, tt.prefix, logger)
			if got := publisher.Topic(AnswersMalformed); got != tt.want {
				t.Errorf("Topic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(ExamAssembled, ExamAssembledData{ExamID: 1})

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
}
