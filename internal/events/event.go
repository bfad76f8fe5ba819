package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "exam-service"
	eventVersion = "1.0"
)

type EventType string

const (
	ExamAssembled       EventType = "exam.assembled"
	ScheduleCreated     EventType = "schedule.created"
	ScheduleVersioned   EventType = "schedule.versioned"
	ScheduleDeactivated EventType = "schedule.deactivated"
	ScheduleDeleted     EventType = "schedule.deleted"
	SubmissionStarted   EventType = "submission.started"
	SubmissionScored    EventType = "submission.scored"
	AnswersMalformed    EventType = "answers.malformed"
)

// Event is the envelope of everything the service publishes
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== PAYLOADS =====

type ExamAssembledData struct {
	ExamID         uint   `json:"exam_id"`
	Code           string `json:"code"`
	Subject        string `json:"subject"`
	TotalQuestions int    `json:"total_questions"`
	Shuffled       bool   `json:"shuffled"`
	CreatedBy      string `json:"created_by"`
}

type ScheduleData struct {
	ScheduleID uint   `json:"schedule_id"`
	LineageID  uint   `json:"lineage_id"`
	ExamID     uint   `json:"exam_id"`
	ActorID    string `json:"actor_id,omitempty"`
}

type ScheduleVersionedData struct {
	LineageID  uint     `json:"lineage_id"`
	PreviousID uint     `json:"previous_id"`
	CurrentID  uint     `json:"current_id"`
	Changed    []string `json:"changed"`
	ActorID    string   `json:"actor_id,omitempty"`
}

type SubmissionStartedData struct {
	SubmissionID  uint   `json:"submission_id"`
	StudentID     string `json:"student_id"`
	ScheduleID    uint   `json:"schedule_id"`
	LineageID     uint   `json:"lineage_id"`
	AttemptNumber int    `json:"attempt_number"`
}

type SubmissionScoredData struct {
	SubmissionID uint    `json:"submission_id"`
	StudentID    string  `json:"student_id"`
	LineageID    uint    `json:"lineage_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	IsLate       bool    `json:"is_late"`
}

type AnswersMalformedData struct {
	SubmissionID uint     `json:"submission_id"`
	StudentID    string   `json:"student_id"`
	Problems     []string `json:"problems"`
}
