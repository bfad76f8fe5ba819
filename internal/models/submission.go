package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
)

// EmptyAnswers is the raw payload of an attempt that has not been answered yet.
const EmptyAnswers = "[]"

type Submission struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	StudentID     string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_submission_attempt"`
	ScheduleID    uint   `json:"schedule_id" gorm:"not null;index"`
	LineageID     uint   `json:"lineage_id" gorm:"not null;uniqueIndex:idx_submission_attempt"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null;uniqueIndex:idx_submission_attempt"`

	// Answers keeps the payload exactly as the client sent it.
	Answers   string           `json:"answers" gorm:"type:text;not null"`
	Status    SubmissionStatus `json:"status" gorm:"size:20;not null;index"`
	Score     *float64         `json:"score"`
	MaxScore  *float64         `json:"max_score"`
	Breakdown datatypes.JSON   `json:"breakdown,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	IsLate      bool       `json:"is_late"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Schedule *ExamSchedule `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// AnswerEntry is one validated answer: the displayed label a student picked for a question.
type AnswerEntry struct {
	QuestionID uint        `json:"question_id"`
	Label      ChoiceLabel `json:"selected_label"`
}

type QuestionOutcome string

const (
	OutcomeCorrect    QuestionOutcome = "correct"
	OutcomeWrong      QuestionOutcome = "wrong"
	OutcomeUnanswered QuestionOutcome = "unanswered"
)

// QuestionResult is the per-question line of a scored submission.
type QuestionResult struct {
	QuestionID    uint            `json:"question_id"`
	QuestionOrder int             `json:"question_order"`
	Selected      ChoiceLabel     `json:"selected,omitempty"`
	Original      ChoiceLabel     `json:"original,omitempty"`
	Outcome       QuestionOutcome `json:"outcome"`
	Mark          float64         `json:"mark"`
	Awarded       float64         `json:"awarded"`
}
