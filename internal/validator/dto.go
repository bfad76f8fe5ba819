package validator

import (
	"encoding/json"
	"time"
)

// QuestionCreateRequest represents the request structure for adding a bank question
type QuestionCreateRequest struct {
	Code       string  `json:"code" validate:"omitempty,max=50"`
	Subject    string  `json:"subject" validate:"required,subject"`
	Content    string  `json:"content" validate:"required"`
	ContentImg *string `json:"content_img" validate:"omitempty,url"`
	ChoiceA    string  `json:"choice_a" validate:"required"`
	ChoiceB    string  `json:"choice_b" validate:"required"`
	ChoiceC    string  `json:"choice_c" validate:"required"`
	ChoiceD    string  `json:"choice_d" validate:"required"`
	Answer     string  `json:"answer" validate:"required,choice_label"`
	Mark       float64 `json:"mark" validate:"omitempty,gt=0,max=100"`
	Unit       *string `json:"unit" validate:"omitempty,max=100"`
	Mix        *bool   `json:"mix"`
	Lecturer   *string `json:"lecturer" validate:"omitempty,max=255"`
}

// QuestionUpdateRequest represents the request structure for editing a bank question
type QuestionUpdateRequest struct {
	Subject    *string  `json:"subject" validate:"omitempty,subject"`
	Content    *string  `json:"content" validate:"omitempty,min=1"`
	ContentImg *string  `json:"content_img" validate:"omitempty,url"`
	ChoiceA    *string  `json:"choice_a" validate:"omitempty,min=1"`
	ChoiceB    *string  `json:"choice_b" validate:"omitempty,min=1"`
	ChoiceC    *string  `json:"choice_c" validate:"omitempty,min=1"`
	ChoiceD    *string  `json:"choice_d" validate:"omitempty,min=1"`
	Answer     *string  `json:"answer" validate:"omitempty,choice_label"`
	Mark       *float64 `json:"mark" validate:"omitempty,gt=0,max=100"`
	Unit       *string  `json:"unit" validate:"omitempty,max=100"`
	Mix        *bool    `json:"mix"`
	Lecturer   *string  `json:"lecturer" validate:"omitempty,max=255"`
}

// ExamGenerateRequest represents the request structure for assembling an exam
type ExamGenerateRequest struct {
	Code           string  `json:"code" validate:"required,exam_code"`
	Title          string  `json:"title" validate:"required,min=1,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=1000"`
	Subject        string  `json:"subject" validate:"required,subject"`
	Duration       int     `json:"duration" validate:"required,min=1,max=600"`
	TotalQuestions int     `json:"total_questions" validate:"required,min=1,max=500"`
	ShuffleChoices bool    `json:"shuffle_choices"`
}

type ExamUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Duration    *int    `json:"duration" validate:"omitempty,min=1,max=600"`
	IsActive    *bool   `json:"is_active"`
}

// ScheduleCreateRequest represents the request structure for scheduling an exam
type ScheduleCreateRequest struct {
	ExamID      uint      `json:"exam_id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	MaxAttempts int       `json:"max_attempts" validate:"omitempty,min=1,max=20"`
	IsActive    *bool     `json:"is_active"`
}

// SchedulePatch carries only the fields a caller wants to change
type SchedulePatch struct {
	ExamID      *uint      `json:"exam_id"`
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	MaxAttempts *int       `json:"max_attempts" validate:"omitempty,min=1,max=20"`
	IsActive    *bool      `json:"is_active"`
}

// Empty reports whether the patch changes nothing
func (p SchedulePatch) Empty() bool {
	return p.ExamID == nil && p.Title == nil && p.Description == nil && p.StartTime == nil &&
		p.EndTime == nil && p.MaxAttempts == nil && p.IsActive == nil
}

type SubmissionStartRequest struct {
	ScheduleID uint `json:"exam_schedule_id" validate:"required"`
}

// SubmissionRequest records a full submission in one call
type SubmissionRequest struct {
	ScheduleID uint            `json:"exam_schedule_id" validate:"required"`
	Answers    json.RawMessage `json:"answers"`
}

type SubmissionAnswersRequest struct {
	Answers json.RawMessage `json:"answers"`
}
