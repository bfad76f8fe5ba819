package models

import (
	"time"

	"gorm.io/gorm"
)

type Exam struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	Code           string  `json:"code" gorm:"not null;size:50;uniqueIndex:idx_exams_code_live,where:deleted_at IS NULL"`
	Title          string  `json:"title" gorm:"not null;size:200"`
	Description    *string `json:"description" gorm:"type:text"`
	Subject        string  `json:"subject" gorm:"not null;size:100;index"`
	Duration       int     `json:"duration"` // minutes
	TotalQuestions int     `json:"total_questions" gorm:"not null"`
	IsActive       bool    `json:"is_active"`
	CreatedBy      string  `json:"created_by" gorm:"not null;index;size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion places one bank question on an exam. ChoiceOrder is written once
// at assembly time and is what scoring replays.
type ExamQuestion struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	ExamID        uint        `json:"exam_id" gorm:"not null;uniqueIndex:idx_exam_question_order"`
	QuestionID    uint        `json:"question_id" gorm:"not null;index"`
	QuestionOrder int         `json:"question_order" gorm:"not null;uniqueIndex:idx_exam_question_order"`
	ChoiceOrder   ChoiceOrder `json:"choice_order" gorm:"size:7;not null"`
	CreatedAt     time.Time   `json:"created_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// TotalMarks sums the point values of all questions that are loaded.
func (e *Exam) TotalMarks() float64 {
	var total float64
	for _, eq := range e.Questions {
		if eq.Question != nil {
			total += eq.Question.EffectiveMark()
		}
	}
	return total
}
