package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ChoiceLabel names one of the four fixed answer slots of a question.
type ChoiceLabel string

const (
	ChoiceA ChoiceLabel = "A"
	ChoiceB ChoiceLabel = "B"
	ChoiceC ChoiceLabel = "C"
	ChoiceD ChoiceLabel = "D"
)

// ChoiceLabels lists the slots in their canonical order.
var ChoiceLabels = [4]ChoiceLabel{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// ParseChoiceLabel accepts "a", " B " and similar spellings.
func ParseChoiceLabel(s string) (ChoiceLabel, bool) {
	label := ChoiceLabel(strings.ToUpper(strings.TrimSpace(s)))
	return label, label.Valid()
}

func (l ChoiceLabel) Valid() bool {
	return l.Index() >= 0
}

// Index returns the zero-based position of the slot, or -1 for an unknown label.
func (l ChoiceLabel) Index() int {
	switch l {
	case ChoiceA:
		return 0
	case ChoiceB:
		return 1
	case ChoiceC:
		return 2
	case ChoiceD:
		return 3
	default:
		return -1
	}
}

type Question struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	Code       string      `json:"code" gorm:"size:50;index"`
	Subject    string      `json:"subject" gorm:"not null;size:100;index"`
	Content    string      `json:"content" gorm:"type:text;not null"`
	ContentImg *string     `json:"content_img" gorm:"size:500"`
	ChoiceA    string      `json:"choice_a" gorm:"type:text;not null"`
	ChoiceB    string      `json:"choice_b" gorm:"type:text;not null"`
	ChoiceC    string      `json:"choice_c" gorm:"type:text;not null"`
	ChoiceD    string      `json:"choice_d" gorm:"type:text;not null"`
	Answer     ChoiceLabel `json:"answer" gorm:"size:1;not null"`
	Mark       float64     `json:"mark"`
	Unit       *string     `json:"unit" gorm:"size:100"`
	// Mix allows the choices of this question to be shuffled on an exam.
	Mix bool `json:"mix"`

	// Authoring metadata
	Lecturer   *string `json:"lecturer" gorm:"size:255"`
	CreatedBy  string  `json:"created_by" gorm:"not null;index;size:255"`
	ImportedBy *string `json:"imported_by" gorm:"size:255"`
	EditedBy   *string `json:"edited_by" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// Choice returns the text stored in the given original slot.
func (q *Question) Choice(label ChoiceLabel) string {
	switch label {
	case ChoiceA:
		return q.ChoiceA
	case ChoiceB:
		return q.ChoiceB
	case ChoiceC:
		return q.ChoiceC
	case ChoiceD:
		return q.ChoiceD
	default:
		return ""
	}
}

// EffectiveMark is the point value awarded for a correct answer. Unset marks count as 1.
func (q *Question) EffectiveMark() float64 {
	if q.Mark <= 0 {
		return 1.0
	}
	return q.Mark
}
