package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultMaxAttempts applies to schedules created without an explicit limit.
const DefaultMaxAttempts = 1

type WindowState string

const (
	WindowNotOpen WindowState = "not_open"
	WindowOpen    WindowState = "open"
	WindowClosed  WindowState = "closed"
)

// ExamSchedule is one version of a logical schedule. Every version of the same
// schedule shares LineageID, which is the ID of the first version. A version
// replaced by an update is soft-deleted and points at its successor through
// SupersededBy; a schedule removed by Delete is soft-deleted with no successor.
type ExamSchedule struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	LineageID    uint    `json:"lineage_id" gorm:"index"`
	SupersededBy *uint   `json:"superseded_by,omitempty" gorm:"index"`
	ExamID       uint    `json:"exam_id" gorm:"not null;index"`
	Title        string  `json:"title" gorm:"not null;size:200"`
	Description  *string `json:"description" gorm:"type:text"`

	StartTime   time.Time `json:"start_time" gorm:"not null"`
	EndTime     time.Time `json:"end_time" gorm:"not null"`
	MaxAttempts int       `json:"max_attempts" gorm:"not null"`
	IsActive    bool      `json:"is_active" gorm:"index"`
	CreatedBy   string    `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Exam *Exam `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
}

func (ExamSchedule) TableName() string {
	return "exam_schedules"
}

// AttemptLimit returns MaxAttempts, falling back to DefaultMaxAttempts when unset.
func (s *ExamSchedule) AttemptLimit() int {
	if s.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return s.MaxAttempts
}

// IsSuperseded reports whether an update replaced this version.
func (s *ExamSchedule) IsSuperseded() bool {
	return s.SupersededBy != nil
}

func (s *ExamSchedule) Window(now time.Time) WindowState {
	switch {
	case now.Before(s.StartTime):
		return WindowNotOpen
	case now.After(s.EndTime):
		return WindowClosed
	default:
		return WindowOpen
	}
}
