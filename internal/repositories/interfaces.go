package repositories

import (
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Subject   *string `json:"subject"`
	CreatedBy *string `json:"created_by"`
	Search    string  `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "code", "subject"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type ExamFilters struct {
	Subject   *string `json:"subject"`
	IsActive  *bool   `json:"is_active"`
	CreatedBy *string `json:"created_by"`
	Search    string  `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// ScheduleFilters only ever match current (non-deleted) schedule versions.
type ScheduleFilters struct {
	Search   string  `json:"search"`
	IsActive *bool   `json:"is_active"`
	Subject  *string `json:"subject"`
	ExamID   *uint   `json:"exam_id"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

type SubmissionFilters struct {
	StudentID *string                  `json:"student_id"`
	LineageID *uint                    `json:"lineage_id"`
	Status    *models.SubmissionStatus `json:"status"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

// ===== CALLBACKS =====

// AttemptGuard runs inside the attempt transaction after the schedule lineage is
// locked. It receives the current schedule version and the attempts already used;
// a non-nil error aborts the insert.
type AttemptGuard func(schedule *models.ExamSchedule, attemptsUsed int64) error

// ===== SHARED STATISTICS STRUCTS =====

type ScheduleStats struct {
	LineageID        uint       `json:"lineage_id"`
	TotalAttempts    int64      `json:"total_attempts"`
	Students         int64      `json:"students"`
	Submitted        int64      `json:"submitted"`
	InProgress       int64      `json:"in_progress"`
	LateSubmissions  int64      `json:"late_submissions"`
	AverageScore     float64    `json:"average_score"`
	HighestScore     float64    `json:"highest_score"`
	LowestScore      float64    `json:"lowest_score"`
	LastSubmissionAt *time.Time `json:"last_submission_at"`
}

type Totals struct {
	Questions       int64 `json:"questions"`
	Exams           int64 `json:"exams"`
	ActiveSchedules int64 `json:"active_schedules"`
	Submissions     int64 `json:"submissions"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int64  `json:"count"`
}
