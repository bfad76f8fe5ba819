package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type GenerateExamRequest = validator.ExamGenerateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type CreateScheduleRequest = validator.ScheduleCreateRequest
type SchedulePatch = validator.SchedulePatch

type DashboardOverview struct {
	Totals   *repositories.Totals        `json:"totals"`
	Subjects []repositories.SubjectCount `json:"subjects"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	// Update edits in place, or replaces the question with a new version when
	// an exam already uses it
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, editorID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)

	// Bank queries used by assembly
	Candidates(ctx context.Context, subject string) ([]*models.Question, error)
	Subjects(ctx context.Context) ([]string, error)

	// Bulk import from an .xlsx workbook
	Import(ctx context.Context, r io.Reader, importerID string) (*models.QuestionImportResult, error)
}

type ExamService interface {
	// Assemble samples questions of a subject and persists the exam atomically
	Assemble(ctx context.Context, req *GenerateExamRequest, creatorID string) (*models.Exam, error)
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*models.Exam, error)
	Delete(ctx context.Context, id uint, userID string) error
	Restore(ctx context.Context, id uint, userID string) (*models.Exam, error)
}

type ScheduleService interface {
	Create(ctx context.Context, req *CreateScheduleRequest, creatorID string) (*models.ExamSchedule, error)
	// Update appends a new version and retires the current one
	Update(ctx context.Context, id uint, patch *SchedulePatch, actorID string) (*models.ExamSchedule, error)
	Deactivate(ctx context.Context, id uint, actorID string) (bool, error)
	Delete(ctx context.Context, id uint, actorID string) (bool, error)

	// Find returns the schedule only while it is the current version
	Find(ctx context.Context, id uint) (*models.ExamSchedule, error)
	// GetVersion returns any version, retired or not
	GetVersion(ctx context.Context, id uint) (*models.ExamSchedule, error)
	// Resolve follows superseded_by to the current version of the lineage
	Resolve(ctx context.Context, id uint) (*models.ExamSchedule, error)

	List(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error)
	Available(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error)
	History(ctx context.Context, id uint) ([]*models.ExamSchedule, error)

	// GetPaper renders the exam of a schedule for students, without answer keys
	GetPaper(ctx context.Context, id uint) (*models.ExamPaper, error)
}

type SubmissionService interface {
	// Attempt gate
	AuthorizeAttempt(ctx context.Context, studentID string, scheduleID uint) (*models.AttemptDecision, error)
	StartAttempt(ctx context.Context, studentID string, scheduleID uint) (*models.Submission, error)

	// Answers and scoring
	SubmitAnswers(ctx context.Context, submissionID uint, studentID string, answers json.RawMessage) (*models.ScoreResponse, error)
	RecordSubmission(ctx context.Context, studentID string, scheduleID uint, answers json.RawMessage) (*models.Submission, error)
	ScoreSubmission(ctx context.Context, submissionID uint) (*models.ScoreResponse, error)

	// Queries
	Get(ctx context.Context, id uint, userID string) (*models.Submission, error)
	ListMine(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
	ListBySchedule(ctx context.Context, scheduleID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
	ExamData(ctx context.Context, submissionID uint, userID string) (*models.ExamPaper, error)

	// ExportResults writes an .xlsx report of every submission of a schedule
	ExportResults(ctx context.Context, scheduleID uint, w io.Writer) error
}

type DashboardService interface {
	Overview(ctx context.Context) (*DashboardOverview, error)
	ScheduleStats(ctx context.Context, scheduleID uint) (*repositories.ScheduleStats, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Question() QuestionService
	Exam() ExamService
	Schedule() ScheduleService
	Submission() SubmissionService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
