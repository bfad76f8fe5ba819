package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository interface for attempts
type SubmissionRepository interface {
	// CreateWithinLimit is the atomic count-and-insert primitive: it locks the
	// schedule lineage, recounts the student's attempts, runs guard and inserts
	// the submission only when the count is below the current max_attempts.
	// It returns the schedule version the attempt was bound to.
	CreateWithinLimit(ctx context.Context, tx *gorm.DB, lineageID uint, submission *models.Submission, guard AttemptGuard) (*models.ExamSchedule, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error

	// Finalize stores final answers and score only while the attempt is still in
	// progress; false means another request finalized it first.
	Finalize(ctx context.Context, tx *gorm.DB, submission *models.Submission) (bool, error)

	// CountByStudent counts attempts across every version of a schedule
	CountByStudent(ctx context.Context, tx *gorm.DB, studentID string, lineageID uint) (int64, error)

	// CountByExam counts attempts whose bound schedule version, retired or
	// not, serves the exam
	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)

	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.Submission, int64, error)
}
