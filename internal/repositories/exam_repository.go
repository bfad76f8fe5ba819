package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// ExamRepository interface for exams and their assembled questions
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	Restore(ctx context.Context, tx *gorm.DB, id uint) error

	// GetByIDWithQuestions loads the ordered exam questions together with their
	// bank questions, including questions deleted from the bank afterwards.
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)

	// GetDeletedByID finds a soft-deleted exam
	GetDeletedByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)

	// AddQuestions inserts the assembled questions of an exam
	AddQuestions(ctx context.Context, tx *gorm.DB, examID uint, questions []*models.ExamQuestion) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	// ExistsByCode checks the code among non-deleted exams
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error)
}
