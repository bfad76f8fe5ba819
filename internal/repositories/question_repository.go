package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for question bank operations
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)

	// GetForUpdate reads a question with a row lock and bypasses the cache. Call
	// it inside a transaction.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)

	// Candidates returns every non-deleted question of a subject
	Candidates(ctx context.Context, tx *gorm.DB, subject string) ([]*models.Question, error)

	// Subjects returns the distinct non-empty subjects of non-deleted questions
	Subjects(ctx context.Context, tx *gorm.DB) ([]string, error)

	// Validation and checks
	IsUsedInExams(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
