package postgres

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, "subjects")
	return nil
}

// CreateBatch inserts imported questions in chunks
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, "subjects")
	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	fetch := func() (interface{}, error) {
		var question models.Question
		if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
			return nil, translateError(err, "question", id)
		}
		return &question, nil
	}

	var question models.Question
	if tx != nil {
		// never cache reads made inside a transaction
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.(*models.Question), nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	if err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}

	return &question, nil
}

func (q *QuestionPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&question, id).Error; err != nil {
		return nil, translateError(err, "question", id)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.ID)
	return nil
}

// Delete soft deletes a question. Exams that already use it keep their copy
// because exam papers load bank questions unscoped.
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("question", id)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, id)
	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves questions with filtering and pagination
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	query = q.helpers.ApplySearch(query, filters.Search, "content", "code")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// Candidates returns the sampling pool of a subject in a stable order so that a
// seeded sampler picks the same questions for the same bank.
func (q *QuestionPostgreSQL) Candidates(ctx context.Context, tx *gorm.DB, subject string) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidates for subject %s: %w", subject, err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) Subjects(ctx context.Context, tx *gorm.DB) ([]string, error) {
	db := q.getDB(tx)
	fetch := func() (interface{}, error) {
		var subjects []string
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("subject IS NOT NULL AND subject <> ''").
			Distinct("subject").
			Pluck("subject", &subjects).Error; err != nil {
			return nil, fmt.Errorf("failed to list subjects: %w", err)
		}
		sort.Strings(subjects)
		return subjects, nil
	}

	var subjects []string
	if tx != nil {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.([]string), nil
	}

	if err := q.cacheManager.Question.CacheOrExecute(ctx, "subjects", &subjects, cache.QuestionCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return subjects, nil
}

// ===== VALIDATION AND CHECKS =====

func (q *QuestionPostgreSQL) IsUsedInExams(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("question_id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check question usage: %w", err)
	}
	return count > 0, nil
}
