package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create inserts the exam header only; questions are added with AddQuestions
func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Omit("Questions").Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, translateError(err, "exam", id)
	}
	return &exam, nil
}

// GetByIDWithQuestions is cached outside transactions: the questions of an
// assembled exam never change.
func (e *ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	fetch := func() (interface{}, error) {
		var exam models.Exam
		err := db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("question_order ASC")
			}).
			Preload("Questions.Question", func(db *gorm.DB) *gorm.DB {
				return db.Unscoped()
			}).
			First(&exam, id).Error
		if err != nil {
			return nil, translateError(err, "exam", id)
		}
		return &exam, nil
	}

	if tx != nil {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.(*models.Exam), nil
	}

	var exam models.Exam
	cacheKey := fmt.Sprintf("%d:paper", id)
	if err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetDeletedByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).
		Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		First(&exam).Error; err != nil {
		return nil, translateError(err, "deleted exam", id)
	}
	return &exam, nil
}

// Update saves the header fields; assembled questions are immutable
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	err := db.WithContext(ctx).
		Model(exam).
		Select("title", "description", "duration", "is_active").
		Updates(exam).Error
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID)
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("exam", id)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)
	return nil
}

func (e *ExamPostgreSQL) Restore(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Unscoped().
		Model(&models.Exam{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return fmt.Errorf("failed to restore exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("deleted exam", id)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)
	return nil
}

// AddQuestions stamps examID on every entry and inserts them in one statement
func (e *ExamPostgreSQL) AddQuestions(ctx context.Context, tx *gorm.DB, examID uint, questions []*models.ExamQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	db := e.getDB(tx)
	for _, eq := range questions {
		eq.ExamID = examID
	}
	if err := db.WithContext(ctx).Omit("Question").Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to add questions to exam %d: %w", examID, err)
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Exam{})

	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	query = e.helpers.ApplySearch(query, filters.Search, "title", "code")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var exams []*models.Exam
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	return exams, total, nil
}

func (e *ExamPostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Exam{}).Where("code = ?", code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam code: %w", err)
	}
	return count > 0, nil
}
