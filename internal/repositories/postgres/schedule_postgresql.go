package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// SchedulePostgreSQL stores schedule versions. Reads through the default gorm
// scope only ever see the current version of a lineage.
type SchedulePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSchedulePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ScheduleRepository {
	return &SchedulePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (s *SchedulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create inserts the first version and points its lineage at itself
func (s *SchedulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, schedule *models.ExamSchedule) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Exam").Create(schedule).Error; err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		schedule.LineageID = schedule.ID
		if err := tx.Model(schedule).UpdateColumn("lineage_id", schedule.ID).Error; err != nil {
			return fmt.Errorf("failed to stamp schedule lineage: %w", err)
		}
		return nil
	})
}

func (s *SchedulePostgreSQL) Insert(ctx context.Context, tx *gorm.DB, schedule *models.ExamSchedule) error {
	if schedule.LineageID == 0 {
		return fmt.Errorf("schedule version must belong to a lineage")
	}
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Omit("Exam").Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to insert schedule version: %w", err)
	}
	return nil
}

func (s *SchedulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error) {
	db := s.getDB(tx)
	var schedule models.ExamSchedule
	if err := db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return nil, translateError(err, "schedule", id)
	}
	return &schedule, nil
}

func (s *SchedulePostgreSQL) GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error) {
	db := s.getDB(tx)
	var schedule models.ExamSchedule
	if err := db.WithContext(ctx).Unscoped().First(&schedule, id).Error; err != nil {
		return nil, translateError(err, "schedule version", id)
	}
	return &schedule, nil
}

func (s *SchedulePostgreSQL) GetCurrent(ctx context.Context, tx *gorm.DB, lineageID uint) (*models.ExamSchedule, error) {
	db := s.getDB(tx)
	var schedule models.ExamSchedule
	if err := db.WithContext(ctx).
		Where("lineage_id = ?", lineageID).
		Order("id DESC").
		First(&schedule).Error; err != nil {
		return nil, translateError(err, "schedule lineage", lineageID)
	}
	return &schedule, nil
}

func (s *SchedulePostgreSQL) GetWithExam(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error) {
	db := s.getDB(tx)
	var schedule models.ExamSchedule
	if err := db.WithContext(ctx).Preload("Exam").First(&schedule, id).Error; err != nil {
		return nil, translateError(err, "schedule", id)
	}
	return &schedule, nil
}

func (s *SchedulePostgreSQL) LockLineage(ctx context.Context, tx *gorm.DB, lineageID uint) error {
	return lockLineage(ctx, s.getDB(tx), lineageID)
}

// Supersede soft-deletes a version and records which version replaced it. The
// update is conditional on the row still being current.
func (s *SchedulePostgreSQL) Supersede(ctx context.Context, tx *gorm.DB, id uint, successorID uint, at time.Time) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Unscoped().
		Model(&models.ExamSchedule{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":    at,
			"superseded_by": successorID,
			"updated_at":    at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to supersede schedule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("schedule", id)
	}
	return nil
}

func (s *SchedulePostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) (bool, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.ExamSchedule{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update schedule status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *SchedulePostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := s.getDB(tx)
	var schedule models.ExamSchedule
	if err := db.WithContext(ctx).Select("id", "lineage_id").First(&schedule, id).Error; err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load schedule: %w", err)
	}

	result := db.WithContext(ctx).Delete(&models.ExamSchedule{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete schedule: %w", result.Error)
	}

	cache.InvalidateScheduleStats(ctx, s.cacheManager, schedule.LineageID)
	return result.RowsAffected > 0, nil
}

// ===== QUERY OPERATIONS =====

func (s *SchedulePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.ExamSchedule{})

	if filters.IsActive != nil {
		query = query.Where("exam_schedules.is_active = ?", *filters.IsActive)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_schedules.exam_id = ?", *filters.ExamID)
	}
	if filters.Subject != nil {
		query = query.Where("exam_schedules.exam_id IN (?)",
			db.Model(&models.Exam{}).Select("id").Where("subject = ?", *filters.Subject))
	}
	query = s.helpers.ApplySearch(query, filters.Search, "exam_schedules.title", "exam_schedules.description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	query = s.helpers.ApplyPagination(query.Order("exam_schedules.start_time DESC").Order("exam_schedules.id DESC"), filters.Limit, filters.Offset)

	var schedules []*models.ExamSchedule
	if err := query.Preload("Exam").Find(&schedules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, total, nil
}

// History lists every version of a lineage, oldest first
func (s *SchedulePostgreSQL) History(ctx context.Context, tx *gorm.DB, lineageID uint) ([]*models.ExamSchedule, error) {
	db := s.getDB(tx)
	var versions []*models.ExamSchedule
	if err := db.WithContext(ctx).
		Unscoped().
		Where("lineage_id = ?", lineageID).
		Order("id ASC").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to load schedule history: %w", err)
	}
	if len(versions) == 0 {
		return nil, repositories.NotFound("schedule lineage", lineageID)
	}
	return versions, nil
}

func (s *SchedulePostgreSQL) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := s.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamSchedule{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count schedules for exam: %w", err)
	}
	return count, nil
}
