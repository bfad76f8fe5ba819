package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"gorm.io/gorm"
)

// ScheduleRepository interface for versioned exam schedules
type ScheduleRepository interface {
	// Create inserts a first version and stamps its lineage
	Create(ctx context.Context, tx *gorm.DB, schedule *models.ExamSchedule) error

	// Insert stores a follow-up version of an existing lineage
	Insert(ctx context.Context, tx *gorm.DB, schedule *models.ExamSchedule) error

	// GetByID returns the row only while it is the current version
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error)

	// GetByIDUnscoped returns any version, deleted or not
	GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error)

	// GetCurrent returns the non-deleted version of a lineage
	GetCurrent(ctx context.Context, tx *gorm.DB, lineageID uint) (*models.ExamSchedule, error)

	// GetWithExam returns the current version with its exam preloaded
	GetWithExam(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSchedule, error)

	// LockLineage serializes writers of one logical schedule until tx ends
	LockLineage(ctx context.Context, tx *gorm.DB, lineageID uint) error

	// Supersede retires a version in favour of its successor
	Supersede(ctx context.Context, tx *gorm.DB, id uint, successorID uint, at time.Time) error

	// SetActive flips is_active on the current version; false when nothing matched
	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) (bool, error)

	// SoftDelete removes the current version; false when nothing matched
	SoftDelete(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ScheduleFilters) ([]*models.ExamSchedule, int64, error)
	History(ctx context.Context, tx *gorm.DB, lineageID uint) ([]*models.ExamSchedule, error)
	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
}
