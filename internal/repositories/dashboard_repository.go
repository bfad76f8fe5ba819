package repositories

import (
	"context"

	"gorm.io/gorm"
)

// DashboardRepository interface for aggregated statistics
type DashboardRepository interface {
	GetTotals(ctx context.Context, tx *gorm.DB) (*Totals, error)
	GetQuestionsPerSubject(ctx context.Context, tx *gorm.DB) ([]SubjectCount, error)
	GetScheduleStats(ctx context.Context, tx *gorm.DB, lineageID uint) (*ScheduleStats, error)
}
