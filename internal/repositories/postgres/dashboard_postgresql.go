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

type dashboardRepository struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DashboardRepository {
	return &dashboardRepository{db: db, cacheManager: cacheManager}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *dashboardRepository) GetTotals(ctx context.Context, tx *gorm.DB) (*repositories.Totals, error) {
	db := r.getDB(tx).WithContext(ctx)
	var totals repositories.Totals

	if err := db.Model(&models.Question{}).Count(&totals.Questions).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if err := db.Model(&models.Exam{}).Count(&totals.Exams).Error; err != nil {
		return nil, fmt.Errorf("failed to count exams: %w", err)
	}
	if err := db.Model(&models.ExamSchedule{}).Where("is_active = ?", true).Count(&totals.ActiveSchedules).Error; err != nil {
		return nil, fmt.Errorf("failed to count active schedules: %w", err)
	}
	if err := db.Model(&models.Submission{}).Count(&totals.Submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	return &totals, nil
}

func (r *dashboardRepository) GetQuestionsPerSubject(ctx context.Context, tx *gorm.DB) ([]repositories.SubjectCount, error) {
	db := r.getDB(tx)
	var counts []repositories.SubjectCount
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("subject, COUNT(*) AS count").
		Group("subject").
		Order("subject ASC").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count questions per subject: %w", err)
	}
	return counts, nil
}

// GetScheduleStats aggregates every attempt of a logical schedule
func (r *dashboardRepository) GetScheduleStats(ctx context.Context, tx *gorm.DB, lineageID uint) (*repositories.ScheduleStats, error) {
	db := r.getDB(tx)
	fetch := func() (interface{}, error) {
		stats := repositories.ScheduleStats{LineageID: lineageID}

		var row struct {
			TotalAttempts   int64
			Students        int64
			Submitted       int64
			InProgress      int64
			LateSubmissions int64
			AverageScore    *float64
			HighestScore    *float64
			LowestScore     *float64
		}
		err := db.WithContext(ctx).
			Model(&models.Submission{}).
			Select(`COUNT(*) AS total_attempts,
				COUNT(DISTINCT student_id) AS students,
				COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS submitted,
				COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
				COALESCE(SUM(CASE WHEN is_late THEN 1 ELSE 0 END), 0) AS late_submissions,
				AVG(score) AS average_score,
				MAX(score) AS highest_score,
				MIN(score) AS lowest_score`,
				models.SubmissionSubmitted, models.SubmissionInProgress).
			Where("lineage_id = ?", lineageID).
			Scan(&row).Error
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate schedule stats: %w", err)
		}

		stats.TotalAttempts = row.TotalAttempts
		stats.Students = row.Students
		stats.Submitted = row.Submitted
		stats.InProgress = row.InProgress
		stats.LateSubmissions = row.LateSubmissions
		if row.AverageScore != nil {
			stats.AverageScore = *row.AverageScore
		}
		if row.HighestScore != nil {
			stats.HighestScore = *row.HighestScore
		}
		if row.LowestScore != nil {
			stats.LowestScore = *row.LowestScore
		}

		var last models.Submission
		err = db.WithContext(ctx).
			Where("lineage_id = ? AND submitted_at IS NOT NULL", lineageID).
			Order("submitted_at DESC").
			Limit(1).
			Find(&last).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load last submission: %w", err)
		}
		if last.SubmittedAt != nil {
			at := last.SubmittedAt.In(time.UTC)
			stats.LastSubmissionAt = &at
		}

		return &stats, nil
	}

	if tx != nil {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.(*repositories.ScheduleStats), nil
	}

	var stats repositories.ScheduleStats
	key := fmt.Sprintf("schedule:%d", lineageID)
	if err := r.cacheManager.Stats.CacheOrExecute(ctx, key, &stats, cache.StatsCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return &stats, nil
}
