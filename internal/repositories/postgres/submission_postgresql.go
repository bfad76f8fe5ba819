package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSubmissionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// CreateWithinLimit locks the lineage anchor row, so concurrent starts for the
// same schedule queue up behind each other and each one recounts after the
// previous insert committed. The unique (student, lineage, attempt_number)
// index backs the count at the storage level.
func (s *SubmissionPostgreSQL) CreateWithinLimit(ctx context.Context, tx *gorm.DB, lineageID uint, submission *models.Submission, guard repositories.AttemptGuard) (*models.ExamSchedule, error) {
	var bound *models.ExamSchedule

	err := s.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLineage(ctx, tx, lineageID); err != nil {
			return err
		}

		var current models.ExamSchedule
		if err := tx.Where("lineage_id = ?", lineageID).Order("id DESC").First(&current).Error; err != nil {
			return translateError(err, "schedule lineage", lineageID)
		}

		var used int64
		if err := tx.Model(&models.Submission{}).
			Where("student_id = ? AND lineage_id = ?", submission.StudentID, lineageID).
			Count(&used).Error; err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}

		if guard != nil {
			if err := guard(&current, used); err != nil {
				return err
			}
		}
		if used >= int64(current.AttemptLimit()) {
			return repositories.ErrAttemptLimitReached
		}

		submission.ScheduleID = current.ID
		submission.LineageID = lineageID
		submission.AttemptNumber = int(used) + 1
		if err := tx.Omit("Schedule").Create(submission).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		bound = &current
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateScheduleStats(ctx, s.cacheManager, lineageID)
	return bound, nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	db := s.getDB(tx)
	var submission models.Submission
	if err := db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, translateError(err, "submission", id)
	}
	return &submission, nil
}

// Update writes the mutable part of a submission; identity columns are never touched
func (s *SubmissionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(submission).
		Select("answers", "status", "score", "max_score", "breakdown", "submitted_at", "is_late").
		Updates(submission)
	if result.Error != nil {
		return fmt.Errorf("failed to update submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.NotFound("submission", submission.ID)
	}

	cache.InvalidateScheduleStats(ctx, s.cacheManager, submission.LineageID)
	return nil
}

func (s *SubmissionPostgreSQL) Finalize(ctx context.Context, tx *gorm.DB, submission *models.Submission) (bool, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionInProgress).
		Updates(map[string]interface{}{
			"answers":      submission.Answers,
			"status":       submission.Status,
			"score":        submission.Score,
			"max_score":    submission.MaxScore,
			"breakdown":    submission.Breakdown,
			"submitted_at": submission.SubmittedAt,
			"is_late":      submission.IsLate,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to finalize submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	cache.InvalidateScheduleStats(ctx, s.cacheManager, submission.LineageID)
	return true, nil
}

func (s *SubmissionPostgreSQL) CountByStudent(ctx context.Context, tx *gorm.DB, studentID string, lineageID uint) (int64, error) {
	db := s.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ? AND lineage_id = ?", studentID, lineageID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := s.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Submission{}).
		Joins("JOIN exam_schedules ON exam_schedules.id = submissions.schedule_id").
		Where("exam_schedules.exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions for exam: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	db := s.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Submission{})

	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.LineageID != nil {
		query = query.Where("lineage_id = ?", *filters.LineageID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = s.helpers.ApplyPagination(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)

	var submissions []*models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, total, nil
}
