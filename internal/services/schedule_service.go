package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type scheduleService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	clock     Clock
}

func NewScheduleService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, clock Clock) ScheduleService {
	if clock == nil {
		clock = systemClock
	}
	return &scheduleService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
	}
}

// ===== LIFECYCLE =====

func (s *scheduleService) Create(ctx context.Context, req *CreateScheduleRequest, creatorID string) (*models.ExamSchedule, error) {
	s.logger.Info("Creating schedule", "creator_id", creatorID, "exam_id", req.ExamID)

	if errors := s.validator.GetBusinessValidator().ValidateScheduleCreate(req); len(errors) > 0 {
		return nil, errors
	}
	if err := s.ensureExam(ctx, req.ExamID); err != nil {
		return nil, err
	}

	schedule := &models.ExamSchedule{
		ExamID:      req.ExamID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		MaxAttempts: req.MaxAttempts,
		IsActive:    true,
		CreatedBy:   creatorID,
	}
	if schedule.MaxAttempts <= 0 {
		schedule.MaxAttempts = models.DefaultMaxAttempts
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := s.repo.Schedule().Create(ctx, nil, schedule); err != nil {
		return nil, persistenceError("create schedule", err)
	}

	s.logger.Info("Schedule created successfully",
		"schedule_id", schedule.ID,
		"lineage_id", schedule.LineageID)

	publishEvent(ctx, s.publisher, s.logger, events.ScheduleCreated, events.ScheduleData{
		ScheduleID: schedule.ID,
		LineageID:  schedule.LineageID,
		ExamID:     schedule.ExamID,
		ActorID:    creatorID,
	})
	return schedule, nil
}

// Update never edits a version in place. It inserts a copy of the current
// version with the patch applied and retires the old row, pointing it at the
// new one. Both writes happen under the lineage lock.
func (s *scheduleService) Update(ctx context.Context, id uint, patch *SchedulePatch, actorID string) (*models.ExamSchedule, error) {
	s.logger.Info("Updating schedule", "schedule_id", id, "actor_id", actorID)

	if patch == nil || patch.Empty() {
		return nil, ValidationErrors{{Field: "patch", Message: "must change at least one field", Rule: "required"}}
	}

	current, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, current, actorID, "update"); err != nil {
		return nil, err
	}
	if patch.ExamID != nil && *patch.ExamID != current.ExamID {
		if err := s.ensureExam(ctx, *patch.ExamID); err != nil {
			return nil, err
		}
	}

	var next *models.ExamSchedule
	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Schedule().LockLineage(ctx, nil, current.LineageID); err != nil {
			return err
		}
		locked, err := repo.Schedule().GetByID(ctx, nil, id)
		if err != nil {
			return err
		}
		if errors := s.validator.GetBusinessValidator().ValidateSchedulePatch(patch, locked); len(errors) > 0 {
			return errors
		}

		now := s.clock()
		next = nextVersion(locked, patch, now)
		if err := repo.Schedule().Insert(ctx, nil, next); err != nil {
			return err
		}
		return repo.Schedule().Supersede(ctx, nil, locked.ID, next.ID, now)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, persistenceError("version schedule", err)
	}

	s.logger.Info("Schedule versioned successfully",
		"lineage_id", next.LineageID,
		"previous_id", id,
		"current_id", next.ID)

	publishEvent(ctx, s.publisher, s.logger, events.ScheduleVersioned, events.ScheduleVersionedData{
		LineageID:  next.LineageID,
		PreviousID: id,
		CurrentID:  next.ID,
		Changed:    changedFields(patch),
		ActorID:    actorID,
	})
	return next, nil
}

// Deactivate flips is_active on the current version in place. It reports false
// when id is not a current version.
func (s *scheduleService) Deactivate(ctx context.Context, id uint, actorID string) (bool, error) {
	s.logger.Info("Deactivating schedule", "schedule_id", id, "actor_id", actorID)

	return s.mutateCurrent(ctx, id, actorID, "deactivate schedule", events.ScheduleDeactivated, func(repo repositories.Repository) (bool, error) {
		return repo.Schedule().SetActive(ctx, nil, id, false)
	})
}

// Delete soft deletes the current version without a successor
func (s *scheduleService) Delete(ctx context.Context, id uint, actorID string) (bool, error) {
	s.logger.Info("Deleting schedule", "schedule_id", id, "actor_id", actorID)

	return s.mutateCurrent(ctx, id, actorID, "delete schedule", events.ScheduleDeleted, func(repo repositories.Repository) (bool, error) {
		return repo.Schedule().SoftDelete(ctx, nil, id)
	})
}

// ===== QUERIES =====

func (s *scheduleService) Find(ctx context.Context, id uint) (*models.ExamSchedule, error) {
	schedule, err := s.repo.Schedule().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return schedule, nil
}

func (s *scheduleService) GetVersion(ctx context.Context, id uint) (*models.ExamSchedule, error) {
	schedule, err := s.repo.Schedule().GetByIDUnscoped(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule version: %w", err)
	}
	return schedule, nil
}

// Resolve maps a retired version to the current version of its lineage. A
// deleted schedule has no current version.
func (s *scheduleService) Resolve(ctx context.Context, id uint) (*models.ExamSchedule, error) {
	version, err := s.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !version.DeletedAt.Valid {
		return version, nil
	}
	if !version.IsSuperseded() {
		return nil, ErrScheduleNotFound
	}

	current, err := s.repo.Schedule().GetCurrent(ctx, nil, version.LineageID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to resolve schedule: %w", err)
	}
	return current, nil
}

func (s *scheduleService) List(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error) {
	filters.Limit = normalizeLimit(filters.Limit)
	schedules, total, err := s.repo.Schedule().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, persistenceError("list schedules", err)
	}
	return schedules, total, nil
}

// Available lists the active schedules students can pick from
func (s *scheduleService) Available(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error) {
	active := true
	filters.IsActive = &active
	return s.List(ctx, filters)
}

func (s *scheduleService) History(ctx context.Context, id uint) ([]*models.ExamSchedule, error) {
	version, err := s.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.Schedule().History(ctx, nil, version.LineageID)
	if err != nil {
		return nil, persistenceError("load schedule history", err)
	}
	return versions, nil
}

func (s *scheduleService) GetPaper(ctx context.Context, id uint) (*models.ExamPaper, error) {
	schedule, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, schedule.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return buildExamPaper(schedule, exam), nil
}

// ===== HELPERS =====

func (s *scheduleService) ensureExam(ctx context.Context, examID uint) error {
	if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}
	return nil
}

// checkOwnership allows the lineage creator and administrators. Every version
// carries the creator of the first one.
func (s *scheduleService) checkOwnership(ctx context.Context, schedule *models.ExamSchedule, userID, action string) error {
	allowed, err := ownerOrAdmin(ctx, s.repo.User(), schedule.CreatedBy, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, schedule.ID, "schedule", action, "not owner or insufficient permissions")
	}
	return nil
}

// mutateCurrent runs an in-place change of the current version under the
// lineage lock, so it cannot be lost to a concurrent version swap
func (s *scheduleService) mutateCurrent(ctx context.Context, id uint, actorID, op string, eventType events.EventType, mutate func(repositories.Repository) (bool, error)) (bool, error) {
	current, err := s.repo.Schedule().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get schedule: %w", err)
	}
	if err := s.checkOwnership(ctx, current, actorID, op); err != nil {
		return false, err
	}

	var changed bool
	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Schedule().LockLineage(ctx, nil, current.LineageID); err != nil {
			return err
		}
		ok, err := mutate(repo)
		changed = ok
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, persistenceError(op, err)
	}
	if !changed {
		return false, nil
	}

	publishEvent(ctx, s.publisher, s.logger, eventType, events.ScheduleData{
		ScheduleID: current.ID,
		LineageID:  current.LineageID,
		ExamID:     current.ExamID,
		ActorID:    actorID,
	})
	return true, nil
}

// nextVersion copies every field of the current version except its identity
// and retirement markers, then overlays the patch
func nextVersion(current *models.ExamSchedule, patch *SchedulePatch, now time.Time) *models.ExamSchedule {
	next := *current
	next.ID = 0
	next.UpdatedAt = now
	next.SupersededBy = nil
	next.DeletedAt = gorm.DeletedAt{}
	next.Exam = nil

	if patch.ExamID != nil {
		next.ExamID = *patch.ExamID
	}
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = patch.Description
	}
	if patch.StartTime != nil {
		next.StartTime = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		next.EndTime = patch.EndTime.UTC()
	}
	if patch.MaxAttempts != nil {
		next.MaxAttempts = *patch.MaxAttempts
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	return &next
}

func changedFields(patch *SchedulePatch) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(patch.ExamID != nil, "exam_id")
	add(patch.Title != nil, "title")
	add(patch.Description != nil, "description")
	add(patch.StartTime != nil, "start_time")
	add(patch.EndTime != nil, "end_time")
	add(patch.MaxAttempts != nil, "max_attempts")
	add(patch.IsActive != nil, "is_active")
	return fields
}
