package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	rng       RandomSource
	shuffler  ChoiceShuffler
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, rng RandomSource) ExamService {
	return newExamService(repo, logger, validator, publisher, rng, NewChoiceShuffler(rng))
}

func newExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, rng RandomSource, shuffler ChoiceShuffler) *examService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		rng:       rng,
		shuffler:  shuffler,
	}
}

// ===== ASSEMBLY =====

// Assemble draws TotalQuestions distinct questions of a subject and stores the
// exam with one choice order per question. Nothing is stored unless the exam and
// all of its questions are.
func (s *examService) Assemble(ctx context.Context, req *GenerateExamRequest, creatorID string) (*models.Exam, error) {
	s.logger.Info("Assembling exam",
		"creator_id", creatorID,
		"code", req.Code,
		"subject", req.Subject,
		"total_questions", req.TotalQuestions)

	if req.TotalQuestions <= 0 {
		return nil, ValidationErrors{{
			Field:   "total_questions",
			Message: "must be greater than 0",
			Value:   req.TotalQuestions,
			Rule:    "gt",
		}}
	}
	if errors := s.validator.GetBusinessValidator().ValidateExamGenerate(req); len(errors) > 0 {
		return nil, errors
	}

	code := strings.TrimSpace(req.Code)
	subject := strings.TrimSpace(req.Subject)

	exists, err := s.repo.Exam().ExistsByCode(ctx, nil, code, nil)
	if err != nil {
		return nil, persistenceError("check exam code", err)
	}
	if exists {
		return nil, &DuplicateCodeError{Code: code}
	}

	candidates, err := s.repo.Question().Candidates(ctx, nil, subject)
	if err != nil {
		return nil, persistenceError("load candidate questions", err)
	}
	if len(candidates) < req.TotalQuestions {
		return nil, &InsufficientQuestionsError{
			Subject:   subject,
			Requested: req.TotalQuestions,
			Available: len(candidates),
		}
	}

	picked := sampleQuestions(s.rng, candidates, req.TotalQuestions)
	examQuestions := make([]*models.ExamQuestion, len(picked))
	for i, q := range picked {
		examQuestions[i] = &models.ExamQuestion{
			QuestionID:    q.ID,
			QuestionOrder: i + 1,
			ChoiceOrder:   s.shuffler.Shuffle(req.ShuffleChoices && q.Mix),
		}
	}

	exam := &models.Exam{
		Code:           code,
		Title:          req.Title,
		Description:    req.Description,
		Subject:        subject,
		Duration:       req.Duration,
		TotalQuestions: req.TotalQuestions,
		IsActive:       true,
		CreatedBy:      creatorID,
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Exam().Create(ctx, nil, exam); err != nil {
			return err
		}
		return repo.Exam().AddQuestions(ctx, nil, exam.ID, examQuestions)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, &DuplicateCodeError{Code: code}
		}
		return nil, persistenceError("store assembled exam", err)
	}

	exam.Questions = make([]models.ExamQuestion, len(examQuestions))
	for i, eq := range examQuestions {
		eq.Question = picked[i]
		exam.Questions[i] = *eq
	}

	s.logger.Info("Exam assembled successfully",
		"exam_id", exam.ID,
		"code", exam.Code,
		"questions", len(exam.Questions))

	publishEvent(ctx, s.publisher, s.logger, events.ExamAssembled, events.ExamAssembledData{
		ExamID:         exam.ID,
		Code:           exam.Code,
		Subject:        exam.Subject,
		TotalQuestions: exam.TotalQuestions,
		Shuffled:       req.ShuffleChoices,
		CreatedBy:      creatorID,
	})

	return exam, nil
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, persistenceError("list exams", err)
	}
	return exams, total, nil
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*models.Exam, error) {
	s.logger.Info("Updating exam", "exam_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getOwned(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}

	if err := s.repo.Exam().Update(ctx, nil, exam); err != nil {
		return nil, persistenceError("update exam", err)
	}

	s.logger.Info("Exam updated successfully", "exam_id", id)
	return s.GetByID(ctx, id)
}

// Delete soft deletes an exam that no live schedule refers to and no attempt
// was started on. Attempts stay bound to the version they started on, so an
// exam swapped out of a schedule still has to score them.
func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting exam", "exam_id", id, "user_id", userID)

	if _, err := s.getOwned(ctx, id, userID, "delete"); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		scheduled, err := repo.Schedule().CountByExam(ctx, nil, id)
		if err != nil {
			return err
		}
		if scheduled > 0 {
			return NewBusinessRuleError("exam_scheduled", "exam is used by active schedules",
				map[string]interface{}{"exam_id": id, "schedules": scheduled})
		}

		attempts, err := repo.Submission().CountByExam(ctx, nil, id)
		if err != nil {
			return err
		}
		if attempts > 0 {
			return NewBusinessRuleError("exam_attempted", "exam has recorded attempts",
				map[string]interface{}{"exam_id": id, "attempts": attempts})
		}

		return repo.Exam().Delete(ctx, nil, id)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return persistenceError("delete exam", err)
	}

	s.logger.Info("Exam deleted successfully", "exam_id", id)
	return nil
}

// Restore brings back a deleted exam unless another exam took its code meanwhile
func (s *examService) Restore(ctx context.Context, id uint, userID string) (*models.Exam, error) {
	s.logger.Info("Restoring exam", "exam_id", id, "user_id", userID)

	deleted, err := s.repo.Exam().GetDeletedByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	allowed, err := ownerOrAdmin(ctx, s.repo.User(), deleted.CreatedBy, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "exam", "restore", "not owner or insufficient permissions")
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		taken, err := repo.Exam().ExistsByCode(ctx, nil, deleted.Code, &deleted.ID)
		if err != nil {
			return err
		}
		if taken {
			return &DuplicateCodeError{Code: deleted.Code}
		}
		return repo.Exam().Restore(ctx, nil, id)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, &DuplicateCodeError{Code: deleted.Code}
		}
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, persistenceError("restore exam", err)
	}

	s.logger.Info("Exam restored successfully", "exam_id", id)
	return s.GetByID(ctx, id)
}

func (s *examService) getOwned(ctx context.Context, id uint, userID, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	allowed, err := ownerOrAdmin(ctx, s.repo.User(), exam.CreatedBy, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "exam", action, "not owner or insufficient permissions")
	}
	return exam, nil
}
