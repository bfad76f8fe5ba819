package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

const defaultMark = 1.0

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	s.logger.Info("Creating question", "creator_id", creatorID, "subject", req.Subject)

	if errors := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errors) > 0 {
		return nil, errors
	}

	question := newQuestion(req, creatorID)
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, persistenceError("create question", err)
	}

	s.logger.Info("Question created successfully", "question_id", question.ID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// Update keeps exams stable: a question already placed on an exam is never
// edited in place. The edit becomes a new question and the old row is
// soft-deleted, so assembled exams keep rendering and scoring the old content.
// The usage check runs under a row lock on the question; linking it to an exam
// needs a key share lock on the same row, so assembly waits for the edit.
func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, editorID string) (*models.Question, error) {
	s.logger.Info("Updating question", "question_id", id, "editor_id", editorID)

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(ctx, existing, editorID, "update"); err != nil {
		return nil, err
	}

	var (
		updated  *models.Question
		replaced bool
	)
	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		locked, err := repo.Question().GetForUpdate(ctx, nil, id)
		if err != nil {
			return err
		}
		if errors := s.validator.GetBusinessValidator().ValidateQuestionUpdate(req, locked); len(errors) > 0 {
			return errors
		}

		used, err := repo.Question().IsUsedInExams(ctx, nil, id)
		if err != nil {
			return err
		}

		if !used {
			applyQuestionUpdates(locked, req)
			locked.EditedBy = &editorID
			updated = locked
			return repo.Question().Update(ctx, nil, locked)
		}

		replacement := *locked
		replacement.ID = 0
		replacement.UpdatedAt = time.Time{}
		applyQuestionUpdates(&replacement, req)
		replacement.EditedBy = &editorID
		if err := repo.Question().Create(ctx, nil, &replacement); err != nil {
			return err
		}
		updated, replaced = &replacement, true
		return repo.Question().Delete(ctx, nil, id)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, persistenceError("update question", err)
	}

	if replaced {
		s.logger.Info("Question replaced by a new version",
			"question_id", id,
			"new_question_id", updated.ID)
		return updated, nil
	}
	s.logger.Info("Question updated successfully", "question_id", id)
	return updated, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(ctx, existing, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return persistenceError("delete question", err)
	}

	s.logger.Info("Question deleted successfully", "question_id", id)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, persistenceError("list questions", err)
	}
	return questions, total, nil
}

// ===== BANK QUERIES =====

func (s *questionService) Candidates(ctx context.Context, subject string) ([]*models.Question, error) {
	questions, err := s.repo.Question().Candidates(ctx, nil, strings.TrimSpace(subject))
	if err != nil {
		return nil, persistenceError("load candidate questions", err)
	}
	return questions, nil
}

func (s *questionService) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := s.repo.Question().Subjects(ctx, nil)
	if err != nil {
		return nil, persistenceError("list subjects", err)
	}
	return subjects, nil
}

// ===== HELPERS =====

func (s *questionService) checkOwnership(ctx context.Context, question *models.Question, userID, action string) error {
	allowed, err := ownerOrAdmin(ctx, s.repo.User(), question.CreatedBy, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return NewPermissionError(userID, question.ID, "question", action, "not owner or insufficient permissions")
	}
	return nil
}

func newQuestion(req *CreateQuestionRequest, creatorID string) *models.Question {
	answer, _ := models.ParseChoiceLabel(req.Answer)

	question := &models.Question{
		Code:       strings.TrimSpace(req.Code),
		Subject:    strings.TrimSpace(req.Subject),
		Content:    req.Content,
		ContentImg: req.ContentImg,
		ChoiceA:    req.ChoiceA,
		ChoiceB:    req.ChoiceB,
		ChoiceC:    req.ChoiceC,
		ChoiceD:    req.ChoiceD,
		Answer:     answer,
		Mark:       req.Mark,
		Unit:       req.Unit,
		Mix:        true,
		Lecturer:   req.Lecturer,
		CreatedBy:  creatorID,
	}
	if question.Mark <= 0 {
		question.Mark = defaultMark
	}
	if req.Mix != nil {
		question.Mix = *req.Mix
	}
	return question
}

func applyQuestionUpdates(question *models.Question, req *UpdateQuestionRequest) {
	if req.Subject != nil {
		question.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Content != nil {
		question.Content = *req.Content
	}
	if req.ContentImg != nil {
		question.ContentImg = req.ContentImg
	}
	if req.ChoiceA != nil {
		question.ChoiceA = *req.ChoiceA
	}
	if req.ChoiceB != nil {
		question.ChoiceB = *req.ChoiceB
	}
	if req.ChoiceC != nil {
		question.ChoiceC = *req.ChoiceC
	}
	if req.ChoiceD != nil {
		question.ChoiceD = *req.ChoiceD
	}
	if req.Answer != nil {
		if label, ok := models.ParseChoiceLabel(*req.Answer); ok {
			question.Answer = label
		}
	}
	if req.Mark != nil {
		question.Mark = *req.Mark
	}
	if req.Unit != nil {
		question.Unit = req.Unit
	}
	if req.Mix != nil {
		question.Mix = *req.Mix
	}
	if req.Lecturer != nil {
		question.Lecturer = req.Lecturer
	}
}
