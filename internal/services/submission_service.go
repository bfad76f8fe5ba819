package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	clock     Clock
	gate      attemptGate
	schedules ScheduleService
}

func NewSubmissionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, clock Clock) SubmissionService {
	if clock == nil {
		clock = systemClock
	}
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		gate:      newAttemptGate(clock),
		schedules: NewScheduleService(repo, logger, validator, publisher, clock),
	}
}

// ===== ATTEMPT GATE =====

// AuthorizeAttempt is a dry run of StartAttempt. A blocked attempt is a normal
// answer, not an error.
func (s *submissionService) AuthorizeAttempt(ctx context.Context, studentID string, scheduleID uint) (*models.AttemptDecision, error) {
	schedule, err := s.schedules.Resolve(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	used, err := s.repo.Submission().CountByStudent(ctx, nil, studentID, schedule.LineageID)
	if err != nil {
		return nil, persistenceError("count attempts", err)
	}

	decision := s.gate.Decide(schedule, used)
	s.logger.Info("Attempt authorization checked",
		"student_id", studentID,
		"schedule_id", schedule.ID,
		"proceed", decision.Proceed,
		"reason", decision.Reason)
	return decision, nil
}

// StartAttempt opens an in-progress submission through the locked
// count-and-insert primitive
func (s *submissionService) StartAttempt(ctx context.Context, studentID string, scheduleID uint) (*models.Submission, error) {
	s.logger.Info("Starting attempt", "student_id", studentID, "schedule_id", scheduleID)

	schedule, err := s.schedules.Resolve(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		StudentID: studentID,
		Answers:   models.EmptyAnswers,
		Status:    models.SubmissionInProgress,
		StartedAt: s.clock(),
	}

	bound, err := s.repo.Submission().CreateWithinLimit(ctx, nil, schedule.LineageID, submission, s.gate.Guard(studentID, nil))
	if err != nil {
		return nil, s.attemptError(err, studentID, schedule)
	}
	submission.Schedule = bound

	s.logger.Info("Attempt started successfully",
		"submission_id", submission.ID,
		"schedule_id", submission.ScheduleID,
		"attempt_number", submission.AttemptNumber)

	publishEvent(ctx, s.publisher, s.logger, events.SubmissionStarted, events.SubmissionStartedData{
		SubmissionID:  submission.ID,
		StudentID:     studentID,
		ScheduleID:    submission.ScheduleID,
		LineageID:     submission.LineageID,
		AttemptNumber: submission.AttemptNumber,
	})
	return submission, nil
}

// ===== ANSWERS AND SCORING =====

// SubmitAnswers finalizes an in-progress attempt. The attempt is scored against
// the exam of the schedule version it started on; lateness is measured against
// the current end time of the schedule.
func (s *submissionService) SubmitAnswers(ctx context.Context, submissionID uint, studentID string, answers json.RawMessage) (*models.ScoreResponse, error) {
	s.logger.Info("Submitting answers", "submission_id", submissionID, "student_id", studentID)

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.StudentID != studentID {
		return nil, NewPermissionError(studentID, submissionID, "submission", "submit", "not the owner of this attempt")
	}
	if submission.Status != models.SubmissionInProgress {
		return nil, ErrSubmissionAlreadySubmitted
	}

	bound, err := s.schedules.GetVersion(ctx, submission.ScheduleID)
	if err != nil {
		return nil, err
	}
	deadline := bound.EndTime
	if current, err := s.repo.Schedule().GetCurrent(ctx, nil, submission.LineageID); err == nil {
		deadline = current.EndTime
	} else if !repositories.IsNotFoundError(err) {
		return nil, persistenceError("load schedule", err)
	}

	result, warning, err := s.score(ctx, bound.ExamID, answers)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	applyScore(submission, result)
	submission.Answers = rawAnswers(answers)
	submission.Status = models.SubmissionSubmitted
	submission.SubmittedAt = &now
	submission.IsLate = now.After(deadline)

	finalized, err := s.repo.Submission().Finalize(ctx, nil, submission)
	if err != nil {
		return nil, persistenceError("finalize submission", err)
	}
	if !finalized {
		return nil, ErrSubmissionAlreadySubmitted
	}

	s.afterScoring(ctx, submission, result, warning)
	return scoreResponse(submission.ID, result, warning), nil
}

// RecordSubmission stores a complete, scored attempt in one step. The answers
// are scored before the insert and the insert only succeeds while the schedule
// still points at the exam they were scored against.
func (s *submissionService) RecordSubmission(ctx context.Context, studentID string, scheduleID uint, answers json.RawMessage) (*models.Submission, error) {
	s.logger.Info("Recording submission", "student_id", studentID, "schedule_id", scheduleID)

	schedule, err := s.schedules.Resolve(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result, warning, err := s.score(ctx, schedule.ExamID, answers)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	submission := &models.Submission{
		StudentID:   studentID,
		Answers:     rawAnswers(answers),
		Status:      models.SubmissionSubmitted,
		StartedAt:   now,
		SubmittedAt: &now,
	}
	applyScore(submission, result)

	examID := schedule.ExamID
	bound, err := s.repo.Submission().CreateWithinLimit(ctx, nil, schedule.LineageID, submission, s.gate.Guard(studentID, &examID))
	if err != nil {
		return nil, s.attemptError(err, studentID, schedule)
	}
	submission.Schedule = bound

	s.afterScoring(ctx, submission, result, warning)
	return submission, nil
}

// ScoreSubmission re-scores the stored answers of a finished attempt
func (s *submissionService) ScoreSubmission(ctx context.Context, submissionID uint) (*models.ScoreResponse, error) {
	s.logger.Info("Re-scoring submission", "submission_id", submissionID)

	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Status != models.SubmissionSubmitted {
		return nil, NewBusinessRuleError("submission_in_progress", "only submitted attempts can be scored",
			map[string]interface{}{"submission_id": submissionID})
	}

	bound, err := s.schedules.GetVersion(ctx, submission.ScheduleID)
	if err != nil {
		return nil, err
	}
	result, warning, err := s.score(ctx, bound.ExamID, json.RawMessage(submission.Answers))
	if err != nil {
		return nil, err
	}

	applyScore(submission, result)
	if err := s.repo.Submission().Update(ctx, nil, submission); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, persistenceError("store score", err)
	}

	s.afterScoring(ctx, submission, result, warning)
	return scoreResponse(submission.ID, result, warning), nil
}

// ===== QUERIES =====

// Get returns a submission to its student, the schedule author or an admin
func (s *submissionService) Get(ctx context.Context, id uint, userID string) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.StudentID == userID {
		return submission, nil
	}

	bound, err := s.schedules.GetVersion(ctx, submission.ScheduleID)
	if err != nil {
		return nil, err
	}
	allowed, err := ownerOrAdmin(ctx, s.repo.User(), bound.CreatedBy, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "submission", "read", "not the student or the schedule author")
	}
	return submission, nil
}

func (s *submissionService) ListMine(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.StudentID = &studentID
	filters.Limit = normalizeLimit(filters.Limit)
	submissions, total, err := s.repo.Submission().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, persistenceError("list submissions", err)
	}
	return submissions, total, nil
}

// ListBySchedule lists the attempts of every version of a schedule
func (s *submissionService) ListBySchedule(ctx context.Context, scheduleID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	version, err := s.schedules.GetVersion(ctx, scheduleID)
	if err != nil {
		return nil, 0, err
	}
	filters.LineageID = &version.LineageID
	filters.Limit = normalizeLimit(filters.Limit)
	submissions, total, err := s.repo.Submission().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, persistenceError("list submissions", err)
	}
	return submissions, total, nil
}

// ExamData renders the paper an attempt was taken on
func (s *submissionService) ExamData(ctx context.Context, submissionID uint, userID string) (*models.ExamPaper, error) {
	submission, err := s.Get(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	bound, err := s.schedules.GetVersion(ctx, submission.ScheduleID)
	if err != nil {
		return nil, err
	}
	exam, err := s.loadExam(ctx, bound.ExamID)
	if err != nil {
		return nil, err
	}
	return buildExamPaper(bound, exam), nil
}

// ===== HELPERS =====

func (s *submissionService) getSubmission(ctx context.Context, id uint) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) loadExam(ctx context.Context, examID uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *submissionService) score(ctx context.Context, examID uint, raw json.RawMessage) (*ScoreResult, *MalformedAnswersWarning, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	entries, warning := ParseAnswers(raw)
	return Score(exam.Questions, AnswerMap(entries)), warning, nil
}

func (s *submissionService) afterScoring(ctx context.Context, submission *models.Submission, result *ScoreResult, warning *MalformedAnswersWarning) {
	s.logger.Info("Submission scored",
		"submission_id", submission.ID,
		"student_id", submission.StudentID,
		"score", result.Score,
		"max_score", result.MaxScore,
		"is_late", submission.IsLate)

	if warning != nil {
		s.logger.Warn("Malformed answers ignored",
			"submission_id", submission.ID,
			"student_id", submission.StudentID,
			"problems", warning.Problems)
		publishEvent(ctx, s.publisher, s.logger, events.AnswersMalformed, events.AnswersMalformedData{
			SubmissionID: submission.ID,
			StudentID:    submission.StudentID,
			Problems:     warning.Problems,
		})
	}

	publishEvent(ctx, s.publisher, s.logger, events.SubmissionScored, events.SubmissionScoredData{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		LineageID:    submission.LineageID,
		Score:        result.Score,
		MaxScore:     result.MaxScore,
		IsLate:       submission.IsLate,
	})
}

// attemptError maps failures of the count-and-insert primitive
func (s *submissionService) attemptError(err error, studentID string, schedule *models.ExamSchedule) error {
	switch {
	case errors.Is(err, repositories.ErrAttemptLimitReached), repositories.IsDuplicateKeyError(err):
		return &AttemptLimitExceededError{
			StudentID:   studentID,
			ScheduleID:  schedule.ID,
			Used:        schedule.AttemptLimit(),
			MaxAttempts: schedule.AttemptLimit(),
		}
	case repositories.IsNotFoundError(err):
		return ErrScheduleNotFound
	default:
		return persistenceError("create submission", err)
	}
}

func applyScore(submission *models.Submission, result *ScoreResult) {
	score, maxScore := result.Score, result.MaxScore
	submission.Score = &score
	submission.MaxScore = &maxScore
	if breakdown, err := json.Marshal(result.Results); err == nil {
		submission.Breakdown = datatypes.JSON(breakdown)
	}
}

func rawAnswers(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.EmptyAnswers
	}
	return string(raw)
}

func scoreResponse(submissionID uint, result *ScoreResult, warning *MalformedAnswersWarning) *models.ScoreResponse {
	response := &models.ScoreResponse{
		SubmissionID: submissionID,
		Score:        result.Score,
		MaxScore:     result.MaxScore,
		Percentage:   result.Percentage(),
		Results:      result.Results,
	}
	if warning != nil {
		response.Warnings = warning.Problems
	}
	return response
}
