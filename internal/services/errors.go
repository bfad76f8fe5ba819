package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-service/internal/validator"
)

// ErrNotFound is wrapped by every entity specific not found error
var ErrNotFound = errors.New("not found")

var (
	ErrQuestionNotFound   = fmt.Errorf("question %w", ErrNotFound)
	ErrExamNotFound       = fmt.Errorf("exam %w", ErrNotFound)
	ErrScheduleNotFound   = fmt.Errorf("schedule %w", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
)

var (
	ErrSubmissionAlreadySubmitted = errors.New("submission already submitted")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrForbidden                  = errors.New("forbidden")
)

// ValidationErrors is returned for request validation failures
type ValidationErrors = validator.ValidationErrors

// DuplicateCodeError reports an exam code already used by a live exam
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("exam code %q is already in use", e.Code)
}

// InsufficientQuestionsError reports a bank that cannot fill the requested exam
type InsufficientQuestionsError struct {
	Subject   string
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("subject %q has %d questions, %d requested", e.Subject, e.Available, e.Requested)
}

// AttemptLimitExceededError is returned when a student used every attempt of a schedule
type AttemptLimitExceededError struct {
	StudentID   string
	ScheduleID  uint
	Used        int
	MaxAttempts int
}

func (e *AttemptLimitExceededError) Error() string {
	return fmt.Sprintf("max attempts exceeded: %d of %d used for schedule %d", e.Used, e.MaxAttempts, e.ScheduleID)
}

// MalformedAnswersWarning lists answer entries that could not be used. Scoring
// continues without them.
type MalformedAnswersWarning struct {
	Problems []string
}

func (w *MalformedAnswersWarning) Error() string {
	return "malformed answers: " + strings.Join(w.Problems, "; ")
}

// PersistenceError wraps a storage failure that rolled back the whole operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Retryable reports that the caller may repeat the operation
func (e *PersistenceError) Retryable() bool {
	return true
}

// persistenceError wraps err unless it already carries a domain meaning
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		validationErrors ValidationErrors
		duplicate        *DuplicateCodeError
		insufficient     *InsufficientQuestionsError
		attemptLimit     *AttemptLimitExceededError
		businessRule     *BusinessRuleError
		permission       *PermissionError
		persistence      *PersistenceError
	)
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSubmissionAlreadySubmitted),
		errors.As(err, &validationErrors),
		errors.As(err, &duplicate),
		errors.As(err, &insufficient),
		errors.As(err, &attemptLimit),
		errors.As(err, &businessRule),
		errors.As(err, &permission),
		errors.As(err, &persistence):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// BusinessRuleError reports a request that is valid but not allowed right now
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

// PermissionError reports a user acting on a resource they do not own
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}
