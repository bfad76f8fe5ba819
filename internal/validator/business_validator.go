package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

var (
	examCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,49}$`)
	subjectPattern  = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _.&()/+-]*$`)
)

const maxSubjectLength = 100

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	bv := &BusinessValidator{validate: validator.New()}
	bv.registerBusinessRules()
	return bv
}

// Validate validates struct tags for any request
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionCreate validates a new bank question
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, distinctChoices([4]string{req.ChoiceA, req.ChoiceB, req.ChoiceC, req.ChoiceD})...)
	return errors
}

// ValidateQuestionUpdate validates an edit against the stored question
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(req)...)

	choices := [4]string{existing.ChoiceA, existing.ChoiceB, existing.ChoiceC, existing.ChoiceD}
	for i, override := range []*string{req.ChoiceA, req.ChoiceB, req.ChoiceC, req.ChoiceD} {
		if override != nil {
			choices[i] = *override
		}
	}
	errors = append(errors, distinctChoices(choices)...)
	return errors
}

// ValidateExamGenerate validates an assembly request
func (bv *BusinessValidator) ValidateExamGenerate(req *ExamGenerateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateScheduleCreate validates a first schedule version
func (bv *BusinessValidator) ValidateScheduleCreate(req *ScheduleCreateRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateSchedulePatch validates a patch merged over the current version
func (bv *BusinessValidator) ValidateSchedulePatch(patch *SchedulePatch, current *models.ExamSchedule) ValidationErrors {
	var errors ValidationErrors
	errors = append(errors, bv.Validate(patch)...)

	start, end := current.StartTime, current.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	if !end.After(start) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   end.Format(time.RFC3339),
			Rule:    "business_logic",
		})
	}
	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("choice_label", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseChoiceLabel(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("choice_order", func(fl validator.FieldLevel) bool {
		_, err := models.ParseChoiceOrder(fl.Field().String())
		return err == nil
	})

	bv.validate.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		subject := strings.TrimSpace(fl.Field().String())
		return subject != "" &&
			utf8.RuneCountInString(subject) <= maxSubjectLength &&
			subjectPattern.MatchString(subject)
	})

	bv.validate.RegisterValidation("exam_code", func(fl validator.FieldLevel) bool {
		return examCodePattern.MatchString(fl.Field().String())
	})
}

func distinctChoices(choices [4]string) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]models.ChoiceLabel, len(choices))
	for i, text := range choices {
		key := strings.ToLower(strings.TrimSpace(text))
		if key == "" {
			continue
		}
		label := models.ChoiceLabels[i]
		if first, ok := seen[key]; ok {
			errors = append(errors, ValidationError{
				Field:   "choice_" + strings.ToLower(string(label)),
				Message: "duplicates choice_" + strings.ToLower(string(first)),
				Value:   text,
				Rule:    "business_logic",
			})
			continue
		}
		seen[key] = label
	}
	return errors
}
