package services

import (
	"math"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// ScoreResult is the outcome of scoring one answer set against an exam
type ScoreResult struct {
	Score    float64
	MaxScore float64
	Results  []models.QuestionResult
}

// Percentage returns the score as a percentage rounded to two decimals
func (r *ScoreResult) Percentage() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return math.Round(r.Score/r.MaxScore*10000) / 100
}

// Score grades answers against the assembled questions of an exam. A student
// answers with the label of the position they saw; position i shows original
// slot ChoiceOrder[i], which is compared with the canonical answer. Score has
// no side effects and returns the same result for the same input.
func Score(questions []models.ExamQuestion, answers map[uint]models.ChoiceLabel) *ScoreResult {
	result := &ScoreResult{Results: make([]models.QuestionResult, 0, len(questions))}

	for _, eq := range questions {
		if eq.Question == nil {
			continue
		}
		mark := eq.Question.EffectiveMark()
		line := models.QuestionResult{
			QuestionID:    eq.QuestionID,
			QuestionOrder: eq.QuestionOrder,
			Outcome:       models.OutcomeUnanswered,
			Mark:          mark,
		}
		result.MaxScore += mark

		if selected, ok := answers[eq.QuestionID]; ok {
			line.Selected = selected
			line.Outcome = models.OutcomeWrong
			if original, ok := eq.ChoiceOrder.Original(selected); ok {
				line.Original = original
				if original == eq.Question.Answer {
					line.Outcome = models.OutcomeCorrect
					line.Awarded = mark
					result.Score += mark
				}
			}
		}

		result.Results = append(result.Results, line)
	}

	return result
}
