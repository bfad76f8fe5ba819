package services

import (
	"github.com/SAP-F-2025/exam-service/internal/models"
)

// buildExamPaper renders an exam as students see it: choices in their stored
// display order, relabelled A to D, with the answer key left out.
func buildExamPaper(schedule *models.ExamSchedule, exam *models.Exam) *models.ExamPaper {
	paper := &models.ExamPaper{
		Schedule:  schedule,
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.Duration,
		Questions: make([]models.PaperQuestion, 0, len(exam.Questions)),
	}

	for _, eq := range exam.Questions {
		q := eq.Question
		if q == nil {
			continue
		}

		choices := make([]models.PaperChoice, len(eq.ChoiceOrder))
		for i, original := range eq.ChoiceOrder {
			choices[i] = models.PaperChoice{
				Label: models.ChoiceLabels[i],
				Text:  q.Choice(original),
			}
		}

		paper.Questions = append(paper.Questions, models.PaperQuestion{
			QuestionID:    q.ID,
			QuestionOrder: eq.QuestionOrder,
			Content:       q.Content,
			ContentImg:    q.ContentImg,
			Choices:       choices,
			Mark:          q.EffectiveMark(),
			Unit:          q.Unit,
		})
		paper.TotalMark += q.EffectiveMark()
	}

	return paper
}
