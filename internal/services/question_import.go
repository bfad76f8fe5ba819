package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// importColumns are the recognised header names of a question workbook
var importColumns = []string{"code", "subject", "content", "a", "b", "c", "d", "answer", "mark", "unit", "mix", "lecturer"}

var requiredImportColumns = []string{"subject", "content", "a", "b", "c", "d", "answer"}

// Import reads the first sheet of an .xlsx workbook. Rows that fail validation
// are reported; the valid rows are stored together in one transaction.
func (s *questionService) Import(ctx context.Context, r io.Reader, importerID string) (*models.QuestionImportResult, error) {
	s.logger.Info("Importing questions", "importer_id", importerID)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ValidationErrors{{Field: "file", Message: "must be a valid .xlsx workbook", Rule: "format"}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{{Field: "file", Message: "workbook has no sheets", Rule: "format"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ValidationErrors{{Field: "file", Message: "sheet is empty", Rule: "format"}}
	}

	header, missing := importHeader(rows[0])
	if len(missing) > 0 {
		return nil, ValidationErrors{{
			Field:   "file",
			Message: "missing columns: " + strings.Join(missing, ", "),
			Rule:    "format",
		}}
	}

	result := &models.QuestionImportResult{}
	var questions []*models.Question
	bv := s.validator.GetBusinessValidator()

	for i, row := range rows[1:] {
		rowNumber := i + 2
		cell := func(name string) string {
			idx, ok := header[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if rowEmpty(row) {
			continue
		}

		req, err := importRequest(cell)
		if err != nil {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: err.Error()})
			continue
		}
		if errors := bv.ValidateQuestionCreate(req); len(errors) > 0 {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: errors.Error()})
			continue
		}

		question := newQuestion(req, importerID)
		question.ImportedBy = &importerID
		questions = append(questions, question)
	}

	result.Failed = len(result.Errors)
	if len(questions) == 0 {
		return result, nil
	}

	err = s.repo.WithTransaction(ctx, func(repo repositories.Repository) error {
		return repo.Question().CreateBatch(ctx, nil, questions)
	})
	if err != nil {
		return nil, persistenceError("import questions", err)
	}

	result.Imported = len(questions)
	s.logger.Info("Questions imported",
		"importer_id", importerID,
		"imported", result.Imported,
		"failed", result.Failed)
	return result, nil
}

func importHeader(row []string) (map[string]int, []string) {
	header := make(map[string]int, len(importColumns))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		for _, column := range importColumns {
			if key == column {
				if _, dup := header[key]; !dup {
					header[key] = i
				}
			}
		}
	}

	var missing []string
	for _, column := range requiredImportColumns {
		if _, ok := header[column]; !ok {
			missing = append(missing, column)
		}
	}
	return header, missing
}

func importRequest(cell func(string) string) (*CreateQuestionRequest, error) {
	req := &CreateQuestionRequest{
		Code:    cell("code"),
		Subject: cell("subject"),
		Content: cell("content"),
		ChoiceA: cell("a"),
		ChoiceB: cell("b"),
		ChoiceC: cell("c"),
		ChoiceD: cell("d"),
		Answer:  cell("answer"),
	}

	if raw := cell("mark"); raw != "" {
		mark, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mark %q", raw)
		}
		req.Mark = mark
	}
	if raw := cell("mix"); raw != "" {
		mix, err := parseImportBool(raw)
		if err != nil {
			return nil, err
		}
		req.Mix = &mix
	}
	if unit := cell("unit"); unit != "" {
		req.Unit = &unit
	}
	if lecturer := cell("lecturer"); lecturer != "" {
		req.Lecturer = &lecturer
	}
	return req, nil
}

func parseImportBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "x":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid mix value %q", raw)
	}
}

func rowEmpty(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
