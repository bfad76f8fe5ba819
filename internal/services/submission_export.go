package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

const (
	exportSheet    = "Results"
	exportPageSize = 500
)

var exportHeader = []interface{}{
	"Submission ID", "Student ID", "Student Name", "Email", "Attempt",
	"Status", "Score", "Max Score", "Percentage", "Started At", "Submitted At", "Late",
}

// ExportResults writes one row per attempt of the schedule lineage
func (s *submissionService) ExportResults(ctx context.Context, scheduleID uint, w io.Writer) error {
	s.logger.Info("Exporting results", "schedule_id", scheduleID)

	version, err := s.schedules.GetVersion(ctx, scheduleID)
	if err != nil {
		return err
	}

	var submissions []*models.Submission
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.repo.Submission().List(ctx, nil, repositories.SubmissionFilters{
			LineageID: &version.LineageID,
			Limit:     exportPageSize,
			Offset:    offset,
		})
		if err != nil {
			return persistenceError("list submissions", err)
		}
		submissions = append(submissions, page...)
		if len(page) == 0 || int64(len(submissions)) >= total {
			break
		}
	}

	users := s.lookupUsers(ctx, submissions)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, submission := range submissions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := exportRow(submission, users[submission.StudentID])
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Results exported", "schedule_id", scheduleID, "rows", len(submissions))
	return nil
}

// lookupUsers resolves display names; an unavailable identity provider only
// leaves the name columns empty
func (s *submissionService) lookupUsers(ctx context.Context, submissions []*models.Submission) map[string]*models.User {
	seen := make(map[string]bool)
	var ids []string
	for _, submission := range submissions {
		if !seen[submission.StudentID] {
			seen[submission.StudentID] = true
			ids = append(ids, submission.StudentID)
		}
	}

	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve student names for export", "error", err)
		return out
	}
	for _, user := range users {
		out[user.ID] = user
	}
	return out
}

func exportRow(submission *models.Submission, user *models.User) []interface{} {
	var name, email string
	if user != nil {
		name = user.FullName
		if name == "" {
			name = user.Name
		}
		email = user.Email
	}

	var score, maxScore, percentage interface{}
	if submission.Score != nil && submission.MaxScore != nil {
		score, maxScore = *submission.Score, *submission.MaxScore
		percentage = (&ScoreResult{Score: *submission.Score, MaxScore: *submission.MaxScore}).Percentage()
	}

	var submittedAt interface{}
	if submission.SubmittedAt != nil {
		submittedAt = submission.SubmittedAt.UTC().Format(time.RFC3339)
	}

	return []interface{}{
		submission.ID,
		submission.StudentID,
		name,
		email,
		submission.AttemptNumber,
		string(submission.Status),
		score,
		maxScore,
		percentage,
		submission.StartedAt.UTC().Format(time.RFC3339),
		submittedAt,
		submission.IsLate,
	}
}
