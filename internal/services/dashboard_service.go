package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		logger: logger,
	}
}

func (s *dashboardService) Overview(ctx context.Context) (*DashboardOverview, error) {
	s.logger.Info("Getting dashboard overview")

	totals, err := s.repo.Dashboard().GetTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	subjects, err := s.repo.Dashboard().GetQuestionsPerSubject(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions per subject: %w", err)
	}

	return &DashboardOverview{Totals: totals, Subjects: subjects}, nil
}

// ScheduleStats aggregates every attempt of the schedule lineage; any version id works
func (s *dashboardService) ScheduleStats(ctx context.Context, scheduleID uint) (*repositories.ScheduleStats, error) {
	version, err := s.repo.Schedule().GetByIDUnscoped(ctx, nil, scheduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	stats, err := s.repo.Dashboard().GetScheduleStats(ctx, nil, version.LineageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule stats: %w", err)
	}
	return stats, nil
}
