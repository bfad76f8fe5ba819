package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

// ownerOrAdmin allows the creator of a resource and administrators
func ownerOrAdmin(ctx context.Context, users repositories.UserRepository, ownerID, userID string) (bool, error) {
	if ownerID == userID {
		return true, nil
	}
	isAdmin, err := users.HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return isAdmin, nil
}

// publishEvent never fails the calling operation; the change is already committed
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data interface{}) {
	if publisher == nil {
		return
	}
	event := events.NewEvent(eventType, data)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event",
			"error", err,
			"event_type", eventType,
			"event_id", event.ID)
	}
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit > 100:
		return 100
	default:
		return limit
	}
}
