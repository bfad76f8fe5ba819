package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// UserRepository interface for user lookups (the exam service does not own user data)
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
