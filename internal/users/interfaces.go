package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}
