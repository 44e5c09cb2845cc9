package availability

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// Repository defines the read-only queries behind the availability
// projection. Every sum counts pending and paid orders; cancelled and error
// orders release capacity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error)
	FindTier(ctx context.Context, eventID, tierID string) (*models.TicketTier, error)
	FindUserSetting(ctx context.Context, userID uuid.UUID, eventID string) (*models.UserEventSetting, error)
	SumEventTickets(ctx context.Context, eventID string) (int, error)
	SumTierTickets(ctx context.Context, eventID, tierID string) (int, error)
	SumUserTickets(ctx context.Context, eventID string, userID uuid.UUID) (int, error)
}
