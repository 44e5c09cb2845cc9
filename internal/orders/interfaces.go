package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// Repository defines persistence operations for ticket orders, their
// participants, and the aggregates the lifecycle checks need.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error)
	FindTier(ctx context.Context, eventID, tierID string) (*models.TicketTier, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)

	CreateOrder(ctx context.Context, order *models.TicketOrder) error
	CreateParticipants(ctx context.Context, participants []models.Participant) error
	FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error)
	FindOrderByReference(ctx context.Context, reference string) (*models.TicketOrder, error)
	ListOrders(ctx context.Context, eventID *string) ([]models.TicketOrder, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.TicketOrder, error)
	ListParticipants(ctx context.Context, orderID string) ([]models.Participant, error)
	UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error
	DeleteOrder(ctx context.Context, orderID string) error
	DeleteParticipants(ctx context.Context, orderID string) error

	CountUserOrders(ctx context.Context, eventID string, userID uuid.UUID) (int, error)
	SumEventTickets(ctx context.Context, eventID string) (int, error)
	SumTierTickets(ctx context.Context, eventID, tierID string) (int, error)
	SumUserTickets(ctx context.Context, eventID string, userID uuid.UUID) (int, error)

	LatestRequest(ctx context.Context, orderID string) (*models.PaymentRequest, error)
	ListRequests(ctx context.Context, orderID string) ([]models.PaymentRequest, error)
	UpdateOrderRequests(ctx context.Context, orderID string, updates map[string]any) error

	UpdateUser(ctx context.Context, userID uuid.UUID, updates map[string]any) error

	Statistics(ctx context.Context, eventID *string) (*StatisticsView, error)
}
