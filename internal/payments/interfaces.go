package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// Repository defines persistence operations for payment requests and the
// reads the request lifecycle needs around them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error)
	FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindBankAccount(ctx context.Context, accountID string) (*models.BankAccount, error)
	ListBankAccounts(ctx context.Context, eventID string) ([]models.BankAccount, error)
	CreateRequest(ctx context.Context, request *models.PaymentRequest) error
	FindRequest(ctx context.Context, requestID string) (*models.PaymentRequest, error)
	ListRequests(ctx context.Context, orderID string) ([]models.PaymentRequest, error)
	ListPendingOrdersWithoutRequest(ctx context.Context, eventID string) ([]models.TicketOrder, error)
	UpdateRequest(ctx context.Context, requestID string, updates map[string]any) error
	UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error
}
