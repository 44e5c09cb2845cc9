package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// PresentRow is a redeemed participant joined with their order's reference.
type PresentRow struct {
	OrderID          string
	TicketNumber     int
	FirstName        string
	LastName         string
	PaymentReference string
	RedeemedAt       *time.Time
	RedeemedBy       *uuid.UUID
}

// MissingRow is a paid participant who has not checked in yet.
type MissingRow struct {
	OrderID          string
	TicketNumber     int
	FirstName        string
	LastName         string
	PaymentReference string
}

// Repository defines persistence operations for ticket issuance and door
// check-in.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error)
	FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error)
	ListPaidOrdersWithoutTickets(ctx context.Context, eventID string) ([]models.TicketOrder, error)
	UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error

	FindParticipant(ctx context.Context, orderID string, ticketNumber int) (*models.Participant, error)
	RedeemParticipant(ctx context.Context, orderID string, ticketNumber int, at time.Time, by uuid.UUID) (bool, error)
	ClearRedemption(ctx context.Context, orderID string, ticketNumber int) error
	LastRedemptionBy(ctx context.Context, operator uuid.UUID) (*models.Participant, error)
	UpdateParticipantBirthdate(ctx context.Context, orderID string, ticketNumber int, birthdate string) error
	CreateAuditLog(ctx context.Context, entry *models.BirthdateAuditLog) error

	CountPaidParticipants(ctx context.Context, eventID *string) (int, error)
	CountRedeemed(ctx context.Context, eventID *string) (int, error)
	ListRedeemedSince(ctx context.Context, eventID *string, since time.Time) ([]time.Time, error)
	ListPresent(ctx context.Context, eventID *string) ([]PresentRow, error)
	ListMissing(ctx context.Context, eventID *string) ([]MissingRow, error)
}
