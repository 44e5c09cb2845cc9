package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GuestRow is one line of the guest list export: a participant of a paid
// order together with their buyer's contact data.
type GuestRow struct {
	FirstName        string
	LastName         string
	TicketNumber     int
	BuyerEmail       string
	BuyerFirstName   string
	BuyerLastName    string
	PaymentReference string
	OrderedAt        time.Time
	UnitPrice        decimal.Decimal
}

// OrderRow is one line of the order summary export.
type OrderRow struct {
	OrderID          string
	BuyerEmail       string
	BuyerFirstName   string
	BuyerLastName    string
	Status           string
	Quantity         int
	TotalAmount      decimal.Decimal
	PaymentReference string
	OrderedAt        time.Time
	PaidAt           *time.Time
}

// Repository reads the joined rows the exports are built from.
type Repository interface {
	EventExists(ctx context.Context, eventID string) (bool, error)
	ListGuestRows(ctx context.Context, eventID string) ([]GuestRow, error)
	ListOrderRows(ctx context.Context, eventID string) ([]OrderRow, error)
}
