package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// CreateEventInput carries the fields accepted when creating an event.
// Zero-valued optionals fall back to the configured defaults.
type CreateEventInput struct {
	Name           string
	Year           int
	Location       *string
	Description    *string
	EventDate      time.Time
	Visibility     string
	Password       string
	MaxTickets     *int
	TicketPrice    *decimal.Decimal
	TicketsPerUser *int
	SalesEnabled   *bool
	SaleStart      *time.Time
	SaleEnd        *time.Time
}

// UpdateEventInput is a field-wise patch; nil fields are left untouched.
type UpdateEventInput struct {
	Name           *string
	Year           *int
	Location       *string
	Description    *string
	EventDate      *time.Time
	Visibility     *string
	Password       *string
	MaxTickets     *int
	TicketPrice    *decimal.Decimal
	TicketsPerUser *int
	SalesEnabled   *bool
	SaleStart      *time.Time
	SaleEnd        *time.Time
	Active         *bool
}

// TierInput is one replacement tier in a ReplaceTiers call. A nil MaxTickets
// leaves the tier uncapped.
type TierInput struct {
	Name        string
	Price       decimal.Decimal
	Description *string
	MaxTickets  *int
}

// TierView is what buyers see. When an event has no tiers, a synthetic
// "Standard" tier at the event base price is returned instead.
type TierView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	MaxTickets  *int            `json:"max_tickets,omitempty"`
}

// BankAccountInput is one replacement account in a ReplaceBankAccounts call.
// Percentages across the batch must sum to 100.
type BankAccountInput struct {
	Holder            string
	BankName          *string
	IBAN              string
	BIC               string
	Percentage        decimal.Decimal
	EscrowDocumentURL *string
}

// UserOverrideInput sets a per-user price and/or allowance for an event.
// Both nil removes the override entirely.
type UserOverrideInput struct {
	MaxTickets  *int
	TicketPrice *decimal.Decimal
}

// EventView is the read shape returned to clients. The password hash never
// leaves the service.
type EventView struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Year           int                   `json:"year"`
	Location       *string               `json:"location,omitempty"`
	Description    *string               `json:"description,omitempty"`
	EventDate      time.Time             `json:"event_date"`
	Visibility     enums.EventVisibility `json:"visibility"`
	MaxTickets     int                   `json:"max_tickets"`
	TicketPrice    decimal.Decimal       `json:"ticket_price"`
	TicketsPerUser *int                  `json:"tickets_per_user,omitempty"`
	SalesEnabled   bool                  `json:"sales_enabled"`
	SaleStart      *time.Time            `json:"sale_start,omitempty"`
	SaleEnd        *time.Time            `json:"sale_end,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}
