package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// ParticipantInput is one attendee on an order as supplied by the buyer.
// Phone and email are optional contact details for the attendee themselves.
type ParticipantInput struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Birthdate string  `json:"birthdate" validate:"required"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// CreateOrderInput describes a new ticket reservation.
type CreateOrderInput struct {
	EventID      string             `json:"event_id" validate:"required"`
	TierID       *string            `json:"tier_id"`
	Quantity     int                `json:"quantity" validate:"required,min=1"`
	Participants []ParticipantInput `json:"participants" validate:"required,dive"`
}

// UpdateOrderInput replaces order fields wholesale. A non-nil Participants
// slice replaces the complete participant list; nil leaves it untouched.
// The user fields propagate to the owning user record when supplied.
type UpdateOrderInput struct {
	Status        *string            `json:"status"`
	Quantity      *int               `json:"quantity"`
	UnitPrice     *decimal.Decimal   `json:"unit_price"`
	Participants  []ParticipantInput `json:"participants"`
	UserFirstName *string            `json:"user_first_name"`
	UserLastName  *string            `json:"user_last_name"`
	UserEmail     *string            `json:"user_email"`
}

// ParticipantView is one attendee with their redemption state.
type ParticipantView struct {
	TicketNumber int        `json:"ticket_number"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Birthdate    string     `json:"birthdate"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Redeemed     bool       `json:"redeemed"`
	RedeemedAt   *time.Time `json:"redeemed_at,omitempty"`
}

// RequestSummary is the slice of a payment request an order listing shows.
type RequestSummary struct {
	ID     string                     `json:"id"`
	Status enums.PaymentRequestStatus `json:"status"`
	SentAt time.Time                  `json:"sent_at"`
	PaidAt *time.Time                 `json:"paid_at,omitempty"`
}

// OrderView is an order row for listings.
type OrderView struct {
	ID               string            `json:"id"`
	EventID          string            `json:"event_id"`
	UserID           uuid.UUID         `json:"user_id"`
	TierID           *string           `json:"tier_id,omitempty"`
	Status           enums.OrderStatus `json:"status"`
	Quantity         int               `json:"quantity"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	PaymentReference string            `json:"payment_reference"`
	TicketsGenerated bool              `json:"tickets_generated"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	ErrorReason      *string           `json:"error_reason,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	LatestRequest    *RequestSummary   `json:"latest_payment_request,omitempty"`
}

// OrderDetailView is a single order with participants and the full payment
// request history, newest first.
type OrderDetailView struct {
	OrderView
	Participants    []ParticipantView `json:"participants"`
	PaymentRequests []RequestSummary  `json:"payment_requests"`
}

// CreateOrderResult is what the buyer gets back after a reservation.
type CreateOrderResult struct {
	OrderID          string          `json:"order_id"`
	PaymentReference string          `json:"payment_reference"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Quantity         int             `json:"quantity"`
}

// StatisticsView aggregates sales numbers for one event or all events.
type StatisticsView struct {
	TicketsPaid       int             `json:"tickets_paid"`
	TicketsReserved   int             `json:"tickets_reserved"`
	TotalTicketsSold  int             `json:"total_tickets_sold"`
	TicketsAvailable  int             `json:"tickets_available"`
	PaidOrders        int             `json:"paid_orders"`
	PendingOrders     int             `json:"pending_orders"`
	RevenueTotal      decimal.Decimal `json:"revenue_total"`
	TotalParticipants int             `json:"total_participants"`
}
