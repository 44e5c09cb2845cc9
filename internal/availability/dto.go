package availability

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Query scopes an availability computation. TierID and UserID are optional;
// without a user only the event-wide numbers are meaningful.
type Query struct {
	EventID string
	TierID  *string
	UserID  *uuid.UUID
}

// Result is the availability projection for one event (and optionally one
// tier and one user).
type Result struct {
	EventSold      int             `json:"event_sold"`
	EventRemaining int             `json:"event_remaining"`
	MaxTickets     int             `json:"max_tickets"`
	TierSold       *int            `json:"tier_sold,omitempty"`
	TierRemaining  *int            `json:"tier_remaining,omitempty"`
	UserCurrent    int             `json:"user_current"`
	UserRemaining  int             `json:"user_remaining"`
	EffectiveLimit int             `json:"effective_limit"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	MaxOrder       int             `json:"max_order"`
	Blocked        bool            `json:"blocked"`
}
