package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one attendee on an order, addressed by the composite key
// (order_id, ticket_number). Ticket numbers start at 1 within each order.
// Birthdates are stored as YYYY-MM-DD strings; the door staff only ever
// compares them, never computes with them.
type Participant struct {
	OrderID      string     `gorm:"column:order_id;size:8;primaryKey"`
	TicketNumber int        `gorm:"column:ticket_number;primaryKey"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Birthdate    string     `gorm:"column:birthdate;size:10;not null"`
	Phone        *string    `gorm:"column:phone"`
	Email        *string    `gorm:"column:email"`
	Redeemed     bool       `gorm:"column:redeemed;not null;default:false"`
	RedeemedAt   *time.Time `gorm:"column:redeemed_at"`
	RedeemedBy   *uuid.UUID `gorm:"column:redeemed_by;type:uuid"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
