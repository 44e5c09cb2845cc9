package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserEventSetting overrides event-level ordering rules for a single user,
// e.g. a raised ticket allowance for an organizer buying for a whole table.
type UserEventSetting struct {
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;primaryKey"`
	EventID     string           `gorm:"column:event_id;size:16;primaryKey"`
	MaxTickets  *int             `gorm:"column:max_tickets"`
	TicketPrice *decimal.Decimal `gorm:"column:ticket_price;type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
