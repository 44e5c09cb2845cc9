package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketTier is an optional named price category within an event. When an
// order names a tier, the tier price wins over the event default.
type TicketTier struct {
	ID          string          `gorm:"primaryKey;size:12"`
	EventID     string          `gorm:"column:event_id;size:16;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Description *string         `gorm:"column:description"`
	MaxTickets  *int            `gorm:"column:max_tickets"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
