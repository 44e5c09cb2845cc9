package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// Event is a single ball with its capacity and ordering rules. Events are
// never hard-deleted; deactivation hides them while keeping every order and
// ticket reachable.
type Event struct {
	ID             string                `gorm:"primaryKey;size:16"`
	Name           string                `gorm:"column:name;not null"`
	Year           int                   `gorm:"column:year;not null"`
	EventDate      time.Time             `gorm:"column:event_date;not null;index"`
	Location       *string               `gorm:"column:location"`
	Description    *string               `gorm:"column:description"`
	Visibility     enums.EventVisibility `gorm:"column:visibility;not null;default:'public'"`
	PasswordHash   *string               `gorm:"column:password_hash"`
	MaxTickets     int                   `gorm:"column:max_tickets;not null"`
	TicketPrice    decimal.Decimal       `gorm:"column:ticket_price;type:numeric(12,2);not null"`
	TicketsPerUser *int                  `gorm:"column:tickets_per_user"`
	SalesEnabled   bool                  `gorm:"column:sales_enabled;not null;default:true"`
	SaleStart      *time.Time            `gorm:"column:sale_start"`
	SaleEnd        *time.Time            `gorm:"column:sale_end"`
	CreatedBy      uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	Active         bool                  `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
