package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// TicketOrder is a reservation of one or more tickets against an event's
// capacity. Pending and paid orders both count toward the limit; cancelled
// orders release it.
type TicketOrder struct {
	ID               string            `gorm:"primaryKey;size:8"`
	EventID          string            `gorm:"column:event_id;size:16;not null;index"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	TierID           *string           `gorm:"column:tier_id;size:12"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending';index"`
	Quantity         int               `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentReference string            `gorm:"column:payment_reference;not null;uniqueIndex"`
	BankAccountID    *string           `gorm:"column:bank_account_id;size:12"`
	PaidAt           *time.Time        `gorm:"column:paid_at"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at"`
	ErrorReason      *string           `gorm:"column:error_reason"`
	TicketsGenerated bool              `gorm:"column:tickets_generated;not null;default:false"`
	GeneratedAt      *time.Time        `gorm:"column:tickets_generated_at"`
	GeneratedBy      *uuid.UUID        `gorm:"column:tickets_generated_by;type:uuid"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
