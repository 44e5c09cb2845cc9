package models

import (
	"time"

	"github.com/google/uuid"
)

// BirthdateAuditLog is an append-only record of birthdate corrections made
// at the door. Entries are written in the same transaction as the change.
type BirthdateAuditLog struct {
	ID           string    `gorm:"primaryKey;size:16"`
	OrderID      string    `gorm:"column:order_id;size:8;not null;index"`
	TicketNumber int       `gorm:"column:ticket_number;not null"`
	OldBirthdate string    `gorm:"column:old_birthdate;size:10;not null"`
	NewBirthdate string    `gorm:"column:new_birthdate;size:10;not null"`
	Reason       string    `gorm:"column:reason;not null"`
	ChangedBy    uuid.UUID `gorm:"column:changed_by;type:uuid;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
