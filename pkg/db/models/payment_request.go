package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// PaymentRequest records a reminder mail sent for an unpaid order. Marking
// the order paid flips every open request to paid as well.
type PaymentRequest struct {
	ID            string                     `gorm:"primaryKey;size:12"`
	OrderID       string                     `gorm:"column:order_id;size:8;not null;index"`
	BankAccountID string                     `gorm:"column:bank_account_id;size:12;not null"`
	Status        enums.PaymentRequestStatus `gorm:"column:status;not null;default:'sent'"`
	SentBy        uuid.UUID                  `gorm:"column:sent_by;type:uuid;not null"`
	SentAt        time.Time                  `gorm:"column:sent_at;not null"`
	PaidAt        *time.Time                 `gorm:"column:paid_at"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
