package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount receives a percentage share of an event's incoming payments.
// The percentages of all accounts on one event must sum to 100.
type BankAccount struct {
	ID         string          `gorm:"primaryKey;size:12"`
	EventID    string          `gorm:"column:event_id;size:16;not null;index"`
	Holder     string          `gorm:"column:holder;not null"`
	BankName   *string         `gorm:"column:bank_name"`
	IBAN       string          `gorm:"column:iban;not null"`
	BIC        string          `gorm:"column:bic;not null"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	// EscrowDocumentURL points at the signed escrow agreement for this
	// account, when one exists.
	EscrowDocumentURL *string `gorm:"column:escrow_document_url"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
