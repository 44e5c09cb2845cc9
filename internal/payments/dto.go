package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// RequestView is the read shape of one payment request, joined with its
// bank account.
type RequestView struct {
	ID               string                     `json:"id"`
	OrderID          string                     `json:"order_id"`
	Status           enums.PaymentRequestStatus `json:"status"`
	SentAt           time.Time                  `json:"sent_at"`
	PaidAt           *time.Time                 `json:"paid_at,omitempty"`
	BankAccountID    string                     `json:"bank_account_id"`
	BankHolder       string                     `json:"bank_holder"`
	BankIBAN         string                     `json:"bank_iban"`
	BankBIC          string                     `json:"bank_bic"`
}

// BulkFailure records one order that could not be processed in a bulk send.
// The batch keeps going past failures.
type BulkFailure struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

// BulkResult summarizes a bulk payment request run.
type BulkResult struct {
	Sent     []string      `json:"sent"`
	Failures []BulkFailure `json:"failures"`
}

// PaymentQRView carries the QR image plus the transfer details it encodes.
type PaymentQRView struct {
	PNG        []byte          `json:"png"`
	BankHolder string          `json:"bank_holder"`
	BankIBAN   string          `json:"bank_iban"`
	BankBIC    string          `json:"bank_bic"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
}
