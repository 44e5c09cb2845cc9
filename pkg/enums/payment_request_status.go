package enums

import "fmt"

// PaymentRequestStatus records whether a payment reminder has been answered.
type PaymentRequestStatus string

const (
	PaymentRequestStatusSent PaymentRequestStatus = "sent"
	PaymentRequestStatusPaid PaymentRequestStatus = "paid"
)

var validPaymentRequestStatuses = []PaymentRequestStatus{
	PaymentRequestStatusSent,
	PaymentRequestStatusPaid,
}

// String implements fmt.Stringer.
func (s PaymentRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentRequestStatus.
func (s PaymentRequestStatus) IsValid() bool {
	for _, candidate := range validPaymentRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentRequestStatus converts raw input into a PaymentRequestStatus.
func ParsePaymentRequestStatus(value string) (PaymentRequestStatus, error) {
	for _, candidate := range validPaymentRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment request status %q", value)
}
