package enums

import "fmt"

// ScanStatus is the outcome of verifying or redeeming a ticket at the door.
type ScanStatus string

const (
	// ScanStatusValid means the ticket exists, is paid, and has not been used.
	ScanStatusValid ScanStatus = "valid"
	// ScanStatusInvalid means the code matched no paid ticket.
	ScanStatusInvalid ScanStatus = "invalid"
	// ScanStatusAlreadyRedeemed means the ticket was consumed earlier.
	ScanStatusAlreadyRedeemed ScanStatus = "already_redeemed"
	// ScanStatusRedeemed means this request consumed the ticket.
	ScanStatusRedeemed ScanStatus = "redeemed"
)

var validScanStatuses = []ScanStatus{
	ScanStatusValid,
	ScanStatusInvalid,
	ScanStatusAlreadyRedeemed,
	ScanStatusRedeemed,
}

// String implements fmt.Stringer.
func (s ScanStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScanStatus.
func (s ScanStatus) IsValid() bool {
	for _, candidate := range validScanStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScanStatus converts raw input into a ScanStatus.
func ParseScanStatus(value string) (ScanStatus, error) {
	for _, candidate := range validScanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan status %q", value)
}
