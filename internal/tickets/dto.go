package tickets

import (
	"time"

	"github.com/google/uuid"

	"github.com/abiball/abiball-backend/pkg/enums"
)

// AgeStatus classifies a participant relative to the event date.
const (
	AgeStatusAdult = "adult"
	AgeStatusMinor = "minor"
)

// BulkFailure is one order that could not be processed during a bulk run.
type BulkFailure struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

// BulkResult collects the outcome of a bulk ticket generation.
type BulkResult struct {
	Generated []string      `json:"generated"`
	Failures  []BulkFailure `json:"failures"`
}

// qrPayload is the JSON blob embedded in each ticket's QR code. The
// verification hash binds order, ticket number and security id together;
// the participant name is display data and deliberately outside the hash.
type qrPayload struct {
	OrderID          string `json:"order_id"`
	TicketNumber     int    `json:"ticket_number"`
	ParticipantName  string `json:"participant_name"`
	Event            string `json:"event"`
	SecurityID       string `json:"security_id"`
	VerificationHash string `json:"verification_hash"`
}

// TicketDocument is everything a renderer needs for one printable ticket.
type TicketDocument struct {
	OrderID          string `json:"order_id"`
	TicketNumber     int    `json:"ticket_number"`
	ParticipantName  string `json:"participant_name"`
	Birthdate        string `json:"birthdate"`
	EventName        string `json:"event_name"`
	SecurityID       string `json:"security_id"`
	VerificationHash string `json:"verification_hash"`
	QRPayload        string `json:"qr_payload"`
	QRPNG            []byte `json:"-"`
}

// ScanResult is the outcome of verifying a scanned code.
type ScanResult struct {
	Status          enums.ScanStatus `json:"status"`
	Reason          string           `json:"reason,omitempty"`
	OrderID         string           `json:"order_id,omitempty"`
	TicketNumber    int              `json:"ticket_number,omitempty"`
	ParticipantName string           `json:"participant_name,omitempty"`
	Birthdate       string           `json:"birthdate,omitempty"`
	AgeStatus       string           `json:"age_status,omitempty"`
	RedeemedAt      *time.Time       `json:"redeemed_at,omitempty"`
	RedeemedBy      *uuid.UUID       `json:"redeemed_by,omitempty"`
}

// LiveStats is the dashboard aggregate for the door.
type LiveStats struct {
	Total          int            `json:"total"`
	CheckedIn      int            `json:"checked_in"`
	NotCheckedIn   int            `json:"not_checked_in"`
	ScansLastMin   int            `json:"scans_last_minute"`
	HourlyArrivals map[string]int `json:"hourly_arrivals"`
}

// LivePresent is one checked-in attendee for the live list.
type LivePresent struct {
	OrderID          string     `json:"order_id"`
	TicketNumber     int        `json:"ticket_number"`
	Name             string     `json:"name"`
	PaymentReference string     `json:"payment_reference"`
	RedeemedAt       *time.Time `json:"redeemed_at,omitempty"`
}

// LiveMissing is one paid attendee who has not checked in.
type LiveMissing struct {
	OrderID          string `json:"order_id"`
	TicketNumber     int    `json:"ticket_number"`
	Name             string `json:"name"`
	PaymentReference string `json:"payment_reference"`
}

// LiveList pairs present and missing attendees.
type LiveList struct {
	Present []LivePresent `json:"present"`
	Missing []LiveMissing `json:"missing"`
}
