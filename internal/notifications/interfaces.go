package notifications

import "context"

// Sender delivers one composed mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, mail Mail) error
}

// Mail is a fully composed outbound message. Attachments are inlined as
// bytes; the QR code on payment requests is the only one we ship.
type Mail struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a named binary part of a mail.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
