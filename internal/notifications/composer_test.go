package notifications

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiball/abiball-backend/pkg/logger"
)

type captureSender struct {
	mails []Mail
	err   error
}

func (c *captureSender) Send(ctx context.Context, mail Mail) error {
	if c.err != nil {
		return c.err
	}
	c.mails = append(c.mails, mail)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
}

func TestOrderReceivedMail(t *testing.T) {
	sender := &captureSender{}
	notifier, err := NewNotifier(sender, nil, testLogger())
	require.NoError(t, err)

	err = notifier.OrderReceived(context.Background(), OrderReceivedData{
		RecipientEmail:   "max@example.com",
		RecipientName:    "Max Mustermann",
		EventName:        "Abiball 2026",
		OrderID:          "ORDER001",
		PaymentReference: "MAX001",
		Quantity:         2,
		TotalAmount:      decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	require.Len(t, sender.mails, 1)
	mail := sender.mails[0]
	assert.Equal(t, "max@example.com", mail.To)
	assert.Contains(t, mail.Subject, "Abiball 2026")
	assert.Contains(t, mail.HTMLBody, "MAX001")
	assert.Contains(t, mail.HTMLBody, "100.00")
	assert.Empty(t, mail.Attachments)
}

func TestPaymentRequestMailAttachesQR(t *testing.T) {
	sender := &captureSender{}
	notifier, err := NewNotifier(sender, nil, testLogger())
	require.NoError(t, err)

	err = notifier.PaymentRequest(context.Background(), PaymentRequestData{
		RecipientEmail:   "max@example.com",
		RecipientName:    "Max Mustermann",
		EventName:        "Abiball 2026",
		OrderID:          "ORDER001",
		PaymentReference: "MAX001",
		Quantity:         2,
		TotalAmount:      decimal.NewFromFloat(130.50),
		BankHolder:       "Abikasse 2026",
		BankIBAN:         "DE02500105170137075030",
		BankBIC:          "INGDDEFF",
		QRCodePNG:        []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)

	require.Len(t, sender.mails, 1)
	mail := sender.mails[0]
	assert.Contains(t, mail.HTMLBody, "DE02500105170137075030")
	assert.Contains(t, mail.HTMLBody, "130.50")
	require.Len(t, mail.Attachments, 1)
	assert.Equal(t, "image/png", mail.Attachments[0].ContentType)
}

func TestPaymentRequestMailEscapesNames(t *testing.T) {
	sender := &captureSender{}
	notifier, err := NewNotifier(sender, nil, testLogger())
	require.NoError(t, err)

	err = notifier.OrderReceived(context.Background(), OrderReceivedData{
		RecipientEmail: "max@example.com",
		RecipientName:  `<script>alert("x")</script>`,
		EventName:      "Abiball",
		TotalAmount:    decimal.Zero,
	})
	require.NoError(t, err)
	assert.NotContains(t, sender.mails[0].HTMLBody, "<script>")
}
