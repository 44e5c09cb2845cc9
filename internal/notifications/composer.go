package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/metrics"
)

// OrderReceivedData feeds the order confirmation mail.
type OrderReceivedData struct {
	RecipientEmail   string
	RecipientName    string
	EventName        string
	OrderID          string
	PaymentReference string
	Quantity         int
	TotalAmount      decimal.Decimal
}

// PaymentRequestData feeds the payment request mail. QRCodePNG is attached
// when present so banking apps can scan the transfer directly.
type PaymentRequestData struct {
	RecipientEmail   string
	RecipientName    string
	EventName        string
	OrderID          string
	PaymentReference string
	Quantity         int
	TotalAmount      decimal.Decimal
	BankHolder       string
	BankName         string
	BankIBAN         string
	BankBIC          string
	QRCodePNG        []byte
}

// Notifier composes and sends the domain mails. All sends are best-effort
// from the caller's point of view; callers log failures and move on.
type Notifier interface {
	OrderReceived(ctx context.Context, data OrderReceivedData) error
	PaymentRequest(ctx context.Context, data PaymentRequestData) error
}

type notifier struct {
	sender  Sender
	metrics *metrics.APIMetrics
	logg    *logger.Logger
}

// NewNotifier builds the mail composer on top of a Sender.
func NewNotifier(sender Sender, apiMetrics *metrics.APIMetrics, logg *logger.Logger) (Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &notifier{sender: sender, metrics: apiMetrics, logg: logg}, nil
}

func (n *notifier) OrderReceived(ctx context.Context, data OrderReceivedData) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hallo %s,</p>", htmlEscape(data.RecipientName))
	b.WriteString("<p>wir haben deine Ticket-Bestellung erhalten:</p>")
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li><strong>Event:</strong> %s</li>", htmlEscape(data.EventName))
	fmt.Fprintf(&b, "<li><strong>Bestellnummer:</strong> %s</li>", htmlEscape(data.PaymentReference))
	fmt.Fprintf(&b, "<li><strong>Anzahl Tickets:</strong> %d</li>", data.Quantity)
	fmt.Fprintf(&b, "<li><strong>Gesamtpreis:</strong> %s&euro;</li>", data.TotalAmount.StringFixed(2))
	b.WriteString("</ul>")
	b.WriteString("<p>Du erh&auml;ltst eine separate Zahlungsaufforderung mit allen Kontodaten.</p>")

	err := n.sender.Send(ctx, Mail{
		To:       data.RecipientEmail,
		Subject:  fmt.Sprintf("Bestellbestätigung - %s", data.EventName),
		HTMLBody: b.String(),
	})
	if err != nil {
		return err
	}
	n.metrics.IncMailSent("order_received")
	return nil
}

func (n *notifier) PaymentRequest(ctx context.Context, data PaymentRequestData) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hallo %s,</p>", htmlEscape(data.RecipientName))
	b.WriteString("<p>hier sind die Zahlungsinformationen f&uuml;r deine Ticket-Bestellung:</p>")
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li><strong>Event:</strong> %s</li>", htmlEscape(data.EventName))
	fmt.Fprintf(&b, "<li><strong>Bestellnummer:</strong> %s</li>", htmlEscape(data.PaymentReference))
	fmt.Fprintf(&b, "<li><strong>Anzahl Tickets:</strong> %d</li>", data.Quantity)
	fmt.Fprintf(&b, "<li><strong>Gesamtpreis:</strong> %s&euro;</li>", data.TotalAmount.StringFixed(2))
	b.WriteString("</ul>")
	b.WriteString("<h4>Bitte &uuml;berweise auf folgendes Konto:</h4>")
	b.WriteString("<ul>")
	fmt.Fprintf(&b, "<li><strong>Empf&auml;nger:</strong> %s</li>", htmlEscape(data.BankHolder))
	if data.BankName != "" {
		fmt.Fprintf(&b, "<li><strong>Bank:</strong> %s</li>", htmlEscape(data.BankName))
	}
	fmt.Fprintf(&b, "<li><strong>IBAN:</strong> %s</li>", htmlEscape(data.BankIBAN))
	fmt.Fprintf(&b, "<li><strong>BIC:</strong> %s</li>", htmlEscape(data.BankBIC))
	fmt.Fprintf(&b, "<li><strong>Verwendungszweck:</strong> <code>%s</code></li>", htmlEscape(data.PaymentReference))
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p><strong>Wichtig:</strong> Bitte verwende unbedingt die Bestellnummer <code>%s</code> als Verwendungszweck!</p>", htmlEscape(data.PaymentReference))
	b.WriteString("<p>Nach Zahlungseingang werden deine Tickets freigeschaltet.</p>")

	mail := Mail{
		To:       data.RecipientEmail,
		Subject:  fmt.Sprintf("Zahlungsaufforderung - %s", data.EventName),
		HTMLBody: b.String(),
	}
	if len(data.QRCodePNG) > 0 {
		mail.Attachments = append(mail.Attachments, Attachment{
			Filename:    fmt.Sprintf("zahlung-%s.png", data.PaymentReference),
			ContentType: "image/png",
			Data:        data.QRCodePNG,
		})
	}
	if err := n.sender.Send(ctx, mail); err != nil {
		return err
	}
	n.metrics.IncMailSent("payment_request")
	return nil
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
)

func htmlEscape(value string) string {
	return htmlEscaper.Replace(value)
}
