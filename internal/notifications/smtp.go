package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/abiball/abiball-backend/pkg/config"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
)

type smtpSender struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
}

// NewSMTPSender builds a Sender backed by the configured SMTP relay. When
// SMTP is not configured it returns a sender that logs and drops every mail,
// which keeps local development working without a relay.
func NewSMTPSender(cfg config.SMTPConfig, logg *logger.Logger) Sender {
	if !cfg.Enabled() {
		return &noopSender{logg: logg}
	}
	return &smtpSender{cfg: cfg, logg: logg}
}

func (s *smtpSender) Send(ctx context.Context, mail Mail) error {
	if mail.To == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mail recipient required")
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	msg := mailyak.New(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), auth)
	msg.To(mail.To)
	msg.From(s.cfg.From)
	msg.FromName(s.cfg.FromName)
	msg.Subject(mail.Subject)
	msg.HTML().Set(mail.HTMLBody)
	for _, attachment := range mail.Attachments {
		msg.AttachWithMimeType(attachment.Filename, bytes.NewReader(attachment.Data), attachment.ContentType)
	}

	if err := msg.Send(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send mail")
	}
	s.logg.Info(s.logg.WithField(ctx, "mail_to", mail.To), "mail sent")
	return nil
}

type noopSender struct {
	logg *logger.Logger
}

func (s *noopSender) Send(ctx context.Context, mail Mail) error {
	s.logg.Warn(s.logg.WithField(ctx, "mail_subject", mail.Subject), "smtp not configured, mail dropped")
	return nil
}
