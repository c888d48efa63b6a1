package infrastructure

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	MailProviderNone     = "none"
	MailProviderSendGrid = "sendgrid"
	MailProviderResend   = "resend"
)

type MailOptions struct {
	Provider string
	APIKey   string
	Sender   string
}

// MailService sends transactional mail through SendGrid or Resend.
type MailService struct {
	provider string
	sender   string
	resend   *resend.Client
	sendgrid *sendgrid.Client
	logger   *zap.Logger
}

func NewMailService(opts MailOptions, logger *zap.Logger) (*MailService, error) {
	m := &MailService{provider: opts.Provider, sender: opts.Sender, logger: logger}
	switch opts.Provider {
	case MailProviderNone, "":
		m.provider = MailProviderNone
	case MailProviderResend:
		m.resend = resend.NewClient(opts.APIKey)
	case MailProviderSendGrid:
		m.sendgrid = sendgrid.NewSendClient(opts.APIKey)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", opts.Provider)
	}

	logger.Info("Mail service configured",
		zap.String("provider", m.provider),
		zap.String("sender", opts.Sender),
		zap.String("api_key", maskKey(opts.APIKey)))
	return m, nil
}

func (m *MailService) Enabled() bool {
	return m != nil && m.provider != MailProviderNone
}

func (m *MailService) SendWelcome(ctx context.Context, recipientEmail, name string) error {
	subject := "Welcome to GreenMap"
	text := fmt.Sprintf("Hi %s,\n\nyour account is ready. Start mapping the plants around you!", name)
	html := fmt.Sprintf("<p>Hi <strong>%s</strong>,</p><p>your account is ready. Start mapping the plants around you!</p>", name)
	return m.send(ctx, recipientEmail, subject, text, html)
}

func (m *MailService) send(ctx context.Context, recipientEmail, subject, text, html string) error {
	switch m.provider {
	case MailProviderResend:
		params := &resend.SendEmailRequest{
			From:    m.sender,
			To:      []string{recipientEmail},
			Subject: subject,
			Text:    text,
			Html:    html,
		}
		response, err := m.resend.Emails.SendWithContext(ctx, params)
		if err != nil {
			return fmt.Errorf("resend: %w", err)
		}
		m.logger.Debug("Email sent", zap.String("provider", m.provider), zap.String("id", response.Id))
	case MailProviderSendGrid:
		from := mail.NewEmail("GreenMap", m.sender)
		to := mail.NewEmail("", recipientEmail)
		message := mail.NewSingleEmail(from, subject, to, text, html)
		response, err := m.sendgrid.SendWithContext(ctx, message)
		if err != nil {
			return fmt.Errorf("sendgrid: %w", err)
		}
		if response.StatusCode >= 300 {
			return fmt.Errorf("sendgrid: status %d", response.StatusCode)
		}
		m.logger.Debug("Email sent", zap.String("provider", m.provider), zap.Int("status", response.StatusCode))
	}
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return ""
	}
	return key[:4] + "****" + key[len(key)-4:]
}
