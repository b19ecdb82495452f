package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig holds connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     Address
}

// SMTPMailer sends messages through a plain SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer builds an SMTP backed mailer.
func NewSMTPMailer(cfg SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers the message. Without credentials configured the message
// is logged instead of sent, which keeps development environments quiet.
func (m *SMTPMailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	if m.cfg.Username == "" || m.cfg.Password == "" {
		m.logger.Warn("smtp credentials not configured, message not sent",
			zap.String("subject", msg.Subject),
			zap.Int("recipients", len(msg.To)))
		return nil
	}

	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.Email)
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.cfg.From.Name, m.cfg.From.Email))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTMLContent != "" {
		body.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		body.WriteString(msg.HTMLContent)
	} else {
		body.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		body.WriteString(msg.TextContent)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From.Email, recipients, []byte(body.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
