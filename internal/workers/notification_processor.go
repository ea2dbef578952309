// internal/workers/notification_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/ammerola/keuringen-be/internal/pkg/config"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
)

// SendMailFunc matches smtp.SendMail
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationProcessor handles email notifications
type NotificationProcessor struct {
	config   config.MailConfig
	sendMail SendMailFunc
	logger   *slog.Logger
}

// NewNotificationProcessor creates a new notification processor. A nil
// send uses smtp.SendMail.
func NewNotificationProcessor(cfg config.MailConfig, send SendMailFunc, logger *slog.Logger) *NotificationProcessor {
	if send == nil {
		send = smtp.SendMail
	}
	return &NotificationProcessor{
		config:   cfg,
		sendMail: send,
		logger:   logger.With(slog.String("processor", "notification")),
	}
}

// SendEmail handles tasks.TypeSendEmail
func (p *NotificationProcessor) SendEmail(ctx context.Context, t *asynq.Task) error {
	var payload tasks.EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email without recipient: %w", asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "sending email",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject))

	// Without a relay the mail is only logged; the body carries reset links
	// and is logged at debug only
	if p.config.SMTPHost == "" {
		p.logger.InfoContext(ctx, "email would be sent",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		p.logger.DebugContext(ctx, "email body", slog.String("body", payload.Body))
		return nil
	}

	var auth smtp.Auth
	if p.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.config.SMTPUser, p.config.SMTPPassword, p.config.SMTPHost)
	}

	addr := net.JoinHostPort(p.config.SMTPHost, p.config.SMTPPort)
	if err := p.sendMail(addr, auth, p.config.From, []string{payload.To}, buildMessage(p.config.From, payload)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	p.logger.InfoContext(ctx, "email sent successfully", slog.String("to", payload.To))
	return nil
}

func buildMessage(from string, p tasks.EmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", p.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", p.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(p.Body, "\n", "\r\n"))
	return []byte(b.String())
}
