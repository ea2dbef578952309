// internal/workers/notification_processor_test.go
package workers_test

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/keuringen-be/internal/pkg/config"
	"github.com/ammerola/keuringen-be/internal/pkg/logger"
	"github.com/ammerola/keuringen-be/internal/workers"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
	"github.com/ammerola/keuringen-be/test/helpers"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func emailTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := tasks.NewEmailTask(tasks.EmailPayload{
		To:      "an@immonoord.be",
		Subject: "Wachtwoord opnieuw instellen",
		Body:    "Klik op de link.\nDe link is 30 minuten geldig.",
	})
	require.NoError(t, err)
	return task
}

func TestNotificationProcessor_SendEmail(t *testing.T) {
	t.Run("without relay only logs", func(t *testing.T) {
		called := false
		p := workers.NewNotificationProcessor(config.MailConfig{From: "noreply@keuringen.be"},
			func(string, smtp.Auth, string, []string, []byte) error {
				called = true
				return nil
			}, helpers.TestLogger())

		require.NoError(t, p.SendEmail(context.Background(), emailTask(t)))
		assert.False(t, called)
	})

	t.Run("body stays out of info logs", func(t *testing.T) {
		for _, tt := range []struct {
			level    string
			wantBody bool
		}{
			{level: "info", wantBody: false},
			{level: "debug", wantBody: true},
		} {
			var buf bytes.Buffer
			log := logger.NewLogger(&buf, &logger.LogConfig{Level: tt.level, Format: "json"})
			p := workers.NewNotificationProcessor(config.MailConfig{}, nil, log)

			require.NoError(t, p.SendEmail(context.Background(), emailTask(t)))

			out := buf.String()
			assert.Contains(t, out, "Wachtwoord opnieuw instellen", tt.level)
			assert.Equal(t, tt.wantBody, strings.Contains(out, "minuten geldig"), tt.level)
		}
	})

	t.Run("sends through the relay", func(t *testing.T) {
		var sent sentMail
		cfg := config.MailConfig{
			SMTPHost:     "smtp.keuringen.be",
			SMTPPort:     "587",
			SMTPUser:     "mailer",
			SMTPPassword: "pw",
			From:         "noreply@keuringen.be",
		}
		p := workers.NewNotificationProcessor(cfg,
			func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
				sent = sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
				return nil
			}, helpers.TestLogger())

		require.NoError(t, p.SendEmail(context.Background(), emailTask(t)))

		assert.Equal(t, "smtp.keuringen.be:587", sent.addr)
		assert.NotNil(t, sent.auth)
		assert.Equal(t, "noreply@keuringen.be", sent.from)
		assert.Equal(t, []string{"an@immonoord.be"}, sent.to)
		assert.Contains(t, sent.msg, "Subject: Wachtwoord opnieuw instellen\r\n")
		assert.Contains(t, sent.msg, "Content-Type: text/plain; charset=UTF-8\r\n")
		assert.Contains(t, sent.msg, "Klik op de link.\r\nDe link is 30 minuten geldig.")
	})

	t.Run("relay without credentials skips auth", func(t *testing.T) {
		var auth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
		p := workers.NewNotificationProcessor(config.MailConfig{SMTPHost: "localhost", SMTPPort: "25"},
			func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
				auth = a
				return nil
			}, helpers.TestLogger())

		require.NoError(t, p.SendEmail(context.Background(), emailTask(t)))
		assert.Nil(t, auth)
	})

	t.Run("relay failure is retried", func(t *testing.T) {
		p := workers.NewNotificationProcessor(config.MailConfig{SMTPHost: "localhost", SMTPPort: "25"},
			func(string, smtp.Auth, string, []string, []byte) error {
				return errors.New("connection refused")
			}, helpers.TestLogger())

		err := p.SendEmail(context.Background(), emailTask(t))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("bad payloads are not retried", func(t *testing.T) {
		p := workers.NewNotificationProcessor(config.MailConfig{}, nil, helpers.TestLogger())

		for _, payload := range []string{"{", `{"subject":"x"}`} {
			err := p.SendEmail(context.Background(), asynq.NewTask(tasks.TypeSendEmail, []byte(payload)))
			assert.ErrorIs(t, err, asynq.SkipRetry, payload)
		}
	})
}
