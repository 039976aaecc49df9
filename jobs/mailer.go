package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/hibiken/asynq"
	"gopkg.in/gomail.v2"

	jobmetrics "github.com/atlas-iam/atlas-iam/internal/jobs"
)

// Message bodies keyed by template name. Placeholders come from the task
// payload's data map.
var mailTemplates = map[string]string{
	"welcome": "Hello {{.Name}},\n\nYour account has been created. Verify your email address to activate it.\n",
	"account_activated": "Hello {{.Name}},\n\nYour account is now active.\n",
	"account_suspended": "Hello {{.Name}},\n\nYour account has been suspended. Contact support if you believe this is a mistake.\n",
}

// MailerConfig collects SMTP settings for the Mailer.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer renders and delivers queued mail tasks over SMTP.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
	templates map[string]*template.Template
}

// NewMailer constructs a Mailer. Template parse failures are programming
// errors and surface at startup.
func NewMailer(cfg MailerConfig, logger *slog.Logger, metrics *jobmetrics.Metrics) (*Mailer, error) {
	parsed := make(map[string]*template.Template, len(mailTemplates))
	for name, body := range mailTemplates {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("jobs: parse template %s: %w", name, err)
		}
		parsed[name] = tmpl
	}
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		logger:    logger,
		metrics:   metrics,
		templates: parsed,
	}, nil
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	tracker := m.metrics.Track("mail_send")

	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	body, err := m.render(payload)
	if err != nil {
		// Unknown template or bad data will not heal on retry.
		if m.logger != nil {
			m.logger.Error("render mail", slog.Any("error", err))
		}
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", payload.To)
	msg.SetHeader("Subject", payload.Subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return tracker.End(fmt.Errorf("jobs: send mail: %w", err))
	}
	if m.logger != nil {
		m.logger.Info("mail delivered", slog.String("to", payload.To), slog.String("template", payload.Template))
	}
	return tracker.End(nil)
}

func (m *Mailer) render(payload SendEmailPayload) (string, error) {
	tmpl, ok := m.templates[payload.Template]
	if !ok {
		return "", fmt.Errorf("jobs: unknown mail template %q", payload.Template)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload.Data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
