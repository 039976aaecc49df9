package jobs

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	jobmetrics "github.com/atlas-iam/atlas-iam/internal/jobs"
)

func newTestMailer(t *testing.T) *Mailer {
	t.Helper()
	m, err := NewMailer(MailerConfig{
		Host: "localhost",
		Port: 1025,
		From: "noreply@atlas.local",
	}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	return m
}

func TestRenderKnownTemplates(t *testing.T) {
	m := newTestMailer(t)

	for _, name := range []string{"welcome", "account_activated", "account_suspended"} {
		body, err := m.render(SendEmailPayload{
			Template: name,
			Data:     map[string]string{"Name": "Ada"},
		})
		if err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if !strings.Contains(body, "Hello Ada,") {
			t.Fatalf("render %s: missing greeting in %q", name, body)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	m := newTestMailer(t)

	if _, err := m.render(SendEmailPayload{Template: "nonexistent"}); err == nil {
		t.Fatalf("expected an error for an unknown template")
	}
}

func TestSendEmailTaskPayload(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{
		To:       "ada@example.com",
		Subject:  "Welcome",
		Template: "welcome",
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskTypeSendEmail {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskTypeSendEmail)
	}
}
