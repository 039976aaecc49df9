// Package notify dispatches user-facing notifications through the
// background job queue. Rendering and delivery happen in the worker.
package notify

import (
	"context"
	"log/slog"

	"github.com/atlas-iam/atlas-iam/jobs"
)

// Recipient is anything a notification can be addressed to.
type Recipient interface {
	NotifyEmail() string
	DisplayName() string
}

// Enqueuer submits mail tasks to the queue.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error
}

// Service enqueues notifications for asynchronous delivery.
type Service struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(queue Enqueuer, logger *slog.Logger) *Service {
	return &Service{queue: queue, logger: logger}
}

// Send enqueues a templated notification for the recipient. The template
// name selects a message body in the worker; data fills its placeholders.
func (s *Service) Send(ctx context.Context, to Recipient, subject, template string, data map[string]string) error {
	if data == nil {
		data = map[string]string{}
	}
	data["Name"] = to.DisplayName()
	payload := jobs.SendEmailPayload{
		To:       to.NotifyEmail(),
		Subject:  subject,
		Template: template,
		Data:     data,
	}
	if err := s.queue.EnqueueSendEmail(ctx, payload); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("notification enqueued",
			slog.String("to", to.NotifyEmail()),
			slog.String("template", template))
	}
	return nil
}
