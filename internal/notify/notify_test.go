package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-iam/atlas-iam/jobs"
)

type fakeQueue struct {
	enqueued []jobs.SendEmailPayload
	err      error
}

func (f *fakeQueue) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

type testRecipient struct {
	email string
	name  string
}

func (r testRecipient) NotifyEmail() string { return r.email }
func (r testRecipient) DisplayName() string { return r.name }

func TestSendFillsRecipientName(t *testing.T) {
	queue := &fakeQueue{}
	svc := NewService(queue, slog.New(slog.DiscardHandler))

	err := svc.Send(context.Background(), testRecipient{"ada@example.com", "Ada"}, "Welcome", "welcome", nil)
	require.NoError(t, err)
	require.Len(t, queue.enqueued, 1)

	payload := queue.enqueued[0]
	assert.Equal(t, "ada@example.com", payload.To)
	assert.Equal(t, "Welcome", payload.Subject)
	assert.Equal(t, "welcome", payload.Template)
	assert.Equal(t, "Ada", payload.Data["Name"])
}

func TestSendKeepsCallerData(t *testing.T) {
	queue := &fakeQueue{}
	svc := NewService(queue, nil)

	err := svc.Send(context.Background(), testRecipient{"ada@example.com", "Ada"}, "Hi", "welcome", map[string]string{"Plan": "pro"})
	require.NoError(t, err)
	assert.Equal(t, "pro", queue.enqueued[0].Data["Plan"])
}

func TestSendPropagatesQueueFailure(t *testing.T) {
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := NewService(queue, nil)

	err := svc.Send(context.Background(), testRecipient{"ada@example.com", "Ada"}, "Hi", "welcome", nil)
	assert.Error(t, err)
}
