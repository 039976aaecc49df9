package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/atlas-iam/atlas-iam/internal/jobs"
)

// SessionPurgeJob removes expired session rows from postgres. The Redis
// copies expire on their own; this keeps the audit mirror bounded.
type SessionPurgeJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSessionPurgeJob constructs a SessionPurgeJob.
func NewSessionPurgeJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPurgeJob {
	return &SessionPurgeJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("session_purge")

	tag, err := j.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return tracker.End(err)
	}
	if j.logger != nil && tag.RowsAffected() > 0 {
		j.logger.Info("expired sessions purged", slog.Int64("count", tag.RowsAffected()))
	}
	return tracker.End(nil)
}
