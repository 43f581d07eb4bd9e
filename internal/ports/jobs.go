package ports

import "context"

// AuditJob is one queued unit of work for an audit session.
type AuditJob struct {
	ID        string
	SessionID string
}

// JobRepository supports claiming and settling audit jobs. Completing or
// failing a job settles its session too.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job AuditJob, found bool, err error)
	StartJobForSession(ctx context.Context, sessionID string) (jobID string, err error)
	UpdateProgress(ctx context.Context, sessionID string, progress float64) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
}
