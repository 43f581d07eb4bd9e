package ports

import (
	"context"

	"auditpro/internal/domain"
)

// AuditResults is what a finished audit run persists.
type AuditResults struct {
	Input    domain.AuditInput
	Findings []domain.Finding
	Stage    int
	Savings  domain.EstimatedSavings
}

// SessionRepository stores audit sessions with the input needed to replay
// them. CreateSession also queues a job for the session.
type SessionRepository interface {
	CreateSession(ctx context.Context, s domain.AuditSession, in domain.AuditInput) error
	CreateCompletedSession(ctx context.Context, s domain.AuditSession, res AuditResults) error
	GetSession(ctx context.Context, id string) (domain.AuditSession, error)
	SessionInput(ctx context.Context, id string) (domain.AuditInput, error)
	// ListSessions returns at most limit sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]domain.AuditSession, error)
	SaveResults(ctx context.Context, id string, res AuditResults) error
}

// FindingRepository reads persisted findings in stored (priority) order.
type FindingRepository interface {
	ListFindings(ctx context.Context, sessionID string) ([]domain.Finding, error)
}

// BusinessRepository stores business-context profiles.
type BusinessRepository interface {
	CreateProfile(ctx context.Context, p domain.BusinessProfile) error
	GetProfile(ctx context.Context, id string) (domain.BusinessProfile, error)
}

// Store is the full persistence surface; the Postgres and in-memory
// adapters both satisfy it.
type Store interface {
	SessionRepository
	FindingRepository
	BusinessRepository
	JobRepository
	Ping(ctx context.Context) error
}
