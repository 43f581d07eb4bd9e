package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AuditJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		endTx(ctx, tx, &err)
		if err != nil {
			found = false
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT id, session_id FROM audit_jobs
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&job.ID, &job.SessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	if err = startJob(ctx, tx, job); err != nil {
		return job, false, err
	}
	return job, true, nil
}

// StartJobForSession marks the queued job of a specific session as running
// and returns the job id.
func (db *DB) StartJobForSession(ctx context.Context, sessionID string) (jobID string, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer endTx(ctx, tx, &err)

	err = tx.QueryRow(ctx, `
		SELECT id FROM audit_jobs
		WHERE session_id = $1 AND status = 'queued'
		FOR UPDATE SKIP LOCKED
	`, sessionID).Scan(&jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("queued job for session %s: %w", sessionID, ports.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if err = startJob(ctx, tx, ports.AuditJob{ID: jobID, SessionID: sessionID}); err != nil {
		return "", err
	}
	return jobID, nil
}

func startJob(ctx context.Context, tx pgx.Tx, job ports.AuditJob) error {
	if _, err := tx.Exec(ctx, `
		UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
	`, job.ID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE audit_sessions SET status='running', started_at=COALESCE(started_at, now()) WHERE id=$1
	`, job.SessionID)
	return err
}

func (db *DB) UpdateProgress(ctx context.Context, sessionID string, progress float64) error {
	progress = min(max(progress, 0), 1)
	tag, err := db.Pool.Exec(ctx, `UPDATE audit_sessions SET progress=$2 WHERE id=$1`, sessionID, progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ports.ErrNotFound)
	}
	return nil
}

// MarkCompleted completes the job and its session atomically.
func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.settle(ctx, jobID, domain.StatusCompleted, nil)
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.settle(ctx, jobID, domain.StatusFailed, &reason)
}

func (db *DB) settle(ctx context.Context, jobID, status string, reason *string) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer endTx(ctx, tx, &err)

	var sessionID string
	err = tx.QueryRow(ctx, `
		UPDATE audit_jobs SET status=$2, finished_at=now() WHERE id=$1 RETURNING session_id
	`, jobID, status).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("job %s: %w", jobID, ports.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status == domain.StatusCompleted {
		_, err = tx.Exec(ctx, `
			UPDATE audit_sessions SET status=$2, progress=1, failure_reason=NULL, finished_at=now() WHERE id=$1
		`, sessionID, status)
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE audit_sessions SET status=$2, failure_reason=$3, finished_at=now() WHERE id=$1
	`, sessionID, status, reason)
	return err
}
