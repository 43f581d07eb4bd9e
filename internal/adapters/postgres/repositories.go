package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

const sessionColumns = `id, parent_session_id, business_session_id, org_name, org_domain, instance_url,
	created_at, started_at, finished_at, status, progress, findings_count,
	savings_hours, savings_dollars, stage, failure_reason`

// SessionRepository

// CreateSession inserts a queued session and its job in one transaction.
func (db *DB) CreateSession(ctx context.Context, sess domain.AuditSession, in domain.AuditInput) (err error) {
	input, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer endTx(ctx, tx, &err)

	if err = insertSession(ctx, tx, sess, input); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO audit_jobs (id, session_id) VALUES ($1, $2)`, uuid.NewString(), sess.ID)
	return err
}

// CreateCompletedSession stores a finished session with its results and no job.
func (db *DB) CreateCompletedSession(ctx context.Context, sess domain.AuditSession, res ports.AuditResults) (err error) {
	input, err := json.Marshal(res.Input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer endTx(ctx, tx, &err)

	if err = insertSession(ctx, tx, sess, input); err != nil {
		return err
	}
	return writeResults(ctx, tx, sess.ID, res)
}

func insertSession(ctx context.Context, tx pgx.Tx, s domain.AuditSession, input []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_sessions (id, parent_session_id, business_session_id, org_name, org_domain, instance_url,
			created_at, started_at, finished_at, status, progress, failure_reason, input)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, s.ID, s.ParentSessionID, s.BusinessSessionID, s.OrgName, s.OrgDomain, s.InstanceURL,
		s.CreatedAt, s.StartedAt, s.FinishedAt, s.Status, s.Progress, s.FailureReason, input)
	return err
}

func (db *DB) GetSession(ctx context.Context, id string) (domain.AuditSession, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM audit_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	return s, err
}

func (db *DB) SessionInput(ctx context.Context, id string) (domain.AuditInput, error) {
	var raw []byte
	var in domain.AuditInput
	err := db.Pool.QueryRow(ctx, `SELECT input FROM audit_sessions WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return in, fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("decode input of session %s: %w", id, err)
	}
	return in, nil
}

func (db *DB) ListSessions(ctx context.Context, limit int) ([]domain.AuditSession, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM audit_sessions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.AuditSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (domain.AuditSession, error) {
	var s domain.AuditSession
	err := row.Scan(&s.ID, &s.ParentSessionID, &s.BusinessSessionID, &s.OrgName, &s.OrgDomain, &s.InstanceURL,
		&s.CreatedAt, &s.StartedAt, &s.FinishedAt, &s.Status, &s.Progress, &s.FindingsCount,
		&s.EstimatedSavings.MonthlyHours, &s.EstimatedSavings.AnnualDollars, &s.Stage, &s.FailureReason)
	return s, err
}

// SaveResults replaces the findings of a session and records its headline
// figures.
func (db *DB) SaveResults(ctx context.Context, id string, res ports.AuditResults) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer endTx(ctx, tx, &err)

	input, err := json.Marshal(res.Input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE audit_sessions SET input=$2 WHERE id=$1`, id, input)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM audit_findings WHERE session_id=$1`, id); err != nil {
		return err
	}
	return writeResults(ctx, tx, id, res)
}

func writeResults(ctx context.Context, tx pgx.Tx, id string, res ports.AuditResults) error {
	batch := &pgx.Batch{}
	for i, f := range res.Findings {
		body, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode finding %s: %w", f.ID, err)
		}
		batch.Queue(`INSERT INTO audit_findings (session_id, position, id, body) VALUES ($1, $2, $3, $4)`, id, i, f.ID, body)
	}
	batch.Queue(`
		UPDATE audit_sessions SET findings_count=$2, stage=$3, savings_hours=$4, savings_dollars=$5 WHERE id=$1
	`, id, len(res.Findings), res.Stage, res.Savings.MonthlyHours, res.Savings.AnnualDollars)
	return tx.SendBatch(ctx, batch).Close()
}

// FindingRepository

func (db *DB) ListFindings(ctx context.Context, sessionID string) ([]domain.Finding, error) {
	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM audit_sessions WHERE id=$1)`, sessionID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("session %s: %w", sessionID, ports.ErrNotFound)
	}
	rows, err := db.Pool.Query(ctx, `SELECT body FROM audit_findings WHERE session_id=$1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Finding{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var f domain.Finding
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// BusinessRepository

func (db *DB) CreateProfile(ctx context.Context, p domain.BusinessProfile) error {
	var salaries []byte
	if p.DepartmentSalaries != nil {
		var err error
		if salaries, err = json.Marshal(p.DepartmentSalaries); err != nil {
			return fmt.Errorf("encode salaries: %w", err)
		}
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO business_profiles (id, revenue_range, employee_range, annual_revenue, employee_headcount,
			company_domain, department_salaries, stage, stage_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.RevenueRange, p.EmployeeRange, p.AnnualRevenue, p.EmployeeHeadcount,
		p.CompanyDomain, salaries, p.Stage, p.StageName, p.CreatedAt)
	return err
}

func (db *DB) GetProfile(ctx context.Context, id string) (domain.BusinessProfile, error) {
	var p domain.BusinessProfile
	var salaries []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT id, revenue_range, employee_range, annual_revenue, employee_headcount,
			company_domain, department_salaries, stage, stage_name, created_at
		FROM business_profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.RevenueRange, &p.EmployeeRange, &p.AnnualRevenue, &p.EmployeeHeadcount,
		&p.CompanyDomain, &salaries, &p.Stage, &p.StageName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("business profile %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return p, err
	}
	if len(salaries) > 0 {
		p.DepartmentSalaries = &domain.DepartmentSalaries{}
		if err := json.Unmarshal(salaries, p.DepartmentSalaries); err != nil {
			return p, fmt.Errorf("decode salaries: %w", err)
		}
	}
	return p, nil
}
