// Package memory implements the persistence ports in process. It backs local
// runs without DATABASE_URL and the HTTP tests; nothing survives a restart.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

type sessionRecord struct {
	session  domain.AuditSession
	input    domain.AuditInput
	findings []domain.Finding
}

type jobRecord struct {
	id        string
	sessionID string
	status    string
	attempts  int
}

// Store implements ports.Store using maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]*sessionRecord
	profiles map[string]domain.BusinessProfile
	jobs     []*jobRecord
}

var _ ports.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		now:      time.Now,
		sessions: map[string]*sessionRecord{},
		profiles: map[string]domain.BusinessProfile{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// SessionRepository

func (s *Store) CreateSession(_ context.Context, sess domain.AuditSession, in domain.AuditInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	if sess.Status == "" {
		sess.Status = domain.StatusQueued
	}
	s.sessions[sess.ID] = &sessionRecord{session: sess, input: in}
	s.jobs = append(s.jobs, &jobRecord{
		id:        uuid.NewString(),
		sessionID: sess.ID,
		status:    domain.StatusQueued,
	})
	return nil
}

func (s *Store) CreateCompletedSession(_ context.Context, sess domain.AuditSession, res ports.AuditResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	rec := &sessionRecord{session: sess}
	applyResults(rec, res)
	rec.session.Status = domain.StatusCompleted
	rec.session.Progress = 1
	if rec.session.FinishedAt == nil {
		now := s.now()
		rec.session.FinishedAt = &now
	}
	s.sessions[sess.ID] = rec
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (domain.AuditSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return domain.AuditSession{}, fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	return rec.session, nil
}

func (s *Store) SessionInput(_ context.Context, id string) (domain.AuditInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return domain.AuditInput{}, fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	return rec.input, nil
}

func (s *Store) ListSessions(_ context.Context, limit int) ([]domain.AuditSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditSession, 0, len(s.sessions))
	for _, rec := range s.sessions {
		out = append(out, rec.session)
	}
	slices.SortFunc(out, func(a, b domain.AuditSession) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SaveResults(_ context.Context, id string, res ports.AuditResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ports.ErrNotFound)
	}
	applyResults(rec, res)
	return nil
}

func applyResults(rec *sessionRecord, res ports.AuditResults) {
	stage := res.Stage
	rec.input = res.Input
	rec.findings = slices.Clone(res.Findings)
	rec.session.Stage = &stage
	rec.session.FindingsCount = len(res.Findings)
	rec.session.EstimatedSavings = res.Savings
}

// FindingRepository

func (s *Store) ListFindings(_ context.Context, sessionID string) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ports.ErrNotFound)
	}
	out := slices.Clone(rec.findings)
	if out == nil {
		out = []domain.Finding{}
	}
	return out, nil
}

// BusinessRepository

func (s *Store) CreateProfile(_ context.Context, p domain.BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("business profile %s already exists", p.ID)
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) GetProfile(_ context.Context, id string) (domain.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.BusinessProfile{}, fmt.Errorf("business profile %s: %w", id, ports.ErrNotFound)
	}
	return p, nil
}
