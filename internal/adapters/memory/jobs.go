package memory

import (
	"context"
	"fmt"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

// ClaimNext takes the oldest queued job and marks it and its session running.
func (s *Store) ClaimNext(_ context.Context) (ports.AuditJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.status != domain.StatusQueued {
			continue
		}
		s.start(j)
		return ports.AuditJob{ID: j.id, SessionID: j.sessionID}, true, nil
	}
	return ports.AuditJob{}, false, nil
}

// StartJobForSession claims the queued job of a specific session.
func (s *Store) StartJobForSession(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.sessionID == sessionID && j.status == domain.StatusQueued {
			s.start(j)
			return j.id, nil
		}
	}
	return "", fmt.Errorf("queued job for session %s: %w", sessionID, ports.ErrNotFound)
}

func (s *Store) start(j *jobRecord) {
	j.status = domain.StatusRunning
	j.attempts++
	if rec, ok := s.sessions[j.sessionID]; ok {
		rec.session.Status = domain.StatusRunning
		if rec.session.StartedAt == nil {
			now := s.now()
			rec.session.StartedAt = &now
		}
	}
}

func (s *Store) UpdateProgress(_ context.Context, sessionID string, progress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ports.ErrNotFound)
	}
	rec.session.Progress = min(max(progress, 0), 1)
	return nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID string) error {
	return s.settle(jobID, domain.StatusCompleted, "")
}

func (s *Store) MarkFailed(_ context.Context, jobID string, reason string) error {
	return s.settle(jobID, domain.StatusFailed, reason)
}

func (s *Store) settle(jobID, status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, j := range s.jobs {
		if j.id == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("job %s: %w", jobID, ports.ErrNotFound)
	}
	j := s.jobs[idx]
	j.status = status

	rec, ok := s.sessions[j.sessionID]
	if !ok {
		return nil
	}
	now := s.now()
	rec.session.Status = status
	rec.session.FinishedAt = &now
	if status == domain.StatusCompleted {
		rec.session.Progress = 1
		rec.session.FailureReason = nil
	} else {
		rec.session.FailureReason = &reason
	}
	return nil
}
