package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditpro/internal/domain"
	"auditpro/internal/ports"
)

func newSession(id string, created time.Time) domain.AuditSession {
	return domain.AuditSession{ID: id, OrgName: "Acme", CreatedAt: created, Status: domain.StatusQueued}
}

func TestStore_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.CreateSession(ctx, newSession("s1", t0), domain.AuditInput{}))
	require.NoError(t, s.CreateSession(ctx, newSession("s2", t0.Add(time.Second)), domain.AuditInput{}))

	job, found, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s1", job.SessionID)

	sess, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, sess.Status)
	assert.NotNil(t, sess.StartedAt)

	require.NoError(t, s.UpdateProgress(ctx, "s1", 1.7))
	sess, _ = s.GetSession(ctx, "s1")
	assert.Equal(t, 1.0, sess.Progress)

	require.NoError(t, s.SaveResults(ctx, "s1", ports.AuditResults{
		Findings: []domain.Finding{{ID: "f1"}, {ID: "f2"}},
		Stage:    4,
		Savings:  domain.EstimatedSavings{MonthlyHours: 3, AnnualDollars: 100},
	}))
	require.NoError(t, s.MarkCompleted(ctx, job.ID))

	sess, _ = s.GetSession(ctx, "s1")
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, 2, sess.FindingsCount)
	require.NotNil(t, sess.Stage)
	assert.Equal(t, 4, *sess.Stage)
	assert.NotNil(t, sess.FinishedAt)

	findings, err := s.ListFindings(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, findings, 2)

	// the second job is still queued and can be started by session
	jobID, err := s.StartJobForSession(ctx, "s2")
	require.NoError(t, err)
	require.NoError(t, s.MarkFailed(ctx, jobID, "crm unavailable"))
	sess, _ = s.GetSession(ctx, "s2")
	assert.Equal(t, domain.StatusFailed, sess.Status)
	require.NotNil(t, sess.FailureReason)
	assert.Equal(t, "crm unavailable", *sess.FailureReason)

	_, found, err = s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = s.SessionInput(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = s.ListFindings(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = s.StartJobForSession(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, s.MarkCompleted(ctx, "missing"), ports.ErrNotFound)
}

func TestStore_ListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("s%02d", i)
		require.NoError(t, s.CreateSession(ctx, newSession(id, t0.Add(time.Duration(i)*time.Minute)), domain.AuditInput{}))
	}

	out, err := s.ListSessions(ctx, 50)
	require.NoError(t, err)
	require.Len(t, out, 50)
	assert.Equal(t, "s59", out[0].ID)
	assert.Equal(t, "s10", out[49].ID)
}

func TestStore_CompletedSessionHasNoJob(t *testing.T) {
	ctx := context.Background()
	s := New()
	parent := "p1"
	sess := newSession("child", time.Now())
	sess.ParentSessionID = &parent

	require.NoError(t, s.CreateCompletedSession(ctx, sess, ports.AuditResults{
		Input:    domain.AuditInput{QuickEstimate: true},
		Findings: []domain.Finding{{ID: "x"}},
		Stage:    2,
	}))

	got, err := s.GetSession(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 1.0, got.Progress)
	assert.Equal(t, &parent, got.ParentSessionID)

	in, err := s.SessionInput(ctx, "child")
	require.NoError(t, err)
	assert.True(t, in.QuickEstimate)

	_, found, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Error(t, s.CreateCompletedSession(ctx, sess, ports.AuditResults{}))
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := domain.BusinessProfile{ID: "b1", AnnualRevenue: 375_000, EmployeeHeadcount: 7, Stage: 2, StageName: "Advertise"}

	require.NoError(t, s.CreateProfile(ctx, p))
	assert.Error(t, s.CreateProfile(ctx, p))

	got, err := s.GetProfile(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
