// Package crm defines the read-only view of a CRM org that audits need, plus a
// deterministic mock used when no live connection is configured.
package crm

import (
	"context"
	"time"
)

// Standard objects queried by the collector.
const (
	ObjectAccount     = "Account"
	ObjectOpportunity = "Opportunity"
	ObjectLead        = "Lead"
	ObjectCase        = "Case"
)

// OrgInfo identifies the connected org.
type OrgInfo struct {
	Name        string
	Type        string
	InstanceURL string
}

// Client answers the count queries the detectors are built on. All methods
// are safe for concurrent use.
type Client interface {
	OrgInfo(ctx context.Context) (OrgInfo, error)
	CountActiveUsers(ctx context.Context) (int, error)
	CountInactiveUsers(ctx context.Context, idle time.Duration) (int, error)
	CountRecords(ctx context.Context, object string) (int, error)
	// CountUnusedCustomFields returns fields not populated within idle and the
	// objects that carry them.
	CountUnusedCustomFields(ctx context.Context, idle time.Duration) (int, []string, error)
	CountDuplicateValidationRules(ctx context.Context) (int, error)
	CountOrphanedRecords(ctx context.Context, object string) (int, error)
	CountStaleRecords(ctx context.Context, object string, idle time.Duration) (int, error)
	// MissingFieldShare is the fraction (0-1) of records with any of fields blank.
	MissingFieldShare(ctx context.Context, object string, fields []string) (float64, error)
	ManualAssignmentShare(ctx context.Context, object string) (float64, error)
	CountEmailAlerts(ctx context.Context) (int, error)
	ManualReportHoursPerWeek(ctx context.Context) (float64, error)
}

// Factory opens a client for an org.
type Factory func(ctx context.Context, orgName, instanceURL string) (Client, error)
