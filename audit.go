package authkit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// AUDIT LOG
// ============================================================================

// AuditAction identifies what a grant-mutation audit entry records.
type AuditAction string

const (
	AuditGrant          AuditAction = "grant"
	AuditRevoke         AuditAction = "revoke"
	AuditAssignRole     AuditAction = "assign_role"
	AuditUnassignRole   AuditAction = "unassign_role"
	AuditCascadeDelete  AuditAction = "cascade_delete"
	AuditTenantDelete   AuditAction = "tenant_delete"
	AuditResourceDelete AuditAction = "resource_delete"
)

// GrantAuditLog is one audit row for a grant or membership mutation. Entries
// are written best effort; an audit failure never fails the mutation itself.
type GrantAuditLog struct {
	bun.BaseModel `bun:"table:grant_audit_log,alias:gal"`

	ID          string           `bun:"id,pk" json:"id"`
	TenantID    string           `bun:"tenant_id,notnull" json:"tenant_id"`
	ActorID     string           `bun:"actor_id" json:"actor_id,omitempty"`
	Action      AuditAction      `bun:"action,notnull" json:"action"`
	SubjectKind PermissionSource `bun:"subject_kind" json:"subject_kind,omitempty"`
	SubjectID   string           `bun:"subject_id" json:"subject_id,omitempty"`
	ResourceID  string           `bun:"resource_id" json:"resource_id,omitempty"`
	GrantAction string           `bun:"grant_action" json:"grant_action,omitempty"`
	RequestID   string           `bun:"request_id" json:"request_id,omitempty"`
	Removed     int              `bun:"removed" json:"removed,omitempty"`
	CreatedAt   time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// auditEntry is the in-flight form before persistence; actor and request id
// are filled from context at write time.
type auditEntry struct {
	Action      AuditAction
	SubjectKind PermissionSource
	SubjectID   string
	ResourceID  string
	GrantAction string
	Removed     int
}

// logAudit persists one audit row. Best effort: failures are logged and
// swallowed so auditing can never veto a completed mutation.
func (s *Service) logAudit(ctx context.Context, tenantID string, entry auditEntry) {
	row := &GrantAuditLog{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ActorID:     GetActorID(ctx),
		Action:      entry.Action,
		SubjectKind: entry.SubjectKind,
		SubjectID:   entry.SubjectID,
		ResourceID:  entry.ResourceID,
		GrantAction: entry.GrantAction,
		RequestID:   GetRequestID(ctx),
		Removed:     entry.Removed,
	}
	result, err := s.repo.db.NewInsert().Model(row).Exec(ctx)
	if err = dbkit.WithErr(result, err, "logAudit").Err(); err != nil {
		s.logger.WarnContext(ctx, "authkit audit write failed",
			"op", string(entry.Action),
			"tenant_id", tenantID,
			"cause", err.Error(),
		)
	}
}

// GetAuditLog retrieves audit entries for a tenant, newest first, with
// optional filters.
func (s *Service) GetAuditLog(ctx context.Context, tenantID string, filter AuditFilter) ([]GrantAuditLog, error) {
	if err := requireTenant("GetAuditLog", tenantID); err != nil {
		return nil, err
	}
	var logs []GrantAuditLog
	q := s.repo.db.NewSelect().Model(&logs).Where("tenant_id = ?", tenantID)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.SubjectKind != "" {
		q = q.Where("subject_kind = ?", filter.SubjectKind)
	}
	if filter.SubjectID != "" {
		q = q.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ResourceID != "" {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until)
	}
	q = q.Order("created_at DESC").Limit(filter.limitOrDefault())
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err(); err != nil {
		e := storageErr("GetAuditLog", err).WithTenant(tenantID)
		s.logFailure(ctx, "GetAuditLog", e)
		return nil, e
	}
	return logs, nil
}
