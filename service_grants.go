package authkit

import "context"

// ============================================================================
// GRANTS AND MEMBERSHIPS
// ============================================================================

// GrantUserPermission grants an action on a resource directly to a user.
// Idempotent: granting an existing pair succeeds without change. The user
// and resource must exist in the tenant.
func (s *Service) GrantUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) error {
	if err := validateGrantInput("GrantUserPermission", tenantID, resourceID, action); err != nil {
		return err
	}
	if err := s.requireUser(ctx, "GrantUserPermission", tenantID, userID); err != nil {
		return err
	}
	if err := s.requireResource(ctx, "GrantUserPermission", tenantID, resourceID); err != nil {
		return err
	}
	created, err := s.repo.UpsertUserPermission(ctx, tenantID, userID, resourceID, action)
	if err != nil {
		s.logFailure(ctx, "GrantUserPermission", err)
		return err
	}
	if created {
		observeGrantMutation("user", "grant")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditGrant,
			SubjectKind: SourceUser,
			SubjectID:   userID,
			ResourceID:  resourceID,
			GrantAction: action,
		})
	}
	return nil
}

// RevokeUserPermission removes a direct grant and reports whether a grant
// was actually removed. Revoking an absent grant is a successful no-op
// returning false.
func (s *Service) RevokeUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	removed, err := s.repo.DeleteUserPermission(ctx, tenantID, userID, resourceID, action)
	if err != nil {
		s.logFailure(ctx, "RevokeUserPermission", err)
		return false, err
	}
	if removed {
		observeGrantMutation("user", "revoke")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditRevoke,
			SubjectKind: SourceUser,
			SubjectID:   userID,
			ResourceID:  resourceID,
			GrantAction: action,
		})
	}
	return removed, nil
}

// GrantRolePermission grants an action on a resource to a role. Every
// current and future member of the role holds the permission while the
// grant and their membership both exist.
func (s *Service) GrantRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) error {
	if err := validateGrantInput("GrantRolePermission", tenantID, resourceID, action); err != nil {
		return err
	}
	if err := s.requireRole(ctx, "GrantRolePermission", tenantID, roleID); err != nil {
		return err
	}
	if err := s.requireResource(ctx, "GrantRolePermission", tenantID, resourceID); err != nil {
		return err
	}
	created, err := s.repo.UpsertRolePermission(ctx, tenantID, roleID, resourceID, action)
	if err != nil {
		s.logFailure(ctx, "GrantRolePermission", err)
		return err
	}
	if created {
		observeGrantMutation("role", "grant")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditGrant,
			SubjectKind: SourceRole,
			SubjectID:   roleID,
			ResourceID:  resourceID,
			GrantAction: action,
		})
	}
	return nil
}

// RevokeRolePermission removes a role grant and reports whether a grant was
// actually removed. Every member loses the permission immediately unless
// they hold it from another source.
func (s *Service) RevokeRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) (bool, error) {
	removed, err := s.repo.DeleteRolePermission(ctx, tenantID, roleID, resourceID, action)
	if err != nil {
		s.logFailure(ctx, "RevokeRolePermission", err)
		return false, err
	}
	if removed {
		observeGrantMutation("role", "revoke")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditRevoke,
			SubjectKind: SourceRole,
			SubjectID:   roleID,
			ResourceID:  resourceID,
			GrantAction: action,
		})
	}
	return removed, nil
}

// AssignUserRole makes the user a member of the role. Idempotent. Both
// sides must exist in the tenant.
func (s *Service) AssignUserRole(ctx context.Context, tenantID, userID, roleID string) error {
	if err := s.requireUser(ctx, "AssignUserRole", tenantID, userID); err != nil {
		return err
	}
	if err := s.requireRole(ctx, "AssignUserRole", tenantID, roleID); err != nil {
		return err
	}
	created, err := s.repo.AddUserRole(ctx, tenantID, userID, roleID)
	if err != nil {
		s.logFailure(ctx, "AssignUserRole", err)
		return err
	}
	if created {
		observeGrantMutation("membership", "assign")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditAssignRole,
			SubjectKind: SourceUser,
			SubjectID:   userID,
			GrantAction: roleID,
		})
	}
	return nil
}

// UnassignUserRole removes the membership and reports whether one was
// actually removed. The user immediately loses the role's permissions unless
// held from another source. Unassigning an absent membership is a successful
// no-op returning false.
func (s *Service) UnassignUserRole(ctx context.Context, tenantID, userID, roleID string) (bool, error) {
	removed, err := s.repo.RemoveUserRole(ctx, tenantID, userID, roleID)
	if err != nil {
		s.logFailure(ctx, "UnassignUserRole", err)
		return false, err
	}
	if removed {
		observeGrantMutation("membership", "unassign")
		s.logAudit(ctx, tenantID, auditEntry{
			Action:      AuditUnassignRole,
			SubjectKind: SourceUser,
			SubjectID:   userID,
			GrantAction: roleID,
		})
	}
	return removed, nil
}

// ListUserRoles returns the role ids the user is a member of, ordered.
func (s *Service) ListUserRoles(ctx context.Context, tenantID, userID string) ([]string, error) {
	edges, err := s.repo.ListUserRoles(ctx, tenantID, userID)
	if err != nil {
		s.logFailure(ctx, "ListUserRoles", err)
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.RoleID
	}
	return ids, nil
}

// ListRoleMembers returns the user ids that are members of the role,
// ordered.
func (s *Service) ListRoleMembers(ctx context.Context, tenantID, roleID string) ([]string, error) {
	edges, err := s.repo.ListRoleMembers(ctx, tenantID, roleID)
	if err != nil {
		s.logFailure(ctx, "ListRoleMembers", err)
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.UserID
	}
	return ids, nil
}

// ============================================================================
// PRECONDITION HELPERS
// ============================================================================

func validateGrantInput(op, tenantID, resourceID, action string) error {
	if err := ValidateID(resourceID); err != nil {
		return NewError(ErrValidation, "invalid resource id").
			WithOp(op).WithTenant(tenantID).WithResource(resourceID).WithCause(err)
	}
	if err := ValidateAction(action); err != nil {
		return NewError(ErrValidation, "invalid action").
			WithOp(op).WithTenant(tenantID).WithAction(action).WithCause(err)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, op, tenantID, userID string) error {
	ok, err := s.repo.UserExists(ctx, tenantID, userID)
	if err != nil {
		s.logFailure(ctx, op, err)
		return err
	}
	if !ok {
		return NewError(ErrNotFound, "user not found").
			WithOp(op).WithTenant(tenantID).WithUser(userID)
	}
	return nil
}

func (s *Service) requireRole(ctx context.Context, op, tenantID, roleID string) error {
	ok, err := s.repo.RoleExists(ctx, tenantID, roleID)
	if err != nil {
		s.logFailure(ctx, op, err)
		return err
	}
	if !ok {
		return NewError(ErrNotFound, "role not found").
			WithOp(op).WithTenant(tenantID).WithRole(roleID)
	}
	return nil
}

func (s *Service) requireResource(ctx context.Context, op, tenantID, resourceID string) error {
	ok, err := s.repo.ResourceExists(ctx, tenantID, resourceID)
	if err != nil {
		s.logFailure(ctx, op, err)
		return err
	}
	if !ok {
		return NewError(ErrNotFound, "resource not found").
			WithOp(op).WithTenant(tenantID).WithResource(resourceID)
	}
	return nil
}
