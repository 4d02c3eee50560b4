package authkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// grantQuery narrows a grant selection. Exact resource match and prefix
// match are mutually exclusive; the engine sets one or neither.
type grantQuery struct {
	resourceID     string // exact match when non-empty
	resourcePrefix string // prefix match when usePrefix is set
	usePrefix      bool
	action         string // exact match when non-empty
}

// ============================================================================
// ROLE MEMBERSHIPS
// ============================================================================

// AddUserRole creates a membership edge. Idempotent: returns false without
// error when the edge already exists.
func (r *Repo) AddUserRole(ctx context.Context, tenantID, userID, roleID string) (bool, error) {
	if err := requireTenant("AddUserRole", tenantID); err != nil {
		return false, err
	}
	edge := &UserRole{TenantID: tenantID, UserID: userID, RoleID: roleID}
	result, err := r.db.NewInsert().
		Model(edge).
		On("CONFLICT (tenant_id, user_id, role_id) DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "AddUserRole").Err(); err != nil {
		return false, storageErr("AddUserRole", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithRole(roleID)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// RemoveUserRole deletes a membership edge, reporting whether a row was
// actually removed. Removing an absent edge is a successful no-op.
func (r *Repo) RemoveUserRole(ctx context.Context, tenantID, userID, roleID string) (bool, error) {
	if err := requireTenant("RemoveUserRole", tenantID); err != nil {
		return false, err
	}
	result, err := r.db.NewDelete().Table("user_roles").
		Where("tenant_id = ? AND user_id = ? AND role_id = ?", tenantID, userID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "RemoveUserRole").Err(); err != nil {
		return false, storageErr("RemoveUserRole", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithRole(roleID)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListUserRoles returns the membership edges of a user.
func (r *Repo) ListUserRoles(ctx context.Context, tenantID, userID string) ([]UserRole, error) {
	if err := requireTenant("ListUserRoles", tenantID); err != nil {
		return nil, err
	}
	var edges []UserRole
	err := dbkit.WithErr1(r.db.NewSelect().Model(&edges).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("role_id").
		Scan(ctx), "ListUserRoles").Err()
	if err != nil {
		return nil, storageErr("ListUserRoles", err).WithTenant(tenantID).WithUser(userID)
	}
	return edges, nil
}

// ListRoleMembers returns the membership edges of a role.
func (r *Repo) ListRoleMembers(ctx context.Context, tenantID, roleID string) ([]UserRole, error) {
	if err := requireTenant("ListRoleMembers", tenantID); err != nil {
		return nil, err
	}
	var edges []UserRole
	err := dbkit.WithErr1(r.db.NewSelect().Model(&edges).
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Order("user_id").
		Scan(ctx), "ListRoleMembers").Err()
	if err != nil {
		return nil, storageErr("ListRoleMembers", err).WithTenant(tenantID).WithRole(roleID)
	}
	return edges, nil
}

// ============================================================================
// GRANTS
// ============================================================================

// UpsertUserPermission grants an action on a resource to a user. Idempotent:
// returns false without error when the grant already exists.
func (r *Repo) UpsertUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	if err := requireTenant("UpsertUserPermission", tenantID); err != nil {
		return false, err
	}
	grant := &UserPermission{TenantID: tenantID, UserID: userID, ResourceID: resourceID, Action: action}
	result, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (tenant_id, user_id, resource_id, action) DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpsertUserPermission").Err(); err != nil {
		return false, storageErr("UpsertUserPermission", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithResource(resourceID).
			WithAction(action)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteUserPermission revokes a direct grant, reporting whether a row was
// removed.
func (r *Repo) DeleteUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	if err := requireTenant("DeleteUserPermission", tenantID); err != nil {
		return false, err
	}
	result, err := r.db.NewDelete().Table("user_permissions").
		Where("tenant_id = ? AND user_id = ? AND resource_id = ? AND action = ?",
			tenantID, userID, resourceID, action).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUserPermission").Err(); err != nil {
		return false, storageErr("DeleteUserPermission", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithResource(resourceID).
			WithAction(action)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// UpsertRolePermission grants an action on a resource to a role. Idempotent.
func (r *Repo) UpsertRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) (bool, error) {
	if err := requireTenant("UpsertRolePermission", tenantID); err != nil {
		return false, err
	}
	grant := &RolePermission{TenantID: tenantID, RoleID: roleID, ResourceID: resourceID, Action: action}
	result, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (tenant_id, role_id, resource_id, action) DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpsertRolePermission").Err(); err != nil {
		return false, storageErr("UpsertRolePermission", err).
			WithTenant(tenantID).
			WithRole(roleID).
			WithResource(resourceID).
			WithAction(action)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteRolePermission revokes a role grant, reporting whether a row was
// removed.
func (r *Repo) DeleteRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) (bool, error) {
	if err := requireTenant("DeleteRolePermission", tenantID); err != nil {
		return false, err
	}
	result, err := r.db.NewDelete().Table("role_permissions").
		Where("tenant_id = ? AND role_id = ? AND resource_id = ? AND action = ?",
			tenantID, roleID, resourceID, action).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRolePermission").Err(); err != nil {
		return false, storageErr("DeleteRolePermission", err).
			WithTenant(tenantID).
			WithRole(roleID).
			WithResource(resourceID).
			WithAction(action)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// HasUserPermission reports whether an exact direct grant exists.
func (r *Repo) HasUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	if err := requireTenant("HasUserPermission", tenantID); err != nil {
		return false, err
	}
	exists, err := dbkit.Exists[UserPermission](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ? AND user_id = ? AND resource_id = ? AND action = ?",
			tenantID, userID, resourceID, action)
	})
	if err != nil {
		return false, storageErr("HasUserPermission", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithResource(resourceID).
			WithAction(action)
	}
	return exists, nil
}

// HasRolePermissionViaMembership reports whether the user reaches an exact
// role grant through any current membership.
func (r *Repo) HasRolePermissionViaMembership(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	if err := requireTenant("HasRolePermissionViaMembership", tenantID); err != nil {
		return false, err
	}
	exists, err := dbkit.Exists[RolePermission](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Join("JOIN user_roles AS ur ON ur.tenant_id = rp.tenant_id AND ur.role_id = rp.role_id").
			Where("rp.tenant_id = ? AND ur.user_id = ? AND rp.resource_id = ? AND rp.action = ?",
				tenantID, userID, resourceID, action)
	})
	if err != nil {
		return false, storageErr("HasRolePermissionViaMembership", err).
			WithTenant(tenantID).
			WithUser(userID).
			WithResource(resourceID).
			WithAction(action)
	}
	return exists, nil
}

// UserPermissions returns the direct grants of a user matching the query,
// ordered by (resource_id, action).
func (r *Repo) userPermissions(ctx context.Context, tenantID, userID string, gq grantQuery) ([]UserPermission, error) {
	if err := requireTenant("UserPermissions", tenantID); err != nil {
		return nil, err
	}
	var grants []UserPermission
	q := r.db.NewSelect().Model(&grants).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	q = applyGrantQuery(q, "resource_id", "action", gq)
	q = q.Order("resource_id").Order("action")
	if err := dbkit.WithErr1(q.Scan(ctx), "UserPermissions").Err(); err != nil {
		return nil, storageErr("UserPermissions", err).WithTenant(tenantID).WithUser(userID)
	}
	return grants, nil
}

// rolePermissionsForUser returns the role grants reachable through the
// user's current memberships, ordered by (role_id, resource_id, action). One
// row per reachable grant; two roles granting the same pair yield two rows.
func (r *Repo) rolePermissionsForUser(ctx context.Context, tenantID, userID string, gq grantQuery) ([]RolePermission, error) {
	if err := requireTenant("RolePermissionsForUser", tenantID); err != nil {
		return nil, err
	}
	var grants []RolePermission
	q := r.db.NewSelect().Model(&grants).
		Join("JOIN user_roles AS ur ON ur.tenant_id = rp.tenant_id AND ur.role_id = rp.role_id").
		Where("rp.tenant_id = ? AND ur.user_id = ?", tenantID, userID)
	q = applyGrantQuery(q, "rp.resource_id", "rp.action", gq)
	q = q.Order("rp.role_id").Order("rp.resource_id").Order("rp.action")
	if err := dbkit.WithErr1(q.Scan(ctx), "RolePermissionsForUser").Err(); err != nil {
		return nil, storageErr("RolePermissionsForUser", err).WithTenant(tenantID).WithUser(userID)
	}
	return grants, nil
}

func applyGrantQuery(q *bun.SelectQuery, resourceCol, actionCol string, gq grantQuery) *bun.SelectQuery {
	if gq.usePrefix {
		if gq.resourcePrefix != "" {
			q = q.Where(resourceCol+" LIKE ?", likePrefixPattern(gq.resourcePrefix))
		}
	} else if gq.resourceID != "" {
		q = q.Where(resourceCol+" = ?", gq.resourceID)
	}
	if gq.action != "" {
		q = q.Where(actionCol+" = ?", gq.action)
	}
	return q
}

// ============================================================================
// CASCADE HELPERS
// ============================================================================

// DeleteUserEdges removes every membership and direct grant of a user. Used
// by the user-deletion cascade.
func (r *Repo) DeleteUserEdges(ctx context.Context, tenantID, userID string) error {
	if err := requireTenant("DeleteUserEdges", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("user_roles").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUserEdges").Err(); err != nil {
		return storageErr("DeleteUserEdges", err).WithTenant(tenantID).WithUser(userID)
	}
	result, err = r.db.NewDelete().Table("user_permissions").
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUserEdges").Err(); err != nil {
		return storageErr("DeleteUserEdges", err).WithTenant(tenantID).WithUser(userID)
	}
	return nil
}

// DeleteRoleEdges removes every membership and grant of a role. Used by the
// role-deletion cascade.
func (r *Repo) DeleteRoleEdges(ctx context.Context, tenantID, roleID string) error {
	if err := requireTenant("DeleteRoleEdges", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("user_roles").
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRoleEdges").Err(); err != nil {
		return storageErr("DeleteRoleEdges", err).WithTenant(tenantID).WithRole(roleID)
	}
	result, err = r.db.NewDelete().Table("role_permissions").
		Where("tenant_id = ? AND role_id = ?", tenantID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRoleEdges").Err(); err != nil {
		return storageErr("DeleteRoleEdges", err).WithTenant(tenantID).WithRole(roleID)
	}
	return nil
}

// DeleteResourceGrants removes every grant referencing a resource. Used by
// the resource-deletion cascade.
func (r *Repo) DeleteResourceGrants(ctx context.Context, tenantID, resourceID string) error {
	if err := requireTenant("DeleteResourceGrants", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("user_permissions").
		Where("tenant_id = ? AND resource_id = ?", tenantID, resourceID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteResourceGrants").Err(); err != nil {
		return storageErr("DeleteResourceGrants", err).WithTenant(tenantID).WithResource(resourceID)
	}
	result, err = r.db.NewDelete().Table("role_permissions").
		Where("tenant_id = ? AND resource_id = ?", tenantID, resourceID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteResourceGrants").Err(); err != nil {
		return storageErr("DeleteResourceGrants", err).WithTenant(tenantID).WithResource(resourceID)
	}
	return nil
}

// DeleteTenantData removes every row owned by a tenant across all tables
// except the tenant row itself. Used by the tenant-deletion cascade.
func (r *Repo) DeleteTenantData(ctx context.Context, tenantID string) error {
	if err := requireTenant("DeleteTenantData", tenantID); err != nil {
		return err
	}
	tables := []string{
		"properties",
		"user_permissions",
		"role_permissions",
		"user_roles",
		"grant_audit_log",
		"users",
		"roles",
		"resources",
	}
	for _, table := range tables {
		result, err := r.db.NewDelete().Table(table).
			Where("tenant_id = ?", tenantID).
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "DeleteTenantData").Err(); err != nil {
			return storageErr("DeleteTenantData", err).WithTenant(tenantID)
		}
	}
	return nil
}

// CountUserRoles returns the number of memberships a user holds.
func (r *Repo) CountUserRoles(ctx context.Context, tenantID, userID string) (int, error) {
	if err := requireTenant("CountUserRoles", tenantID); err != nil {
		return 0, err
	}
	count, err := dbkit.Count[UserRole](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ? AND user_id = ?", tenantID, userID)
	})
	if err != nil {
		return 0, storageErr("CountUserRoles", err).WithTenant(tenantID).WithUser(userID)
	}
	return count, nil
}
