package authkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// USERS
// ============================================================================

// CreateUser inserts a user row in the given tenant.
func (r *Repo) CreateUser(ctx context.Context, tenantID string, user *User) error {
	if err := requireTenant("CreateUser", tenantID); err != nil {
		return err
	}
	user.TenantID = tenantID
	result, err := r.db.NewInsert().Model(user).Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "user already exists").
				WithOp("CreateUser").
				WithTenant(tenantID).
				WithUser(user.ID)
		}
		return storageErr("CreateUser", err).WithTenant(tenantID).WithUser(user.ID)
	}
	return nil
}

// GetUser looks up a user by (tenant, id).
func (r *Repo) GetUser(ctx context.Context, tenantID, id string) (*User, error) {
	if err := requireTenant("GetUser", tenantID); err != nil {
		return nil, err
	}
	var user User
	err := dbkit.WithErr1(r.db.NewSelect().Model(&user).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Scan(ctx), "GetUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").
				WithOp("GetUser").
				WithTenant(tenantID).
				WithUser(id)
		}
		return nil, storageErr("GetUser", err).WithTenant(tenantID).WithUser(id)
	}
	return &user, nil
}

// GetUserByIdentity looks a user up by the (provider, providerUserID)
// secondary key. The pair is not required unique; the first match by user id
// is returned.
func (r *Repo) GetUserByIdentity(ctx context.Context, tenantID, provider, providerUserID string) (*User, error) {
	if err := requireTenant("GetUserByIdentity", tenantID); err != nil {
		return nil, err
	}
	var user User
	err := dbkit.WithErr1(r.db.NewSelect().Model(&user).
		Where("tenant_id = ? AND identity_provider = ? AND identity_provider_user_id = ?",
			tenantID, provider, providerUserID).
		Order("id").
		Limit(1).
		Scan(ctx), "GetUserByIdentity").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found for identity").
				WithOp("GetUserByIdentity").
				WithTenant(tenantID)
		}
		return nil, storageErr("GetUserByIdentity", err).WithTenant(tenantID)
	}
	return &user, nil
}

// UpdateUser updates the mutable fields of a user row.
func (r *Repo) UpdateUser(ctx context.Context, tenantID string, user *User) error {
	if err := requireTenant("UpdateUser", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewUpdate().
		Model(user).
		Column("identity_provider", "identity_provider_user_id").
		Set("updated_at = current_timestamp").
		Where("tenant_id = ? AND id = ?", tenantID, user.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateUser").Err(); err != nil {
		return storageErr("UpdateUser", err).WithTenant(tenantID).WithUser(user.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "user not found").
			WithOp("UpdateUser").
			WithTenant(tenantID).
			WithUser(user.ID)
	}
	return nil
}

// DeleteUser removes the user row only; cascades run in the orchestration
// transaction.
func (r *Repo) DeleteUser(ctx context.Context, tenantID, id string) error {
	if err := requireTenant("DeleteUser", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("users").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUser").Err(); err != nil {
		return storageErr("DeleteUser", err).WithTenant(tenantID).WithUser(id)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "user not found").
			WithOp("DeleteUser").
			WithTenant(tenantID).
			WithUser(id)
	}
	return nil
}

// ListUsers returns the tenant's users ordered by id.
func (r *Repo) ListUsers(ctx context.Context, tenantID string, opts ListOptions) ([]User, error) {
	if err := requireTenant("ListUsers", tenantID); err != nil {
		return nil, err
	}
	var users []User
	q := r.db.NewSelect().Model(&users).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Limit(opts.limitOrDefault())
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "ListUsers").Err(); err != nil {
		return nil, storageErr("ListUsers", err).WithTenant(tenantID)
	}
	return users, nil
}

// UserExists reports whether a user row exists.
func (r *Repo) UserExists(ctx context.Context, tenantID, id string) (bool, error) {
	if err := requireTenant("UserExists", tenantID); err != nil {
		return false, err
	}
	exists, err := dbkit.Exists[User](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ? AND id = ?", tenantID, id)
	})
	if err != nil {
		return false, storageErr("UserExists", err).WithTenant(tenantID).WithUser(id)
	}
	return exists, nil
}

// ============================================================================
// ROLES
// ============================================================================

// CreateRole inserts a role row in the given tenant.
func (r *Repo) CreateRole(ctx context.Context, tenantID string, role *Role) error {
	if err := requireTenant("CreateRole", tenantID); err != nil {
		return err
	}
	role.TenantID = tenantID
	result, err := r.db.NewInsert().Model(role).Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "role already exists").
				WithOp("CreateRole").
				WithTenant(tenantID).
				WithRole(role.ID)
		}
		return storageErr("CreateRole", err).WithTenant(tenantID).WithRole(role.ID)
	}
	return nil
}

// GetRole looks up a role by (tenant, id).
func (r *Repo) GetRole(ctx context.Context, tenantID, id string) (*Role, error) {
	if err := requireTenant("GetRole", tenantID); err != nil {
		return nil, err
	}
	var role Role
	err := dbkit.WithErr1(r.db.NewSelect().Model(&role).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Scan(ctx), "GetRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "role not found").
				WithOp("GetRole").
				WithTenant(tenantID).
				WithRole(id)
		}
		return nil, storageErr("GetRole", err).WithTenant(tenantID).WithRole(id)
	}
	return &role, nil
}

// UpdateRole updates the mutable fields of a role row.
func (r *Repo) UpdateRole(ctx context.Context, tenantID string, role *Role) error {
	if err := requireTenant("UpdateRole", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewUpdate().
		Model(role).
		Column("name").
		Set("updated_at = current_timestamp").
		Where("tenant_id = ? AND id = ?", tenantID, role.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateRole").Err(); err != nil {
		return storageErr("UpdateRole", err).WithTenant(tenantID).WithRole(role.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "role not found").
			WithOp("UpdateRole").
			WithTenant(tenantID).
			WithRole(role.ID)
	}
	return nil
}

// DeleteRole removes the role row only.
func (r *Repo) DeleteRole(ctx context.Context, tenantID, id string) error {
	if err := requireTenant("DeleteRole", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("roles").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
		return storageErr("DeleteRole", err).WithTenant(tenantID).WithRole(id)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "role not found").
			WithOp("DeleteRole").
			WithTenant(tenantID).
			WithRole(id)
	}
	return nil
}

// ListRoles returns the tenant's roles ordered by id.
func (r *Repo) ListRoles(ctx context.Context, tenantID string, opts ListOptions) ([]Role, error) {
	if err := requireTenant("ListRoles", tenantID); err != nil {
		return nil, err
	}
	var roles []Role
	q := r.db.NewSelect().Model(&roles).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Limit(opts.limitOrDefault())
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "ListRoles").Err(); err != nil {
		return nil, storageErr("ListRoles", err).WithTenant(tenantID)
	}
	return roles, nil
}

// RoleExists reports whether a role row exists.
func (r *Repo) RoleExists(ctx context.Context, tenantID, id string) (bool, error) {
	if err := requireTenant("RoleExists", tenantID); err != nil {
		return false, err
	}
	exists, err := dbkit.Exists[Role](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ? AND id = ?", tenantID, id)
	})
	if err != nil {
		return false, storageErr("RoleExists", err).WithTenant(tenantID).WithRole(id)
	}
	return exists, nil
}

// ============================================================================
// RESOURCES
// ============================================================================

// CreateResource inserts a resource row in the given tenant.
func (r *Repo) CreateResource(ctx context.Context, tenantID string, resource *Resource) error {
	if err := requireTenant("CreateResource", tenantID); err != nil {
		return err
	}
	resource.TenantID = tenantID
	result, err := r.db.NewInsert().Model(resource).Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateResource").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "resource already exists").
				WithOp("CreateResource").
				WithTenant(tenantID).
				WithResource(resource.ID)
		}
		return storageErr("CreateResource", err).WithTenant(tenantID).WithResource(resource.ID)
	}
	return nil
}

// GetResource looks up a resource by (tenant, id).
func (r *Repo) GetResource(ctx context.Context, tenantID, id string) (*Resource, error) {
	if err := requireTenant("GetResource", tenantID); err != nil {
		return nil, err
	}
	var resource Resource
	err := dbkit.WithErr1(r.db.NewSelect().Model(&resource).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Scan(ctx), "GetResource").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "resource not found").
				WithOp("GetResource").
				WithTenant(tenantID).
				WithResource(id)
		}
		return nil, storageErr("GetResource", err).WithTenant(tenantID).WithResource(id)
	}
	return &resource, nil
}

// UpdateResource updates the mutable fields of a resource row.
func (r *Repo) UpdateResource(ctx context.Context, tenantID string, resource *Resource) error {
	if err := requireTenant("UpdateResource", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewUpdate().
		Model(resource).
		Column("name").
		Set("updated_at = current_timestamp").
		Where("tenant_id = ? AND id = ?", tenantID, resource.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateResource").Err(); err != nil {
		return storageErr("UpdateResource", err).WithTenant(tenantID).WithResource(resource.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "resource not found").
			WithOp("UpdateResource").
			WithTenant(tenantID).
			WithResource(resource.ID)
	}
	return nil
}

// DeleteResource removes the resource row only.
func (r *Repo) DeleteResource(ctx context.Context, tenantID, id string) error {
	if err := requireTenant("DeleteResource", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("resources").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteResource").Err(); err != nil {
		return storageErr("DeleteResource", err).WithTenant(tenantID).WithResource(id)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "resource not found").
			WithOp("DeleteResource").
			WithTenant(tenantID).
			WithResource(id)
	}
	return nil
}

// ListResources returns the tenant's resources ordered by id.
func (r *Repo) ListResources(ctx context.Context, tenantID string, opts ListOptions) ([]Resource, error) {
	return r.listResources(ctx, "ListResources", tenantID, "", opts)
}

// ListResourcesByPrefix returns the tenant's resources whose id starts with
// prefix, ordered by id. The empty prefix matches everything.
func (r *Repo) ListResourcesByPrefix(ctx context.Context, tenantID, prefix string, opts ListOptions) ([]Resource, error) {
	return r.listResources(ctx, "ListResourcesByPrefix", tenantID, prefix, opts)
}

func (r *Repo) listResources(ctx context.Context, op, tenantID, prefix string, opts ListOptions) ([]Resource, error) {
	if err := requireTenant(op, tenantID); err != nil {
		return nil, err
	}
	var resources []Resource
	q := r.db.NewSelect().Model(&resources).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Limit(opts.limitOrDefault())
	if prefix != "" {
		q = q.Where("id LIKE ?", likePrefixPattern(prefix))
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), op).Err(); err != nil {
		return nil, storageErr(op, err).WithTenant(tenantID)
	}
	return resources, nil
}

// ResourceExists reports whether a resource row exists.
func (r *Repo) ResourceExists(ctx context.Context, tenantID, id string) (bool, error) {
	if err := requireTenant("ResourceExists", tenantID); err != nil {
		return false, err
	}
	exists, err := dbkit.Exists[Resource](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ? AND id = ?", tenantID, id)
	})
	if err != nil {
		return false, storageErr("ResourceExists", err).WithTenant(tenantID).WithResource(id)
	}
	return exists, nil
}
