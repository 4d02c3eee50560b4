package authkit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// Repo is the tenant-scoped repository facade over the entity and
// relationship tables. Every method except the tenant management allow-list
// takes an explicit tenant identifier and injects it as a filter predicate;
// this is an application-level isolation boundary, not delegated to the
// database's own access control. A method that omits the tenant filter is an
// isolation bug, not a performance issue.
//
// Methods never raise for expected conditions: absence is ErrNotFound,
// duplicates are ErrConflict, store faults are ErrStorage with the cause
// retained for logging.
type Repo struct {
	db dbkit.IDB
}

// NewRepo creates a repository facade over a DBKit handle. The handle may be
// a *dbkit.DBKit or a *dbkit.Tx; binding a Repo to a transaction scopes all
// of its operations to that transaction.
func NewRepo(db dbkit.IDB) *Repo {
	return &Repo{db: db}
}

// DB exposes the underlying handle for extensions (health, pool, metrics).
func (r *Repo) DB() dbkit.IDB {
	return r.db
}

// requireTenant enforces the isolation contract: outside the ROOT allow-list
// an empty tenant identifier always fails closed.
func requireTenant(op, tenantID string) error {
	if tenantID == RootTenant {
		return NewError(ErrIsolationViolation, "operation requires a tenant id").WithOp(op)
	}
	return nil
}

// storageErr wraps a store fault, keeping the cause for logs only.
func storageErr(op string, cause error) *Error {
	return NewError(ErrStorage, "database operation failed").WithOp(op).WithCause(cause)
}

// ============================================================================
// TENANTS (ROOT allow-list: no tenant filter by definition)
// ============================================================================

// CreateTenant inserts a tenant row. A duplicate id is ErrConflict.
func (r *Repo) CreateTenant(ctx context.Context, tenant *Tenant) error {
	result, err := r.db.NewInsert().Model(tenant).Exec(ctx)
	if err = dbkit.WithErr(result, err, "CreateTenant").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrConflict, "tenant already exists").
				WithOp("CreateTenant").
				WithTenant(tenant.ID)
		}
		return storageErr("CreateTenant", err).WithTenant(tenant.ID)
	}
	return nil
}

// GetTenant looks up a tenant by id.
func (r *Repo) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var tenant Tenant
	err := dbkit.WithErr1(r.db.NewSelect().Model(&tenant).Where("id = ?", id).Scan(ctx), "GetTenant").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "tenant not found").
				WithOp("GetTenant").
				WithTenant(id)
		}
		return nil, storageErr("GetTenant", err).WithTenant(id)
	}
	return &tenant, nil
}

// UpdateTenant updates the mutable fields of a tenant row.
func (r *Repo) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	result, err := r.db.NewUpdate().
		Model(tenant).
		Column("name", "description").
		Set("updated_at = current_timestamp").
		Where("id = ?", tenant.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateTenant").Err(); err != nil {
		return storageErr("UpdateTenant", err).WithTenant(tenant.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "tenant not found").
			WithOp("UpdateTenant").
			WithTenant(tenant.ID)
	}
	return nil
}

// DeleteTenant removes the tenant row only. Cascading over the tenant's
// entities and grants is the orchestration layer's job, inside a
// transaction.
func (r *Repo) DeleteTenant(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().Table("tenants").Where("id = ?", id).Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteTenant").Err(); err != nil {
		return storageErr("DeleteTenant", err).WithTenant(id)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return NewError(ErrNotFound, "tenant not found").
			WithOp("DeleteTenant").
			WithTenant(id)
	}
	return nil
}

// ListTenants returns tenants ordered by id.
func (r *Repo) ListTenants(ctx context.Context, opts ListOptions) ([]Tenant, error) {
	var tenants []Tenant
	q := r.db.NewSelect().Model(&tenants).Order("id").Limit(opts.limitOrDefault())
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "ListTenants").Err(); err != nil {
		return nil, storageErr("ListTenants", err)
	}
	return tenants, nil
}

// TenantExists reports whether a tenant row exists.
func (r *Repo) TenantExists(ctx context.Context, id string) (bool, error) {
	exists, err := dbkit.Exists[Tenant](ctx, r.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
	if err != nil {
		return false, storageErr("TenantExists", err).WithTenant(id)
	}
	return exists, nil
}
