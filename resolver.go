package authkit

import (
	"context"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// Engine is the permission resolution engine: pure computation over the
// repository facade, no persistent state of its own. Nothing is cached
// between calls, so a grant mutation is visible to the next resolution.
type Engine struct {
	repo *Repo
}

// NewEngine creates a resolution engine over a repository facade.
func NewEngine(repo *Repo) *Engine {
	return &Engine{repo: repo}
}

// EffectiveFilter narrows an effective-permission aggregation. Both fields
// are exact-match predicates applied before aggregation; empty means "any".
type EffectiveFilter struct {
	ResourceID string
	Action     string
}

// HasPermission reports whether the user holds the exact (resource, action)
// pair, either through a direct grant or through any current role
// membership. Exact string equality on both; absence of a match is false,
// not an error.
func (e *Engine) HasPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	start := time.Now()
	ok, err := e.hasPermission(ctx, tenantID, userID, resourceID, action)
	observePermissionCheck(ok, err, time.Since(start))
	return ok, err
}

func (e *Engine) hasPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	ok, err := e.repo.HasUserPermission(ctx, tenantID, userID, resourceID, action)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return e.repo.HasRolePermissionViaMembership(ctx, tenantID, userID, resourceID, action)
}

// EffectivePermissions returns the union of every direct grant of the user
// and every role grant reachable through current memberships, after applying
// the exact-match filter.
//
// Duplicates are not collapsed across sources: two roles granting the same
// (resource, action) yield two entries, each tagged with its own role id,
// and a direct grant alongside a role grant yields both. Ordering is
// deterministic: user-sourced entries first (resource id, then action),
// then role-sourced entries (role id, resource id, action).
func (e *Engine) EffectivePermissions(ctx context.Context, tenantID, userID string, filter EffectiveFilter) ([]EffectivePermission, error) {
	gq := grantQuery{resourceID: filter.ResourceID, action: filter.Action}
	return e.collect(ctx, tenantID, userID, gq)
}

// EffectivePermissionsByPrefix is the same aggregation with the resource id
// matched by string prefix instead of equality. The optional action filter
// remains an exact match applied after prefix selection. The empty prefix
// matches every resource.
func (e *Engine) EffectivePermissionsByPrefix(ctx context.Context, tenantID, userID, resourceIDPrefix, action string) ([]EffectivePermission, error) {
	gq := grantQuery{resourcePrefix: resourceIDPrefix, usePrefix: true, action: action}
	return e.collect(ctx, tenantID, userID, gq)
}

func (e *Engine) collect(ctx context.Context, tenantID, userID string, gq grantQuery) ([]EffectivePermission, error) {
	direct, err := e.repo.userPermissions(ctx, tenantID, userID, gq)
	if err != nil {
		return nil, err
	}
	inherited, err := e.repo.rolePermissionsForUser(ctx, tenantID, userID, gq)
	if err != nil {
		return nil, err
	}
	return mergeEffective(direct, inherited), nil
}

// mergeEffective builds the ordered effective-permission list from fetched
// grant rows. Pure; the SQL ordering is repeated here so the contract does
// not depend on the store.
func mergeEffective(direct []UserPermission, inherited []RolePermission) []EffectivePermission {
	merged := make([]EffectivePermission, 0, len(direct)+len(inherited))
	for _, g := range direct {
		merged = append(merged, EffectivePermission{
			ResourceID: g.ResourceID,
			Action:     g.Action,
			Source:     SourceUser,
		})
	}
	for _, g := range inherited {
		merged = append(merged, EffectivePermission{
			ResourceID: g.ResourceID,
			Action:     g.Action,
			Source:     SourceRole,
			RoleID:     g.RoleID,
		})
	}
	sortEffective(merged)
	return merged
}

// sortEffective applies the deterministic ordering: user entries before role
// entries, user entries by (resource, action), role entries by (role,
// resource, action).
func sortEffective(perms []EffectivePermission) {
	sort.SliceStable(perms, func(i, j int) bool {
		a, b := perms[i], perms[j]
		if a.Source != b.Source {
			return a.Source == SourceUser
		}
		if a.Source == SourceRole && a.RoleID != b.RoleID {
			return a.RoleID < b.RoleID
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.Action < b.Action
	})
}

// filterEffective applies exact-match and prefix predicates to an
// already-built list. Used by the Checker; resolution queries filter in SQL.
func filterEffective(perms []EffectivePermission, prefix, action string) []EffectivePermission {
	out := make([]EffectivePermission, 0, len(perms))
	for _, p := range perms {
		if !HasResourcePrefix(p.ResourceID, prefix) {
			continue
		}
		if action != "" && p.Action != action {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DeleteResourcesByIDPrefix atomically removes every resource whose id
// starts with the prefix, together with every grant and property referencing
// those resources, and returns the number of resources removed. Zero is a
// valid success. A reader never observes the resources gone while their
// grants remain, or vice versa: the whole cascade is one transaction.
func (e *Engine) DeleteResourcesByIDPrefix(ctx context.Context, tenantID, prefix string) (int, error) {
	if err := requireTenant("DeleteResourcesByIDPrefix", tenantID); err != nil {
		return 0, err
	}

	var count int
	err := runInTx(ctx, e.repo.db, func(tx *dbkit.Tx) error {
		var ids []string
		err := dbkit.WithErr1(tx.NewRaw(
			"SELECT id FROM resources WHERE tenant_id = ? AND id LIKE ? ORDER BY id",
			tenantID, likePrefixPattern(prefix)).Scan(ctx, &ids), "DeleteResourcesByIDPrefix").Err()
		if err != nil && !dbkit.IsNotFound(err) {
			return storageErr("DeleteResourcesByIDPrefix", err).WithTenant(tenantID)
		}
		if len(ids) == 0 {
			return nil
		}

		for _, table := range []string{"user_permissions", "role_permissions"} {
			result, err := tx.NewDelete().Table(table).
				Where("tenant_id = ? AND resource_id IN (?)", tenantID, bun.In(ids)).
				Exec(ctx)
			if err = dbkit.WithErr(result, err, "DeleteResourcesByIDPrefix").Err(); err != nil {
				return storageErr("DeleteResourcesByIDPrefix", err).WithTenant(tenantID)
			}
		}

		result, err := tx.NewDelete().Table("properties").
			Where("tenant_id = ? AND owner_kind = ? AND owner_id IN (?)",
				tenantID, OwnerResource, bun.In(ids)).
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "DeleteResourcesByIDPrefix").Err(); err != nil {
			return storageErr("DeleteResourcesByIDPrefix", err).WithTenant(tenantID)
		}

		result, err = tx.NewDelete().Table("resources").
			Where("tenant_id = ? AND id IN (?)", tenantID, bun.In(ids)).
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "DeleteResourcesByIDPrefix").Err(); err != nil {
			return storageErr("DeleteResourcesByIDPrefix", err).WithTenant(tenantID)
		}
		rows, _ := result.RowsAffected()
		count = int(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	observeCascadeDelete(count)
	return count, nil
}
