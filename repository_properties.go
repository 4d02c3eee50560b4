package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// PROPERTIES
// ============================================================================

// SetProperty upserts a property entry for an owner. Setting an existing
// name replaces its value and visibility.
func (r *Repo) SetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, value Value, hidden bool) error {
	if err := requireTenant("SetProperty", tenantID); err != nil {
		return err
	}
	prop := &Property{
		TenantID:  tenantID,
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		Name:      name,
		Value:     value,
		Hidden:    hidden,
	}
	result, err := r.db.NewInsert().
		Model(prop).
		On("CONFLICT (tenant_id, owner_kind, owner_id, name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("hidden = EXCLUDED.hidden").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "SetProperty").Err(); err != nil {
		return storageErr("SetProperty", err).WithTenant(tenantID)
	}
	return nil
}

// GetProperty looks up one property entry by owner and name. Hidden entries
// are only visible when includeHidden is set.
func (r *Repo) GetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, includeHidden bool) (*Property, error) {
	if err := requireTenant("GetProperty", tenantID); err != nil {
		return nil, err
	}
	var prop Property
	q := r.db.NewSelect().Model(&prop).
		Where("tenant_id = ? AND owner_kind = ? AND owner_id = ? AND name = ?",
			tenantID, owner.Kind, owner.ID, name)
	if !includeHidden {
		q = q.Where("hidden = false")
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "GetProperty").Err(); err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "property not found").
				WithOp("GetProperty").
				WithTenant(tenantID)
		}
		return nil, storageErr("GetProperty", err).WithTenant(tenantID)
	}
	return &prop, nil
}

// DeleteProperty removes one property entry, reporting whether a row was
// removed. Deleting an absent entry is a successful no-op.
func (r *Repo) DeleteProperty(ctx context.Context, tenantID string, owner OwnerRef, name string) (bool, error) {
	if err := requireTenant("DeleteProperty", tenantID); err != nil {
		return false, err
	}
	result, err := r.db.NewDelete().Table("properties").
		Where("tenant_id = ? AND owner_kind = ? AND owner_id = ? AND name = ?",
			tenantID, owner.Kind, owner.ID, name).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteProperty").Err(); err != nil {
		return false, storageErr("DeleteProperty", err).WithTenant(tenantID)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListProperties returns the property entries of an owner ordered by name.
// Hidden entries are excluded unless includeHidden is set.
func (r *Repo) ListProperties(ctx context.Context, tenantID string, owner OwnerRef, includeHidden bool) ([]Property, error) {
	if err := requireTenant("ListProperties", tenantID); err != nil {
		return nil, err
	}
	var props []Property
	q := r.db.NewSelect().Model(&props).
		Where("tenant_id = ? AND owner_kind = ? AND owner_id = ?",
			tenantID, owner.Kind, owner.ID).
		Order("name")
	if !includeHidden {
		q = q.Where("hidden = false")
	}
	if err := dbkit.WithErr1(q.Scan(ctx), "ListProperties").Err(); err != nil {
		return nil, storageErr("ListProperties", err).WithTenant(tenantID)
	}
	return props, nil
}

// DeleteOwnerProperties removes the whole property bag of an owner. Used by
// the entity-deletion cascades.
func (r *Repo) DeleteOwnerProperties(ctx context.Context, tenantID string, owner OwnerRef) error {
	if err := requireTenant("DeleteOwnerProperties", tenantID); err != nil {
		return err
	}
	result, err := r.db.NewDelete().Table("properties").
		Where("tenant_id = ? AND owner_kind = ? AND owner_id = ?",
			tenantID, owner.Kind, owner.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteOwnerProperties").Err(); err != nil {
		return storageErr("DeleteOwnerProperties", err).WithTenant(tenantID)
	}
	return nil
}
