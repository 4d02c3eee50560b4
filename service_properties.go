package authkit

import "context"

// ============================================================================
// PROPERTIES
// ============================================================================

// SetProperty attaches a named value to a tenant, user, role, or resource.
// Setting an existing name replaces its value and visibility. The owner must
// exist; attaching to OwnerTenant requires the owner id to be the tenant
// itself.
func (s *Service) SetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, value Value, hidden bool) error {
	if err := s.validateProperty("SetProperty", tenantID, owner, name); err != nil {
		return err
	}
	if value.IsZero() {
		return NewError(ErrValidation, "property value is required").
			WithOp("SetProperty").WithTenant(tenantID)
	}
	if err := s.requireOwner(ctx, "SetProperty", tenantID, owner); err != nil {
		return err
	}
	if err := s.repo.SetProperty(ctx, tenantID, owner, name, value, hidden); err != nil {
		s.logFailure(ctx, "SetProperty", err)
		return err
	}
	return nil
}

// GetProperty fetches one property value by owner and name. Hidden entries
// are invisible unless includeHidden is set; a hidden entry read without the
// flag is ErrNotFound, indistinguishable from absence.
func (s *Service) GetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, includeHidden bool) (Value, error) {
	if err := s.validateProperty("GetProperty", tenantID, owner, name); err != nil {
		return Value{}, err
	}
	prop, err := s.repo.GetProperty(ctx, tenantID, owner, name, includeHidden)
	if err != nil {
		s.logFailure(ctx, "GetProperty", err)
		return Value{}, err
	}
	return prop.Value, nil
}

// DeleteProperty removes one property entry. Deleting an absent entry is a
// successful no-op.
func (s *Service) DeleteProperty(ctx context.Context, tenantID string, owner OwnerRef, name string) error {
	if err := s.validateProperty("DeleteProperty", tenantID, owner, name); err != nil {
		return err
	}
	if _, err := s.repo.DeleteProperty(ctx, tenantID, owner, name); err != nil {
		s.logFailure(ctx, "DeleteProperty", err)
		return err
	}
	return nil
}

// ListProperties returns an owner's property entries ordered by name,
// excluding hidden entries unless includeHidden is set.
func (s *Service) ListProperties(ctx context.Context, tenantID string, owner OwnerRef, includeHidden bool) ([]Property, error) {
	if err := owner.Validate(); err != nil {
		return nil, NewError(ErrValidation, "invalid property owner").
			WithOp("ListProperties").WithTenant(tenantID).WithCause(err)
	}
	props, err := s.repo.ListProperties(ctx, tenantID, owner, includeHidden)
	if err != nil {
		s.logFailure(ctx, "ListProperties", err)
		return nil, err
	}
	return props, nil
}

func (s *Service) validateProperty(op, tenantID string, owner OwnerRef, name string) error {
	if err := owner.Validate(); err != nil {
		return NewError(ErrValidation, "invalid property owner").
			WithOp(op).WithTenant(tenantID).WithCause(err)
	}
	if name == "" {
		return NewError(ErrValidation, "property name is required").
			WithOp(op).WithTenant(tenantID)
	}
	return nil
}

// requireOwner verifies the property owner exists before attaching state to
// it. Orphan property bags are rejected rather than silently created.
func (s *Service) requireOwner(ctx context.Context, op, tenantID string, owner OwnerRef) error {
	switch owner.Kind {
	case OwnerTenant:
		if owner.ID != tenantID {
			return NewError(ErrIsolationViolation, "tenant properties must target the current tenant").
				WithOp(op).WithTenant(tenantID)
		}
		ok, err := s.repo.TenantExists(ctx, owner.ID)
		if err != nil {
			s.logFailure(ctx, op, err)
			return err
		}
		if !ok {
			return NewError(ErrNotFound, "tenant not found").WithOp(op).WithTenant(owner.ID)
		}
		return nil
	case OwnerUser:
		return s.requireUser(ctx, op, tenantID, owner.ID)
	case OwnerRole:
		return s.requireRole(ctx, op, tenantID, owner.ID)
	case OwnerResource:
		return s.requireResource(ctx, op, tenantID, owner.ID)
	default:
		return NewError(ErrValidation, "unknown property owner kind").
			WithOp(op).WithTenant(tenantID)
	}
}
