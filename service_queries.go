package authkit

import "context"

// ============================================================================
// PERMISSION QUERIES
// ============================================================================

// HasPermission reports whether the user holds the exact (resource, action)
// pair from any source. The hot path of the package; a missing user or
// resource yields false, not an error.
func (s *Service) HasPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	ok, err := s.engine.HasPermission(ctx, tenantID, userID, resourceID, action)
	if err != nil {
		s.logFailure(ctx, "HasPermission", err)
		return false, err
	}
	return ok, nil
}

// EffectivePermissions returns every permission the user holds, direct and
// role-derived, with source attribution, optionally filtered.
func (s *Service) EffectivePermissions(ctx context.Context, tenantID, userID string, filter EffectiveFilter) ([]EffectivePermission, error) {
	perms, err := s.engine.EffectivePermissions(ctx, tenantID, userID, filter)
	if err != nil {
		s.logFailure(ctx, "EffectivePermissions", err)
		return nil, err
	}
	return perms, nil
}

// EffectivePermissionsByPrefix returns the user's permissions over the
// resource subtree named by the id prefix, optionally narrowed to one
// action.
func (s *Service) EffectivePermissionsByPrefix(ctx context.Context, tenantID, userID, resourceIDPrefix, action string) ([]EffectivePermission, error) {
	if err := ValidateResourcePrefix(resourceIDPrefix); err != nil {
		return nil, NewError(ErrValidation, "invalid resource prefix").
			WithOp("EffectivePermissionsByPrefix").WithTenant(tenantID).WithCause(err)
	}
	perms, err := s.engine.EffectivePermissionsByPrefix(ctx, tenantID, userID, resourceIDPrefix, action)
	if err != nil {
		s.logFailure(ctx, "EffectivePermissionsByPrefix", err)
		return nil, err
	}
	return perms, nil
}

// GetChecker builds an immutable in-memory snapshot of the user's effective
// permissions for repeated checks without further queries. The snapshot does
// not follow later mutations.
func (s *Service) GetChecker(ctx context.Context, tenantID, userID string) (*Checker, error) {
	perms, err := s.engine.EffectivePermissions(ctx, tenantID, userID, EffectiveFilter{})
	if err != nil {
		s.logFailure(ctx, "GetChecker", err)
		return nil, err
	}
	return newChecker(tenantID, userID, perms), nil
}
