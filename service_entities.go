package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// USERS
// ============================================================================

// UserInput carries the fields for creating or updating a user. The identity
// pair links the user to an external identity provider and is optional.
type UserInput struct {
	ID                     string `json:"id"`
	IdentityProvider       string `json:"identity_provider,omitempty"`
	IdentityProviderUserID string `json:"identity_provider_user_id,omitempty"`
}

func (in UserInput) validate(op, tenantID string) error {
	if err := ValidateID(in.ID); err != nil {
		return NewError(ErrValidation, "invalid user id").
			WithOp(op).WithTenant(tenantID).WithUser(in.ID).WithCause(err)
	}
	if (in.IdentityProvider == "") != (in.IdentityProviderUserID == "") {
		return NewError(ErrValidation, "identity provider and provider user id must be set together").
			WithOp(op).WithTenant(tenantID).WithUser(in.ID)
	}
	return nil
}

// CreateUser creates a user in the tenant. User ids are unique per tenant;
// the same id in another tenant is a different user.
func (s *Service) CreateUser(ctx context.Context, tenantID string, in UserInput) (*User, error) {
	if err := in.validate("CreateUser", tenantID); err != nil {
		return nil, err
	}
	user := &User{
		ID:                     in.ID,
		IdentityProvider:       in.IdentityProvider,
		IdentityProviderUserID: in.IdentityProviderUserID,
	}
	if err := s.repo.CreateUser(ctx, tenantID, user); err != nil {
		s.logFailure(ctx, "CreateUser", err)
		return nil, err
	}
	return user, nil
}

// GetUser fetches a user by id within the tenant.
func (s *Service) GetUser(ctx context.Context, tenantID, id string) (*User, error) {
	return s.repo.GetUser(ctx, tenantID, id)
}

// GetUserByIdentity fetches a user by its external identity pair.
func (s *Service) GetUserByIdentity(ctx context.Context, tenantID, provider, providerUserID string) (*User, error) {
	if provider == "" || providerUserID == "" {
		return nil, NewError(ErrValidation, "identity provider and provider user id are required").
			WithOp("GetUserByIdentity").WithTenant(tenantID)
	}
	return s.repo.GetUserByIdentity(ctx, tenantID, provider, providerUserID)
}

// UpdateUser replaces a user's identity pair.
func (s *Service) UpdateUser(ctx context.Context, tenantID string, in UserInput) (*User, error) {
	if err := in.validate("UpdateUser", tenantID); err != nil {
		return nil, err
	}
	user := &User{
		ID:                     in.ID,
		IdentityProvider:       in.IdentityProvider,
		IdentityProviderUserID: in.IdentityProviderUserID,
	}
	if err := s.repo.UpdateUser(ctx, tenantID, user); err != nil {
		s.logFailure(ctx, "UpdateUser", err)
		return nil, err
	}
	return s.repo.GetUser(ctx, tenantID, in.ID)
}

// ListUsers returns the tenant's users ordered by id.
func (s *Service) ListUsers(ctx context.Context, tenantID string, opts ListOptions) ([]User, error) {
	return s.repo.ListUsers(ctx, tenantID, opts)
}

// DeleteUser removes a user together with its memberships, direct grants,
// and properties, in one transaction. Role grants the user reached through
// memberships are untouched; they belong to the roles.
func (s *Service) DeleteUser(ctx context.Context, tenantID, id string) error {
	err := runInTx(ctx, s.repo.db, func(tx *dbkit.Tx) error {
		repo := NewRepo(tx)
		if err := repo.DeleteUserEdges(ctx, tenantID, id); err != nil {
			return err
		}
		if err := repo.DeleteOwnerProperties(ctx, tenantID, NewOwnerRef(OwnerUser, id)); err != nil {
			return err
		}
		return repo.DeleteUser(ctx, tenantID, id)
	})
	if err != nil {
		s.logFailure(ctx, "DeleteUser", err)
		return err
	}
	return nil
}

// ============================================================================
// ROLES
// ============================================================================

// RoleInput carries the fields for creating or updating a role.
type RoleInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (in RoleInput) validate(op, tenantID string) error {
	if err := ValidateID(in.ID); err != nil {
		return NewError(ErrValidation, "invalid role id").
			WithOp(op).WithTenant(tenantID).WithRole(in.ID).WithCause(err)
	}
	if in.Name == "" {
		return NewError(ErrValidation, "role name is required").
			WithOp(op).WithTenant(tenantID).WithRole(in.ID)
	}
	return nil
}

// CreateRole creates a role in the tenant.
func (s *Service) CreateRole(ctx context.Context, tenantID string, in RoleInput) (*Role, error) {
	if err := in.validate("CreateRole", tenantID); err != nil {
		return nil, err
	}
	role := &Role{ID: in.ID, Name: in.Name}
	if err := s.repo.CreateRole(ctx, tenantID, role); err != nil {
		s.logFailure(ctx, "CreateRole", err)
		return nil, err
	}
	return role, nil
}

// GetRole fetches a role by id within the tenant.
func (s *Service) GetRole(ctx context.Context, tenantID, id string) (*Role, error) {
	return s.repo.GetRole(ctx, tenantID, id)
}

// UpdateRole replaces a role's name.
func (s *Service) UpdateRole(ctx context.Context, tenantID string, in RoleInput) (*Role, error) {
	if err := in.validate("UpdateRole", tenantID); err != nil {
		return nil, err
	}
	role := &Role{ID: in.ID, Name: in.Name}
	if err := s.repo.UpdateRole(ctx, tenantID, role); err != nil {
		s.logFailure(ctx, "UpdateRole", err)
		return nil, err
	}
	return s.repo.GetRole(ctx, tenantID, in.ID)
}

// ListRoles returns the tenant's roles ordered by id.
func (s *Service) ListRoles(ctx context.Context, tenantID string, opts ListOptions) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID, opts)
}

// DeleteRole removes a role together with its memberships, grants, and
// properties, in one transaction. Members lose the role's permissions
// immediately; the users themselves are untouched.
func (s *Service) DeleteRole(ctx context.Context, tenantID, id string) error {
	err := runInTx(ctx, s.repo.db, func(tx *dbkit.Tx) error {
		repo := NewRepo(tx)
		if err := repo.DeleteRoleEdges(ctx, tenantID, id); err != nil {
			return err
		}
		if err := repo.DeleteOwnerProperties(ctx, tenantID, NewOwnerRef(OwnerRole, id)); err != nil {
			return err
		}
		return repo.DeleteRole(ctx, tenantID, id)
	})
	if err != nil {
		s.logFailure(ctx, "DeleteRole", err)
		return err
	}
	return nil
}

// ============================================================================
// RESOURCES
// ============================================================================

// ResourceInput carries the fields for creating or updating a resource.
// Resource ids are plain strings; hierarchy is by naming convention
// ("documents/reports/q3"), not by a tree structure in the store.
type ResourceInput struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (in ResourceInput) validate(op, tenantID string) error {
	if err := ValidateID(in.ID); err != nil {
		return NewError(ErrValidation, "invalid resource id").
			WithOp(op).WithTenant(tenantID).WithResource(in.ID).WithCause(err)
	}
	return nil
}

// CreateResource registers a resource in the tenant.
func (s *Service) CreateResource(ctx context.Context, tenantID string, in ResourceInput) (*Resource, error) {
	if err := in.validate("CreateResource", tenantID); err != nil {
		return nil, err
	}
	resource := &Resource{ID: in.ID, Name: in.Name}
	if err := s.repo.CreateResource(ctx, tenantID, resource); err != nil {
		s.logFailure(ctx, "CreateResource", err)
		return nil, err
	}
	return resource, nil
}

// GetResource fetches a resource by id within the tenant.
func (s *Service) GetResource(ctx context.Context, tenantID, id string) (*Resource, error) {
	return s.repo.GetResource(ctx, tenantID, id)
}

// UpdateResource replaces a resource's name.
func (s *Service) UpdateResource(ctx context.Context, tenantID string, in ResourceInput) (*Resource, error) {
	if err := in.validate("UpdateResource", tenantID); err != nil {
		return nil, err
	}
	resource := &Resource{ID: in.ID, Name: in.Name}
	if err := s.repo.UpdateResource(ctx, tenantID, resource); err != nil {
		s.logFailure(ctx, "UpdateResource", err)
		return nil, err
	}
	return s.repo.GetResource(ctx, tenantID, in.ID)
}

// ListResources returns the tenant's resources ordered by id.
func (s *Service) ListResources(ctx context.Context, tenantID string, opts ListOptions) ([]Resource, error) {
	return s.repo.ListResources(ctx, tenantID, opts)
}

// ListResourcesByPrefix returns the tenant's resources whose id starts with
// prefix, ordered by id.
func (s *Service) ListResourcesByPrefix(ctx context.Context, tenantID, prefix string, opts ListOptions) ([]Resource, error) {
	if err := ValidateResourcePrefix(prefix); err != nil {
		return nil, NewError(ErrValidation, "invalid resource prefix").
			WithOp("ListResourcesByPrefix").WithTenant(tenantID).WithCause(err)
	}
	return s.repo.ListResourcesByPrefix(ctx, tenantID, prefix, opts)
}

// DeleteResource removes one resource together with every grant and property
// referencing it, in one transaction. The safety key must equal the resource
// id exactly; a mismatch is ErrPreconditionFailed and nothing is touched.
func (s *Service) DeleteResource(ctx context.Context, tenantID, id, safetyKey string) error {
	if safetyKey != id {
		return NewError(ErrPreconditionFailed, "safety key does not match resource id").
			WithOp("DeleteResource").
			WithTenant(tenantID).
			WithResource(id)
	}
	err := runInTx(ctx, s.repo.db, func(tx *dbkit.Tx) error {
		repo := NewRepo(tx)
		if err := repo.DeleteResourceGrants(ctx, tenantID, id); err != nil {
			return err
		}
		if err := repo.DeleteOwnerProperties(ctx, tenantID, NewOwnerRef(OwnerResource, id)); err != nil {
			return err
		}
		return repo.DeleteResource(ctx, tenantID, id)
	})
	if err != nil {
		s.logFailure(ctx, "DeleteResource", err)
		return err
	}
	s.logAudit(ctx, tenantID, auditEntry{
		Action:     AuditResourceDelete,
		ResourceID: id,
		Removed:    1,
	})
	return nil
}

// DeleteResourcesByPrefix atomically removes every resource whose id starts
// with prefix, with their grants and properties, and returns the count
// removed. The safety key must equal the prefix exactly. Matching zero
// resources is a successful no-op returning zero.
//
// An empty prefix matches every resource in the tenant; pair it with an
// empty safety key deliberately.
func (s *Service) DeleteResourcesByPrefix(ctx context.Context, tenantID, prefix, safetyKey string) (int, error) {
	if safetyKey != prefix {
		return 0, NewError(ErrPreconditionFailed, "safety key does not match resource prefix").
			WithOp("DeleteResourcesByPrefix").
			WithTenant(tenantID)
	}
	if err := ValidateResourcePrefix(prefix); err != nil {
		return 0, NewError(ErrValidation, "invalid resource prefix").
			WithOp("DeleteResourcesByPrefix").WithTenant(tenantID).WithCause(err)
	}
	count, err := s.engine.DeleteResourcesByIDPrefix(ctx, tenantID, prefix)
	if err != nil {
		s.logFailure(ctx, "DeleteResourcesByPrefix", err)
		return 0, err
	}
	if count > 0 {
		s.logAudit(ctx, tenantID, auditEntry{
			Action:     AuditCascadeDelete,
			ResourceID: prefix,
			Removed:    count,
		})
	}
	return count, nil
}
