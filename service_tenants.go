package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// TENANT MANAGEMENT (ROOT allow-list)
// ============================================================================

// TenantInput carries the fields for creating or updating a tenant.
type TenantInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (in TenantInput) validate(op string) error {
	if err := ValidateID(in.ID); err != nil {
		return NewError(ErrValidation, "invalid tenant id").WithOp(op).WithTenant(in.ID).WithCause(err)
	}
	if in.Name == "" {
		return NewError(ErrValidation, "tenant name is required").WithOp(op).WithTenant(in.ID)
	}
	return nil
}

// CreateTenant creates a tenant. Tenant ids are caller-chosen and globally
// unique; creating an existing id is ErrConflict.
func (s *Service) CreateTenant(ctx context.Context, in TenantInput) (*Tenant, error) {
	if err := in.validate("CreateTenant"); err != nil {
		return nil, err
	}
	tenant := &Tenant{ID: in.ID, Name: in.Name, Description: in.Description}
	if err := s.repo.CreateTenant(ctx, tenant); err != nil {
		s.logFailure(ctx, "CreateTenant", err)
		return nil, err
	}
	return tenant, nil
}

// GetTenant fetches a tenant by id.
func (s *Service) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		s.logFailure(ctx, "GetTenant", err)
		return nil, err
	}
	return tenant, nil
}

// UpdateTenant replaces a tenant's name and description.
func (s *Service) UpdateTenant(ctx context.Context, in TenantInput) (*Tenant, error) {
	if err := in.validate("UpdateTenant"); err != nil {
		return nil, err
	}
	tenant := &Tenant{ID: in.ID, Name: in.Name, Description: in.Description}
	if err := s.repo.UpdateTenant(ctx, tenant); err != nil {
		s.logFailure(ctx, "UpdateTenant", err)
		return nil, err
	}
	return s.repo.GetTenant(ctx, in.ID)
}

// ListTenants returns tenants ordered by id.
func (s *Service) ListTenants(ctx context.Context, opts ListOptions) ([]Tenant, error) {
	tenants, err := s.repo.ListTenants(ctx, opts)
	if err != nil {
		s.logFailure(ctx, "ListTenants", err)
		return nil, err
	}
	return tenants, nil
}

// TenantExists reports whether a tenant exists.
func (s *Service) TenantExists(ctx context.Context, id string) (bool, error) {
	return s.repo.TenantExists(ctx, id)
}

// DeleteTenant destroys a tenant and everything it owns: users, roles,
// resources, memberships, grants, properties, and audit history. The safety
// key must equal the tenant id exactly; a mismatch is ErrPreconditionFailed
// and nothing is touched. The whole cascade runs in one transaction.
func (s *Service) DeleteTenant(ctx context.Context, id, safetyKey string) error {
	if safetyKey != id {
		return NewError(ErrPreconditionFailed, "safety key does not match tenant id").
			WithOp("DeleteTenant").
			WithTenant(id)
	}
	if _, err := s.repo.GetTenant(ctx, id); err != nil {
		s.logFailure(ctx, "DeleteTenant", err)
		return err
	}
	err := runInTx(ctx, s.repo.db, func(tx *dbkit.Tx) error {
		repo := NewRepo(tx)
		if err := repo.DeleteTenantData(ctx, id); err != nil {
			return err
		}
		return repo.DeleteTenant(ctx, id)
	})
	if err != nil {
		s.logFailure(ctx, "DeleteTenant", err)
		return err
	}
	// Recorded after the cascade, which clears the tenant's audit history;
	// this entry is the surviving record of the deletion itself.
	s.logAudit(ctx, id, auditEntry{
		Action:    AuditTenantDelete,
		SubjectID: id,
		Removed:   1,
	})
	return nil
}
