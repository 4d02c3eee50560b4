package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MigrationService provides schema management as an extension to Service.
type MigrationService struct {
	*Service
}

// NewMigrationService creates a migration service extension.
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns the ordered schema migrations for the package.
//
// All entity tables key on (tenant_id, id) so the same id can exist in
// different tenants. Prefix scans on resource ids use text_pattern_ops
// indexes so LIKE 'prefix%' stays an index range scan under non-C collations.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "authkit-001",
			Description: "Create tenants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS tenants (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    description TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "authkit-002",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    tenant_id TEXT NOT NULL,
                    id TEXT NOT NULL,
                    identity_provider TEXT NOT NULL DEFAULT '',
                    identity_provider_user_id TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, id)
                )`,
		},
		{
			ID:          "authkit-003",
			Description: "Create users identity lookup index",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_users_identity
                    ON users (tenant_id, identity_provider, identity_provider_user_id)
                    WHERE identity_provider <> ''`,
		},
		{
			ID:          "authkit-004",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    tenant_id TEXT NOT NULL,
                    id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, id)
                )`,
		},
		{
			ID:          "authkit-005",
			Description: "Create resources table with prefix-scan index",
			SQL: `
                CREATE TABLE IF NOT EXISTS resources (
                    tenant_id TEXT NOT NULL,
                    id TEXT NOT NULL,
                    name TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, id)
                );
                CREATE INDEX IF NOT EXISTS idx_resources_id_prefix
                    ON resources (tenant_id, id text_pattern_ops)`,
		},
		{
			ID:          "authkit-006",
			Description: "Create user_roles membership table",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    tenant_id TEXT NOT NULL,
                    user_id TEXT NOT NULL,
                    role_id TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, user_id, role_id)
                );
                CREATE INDEX IF NOT EXISTS idx_user_roles_role
                    ON user_roles (tenant_id, role_id)`,
		},
		{
			ID:          "authkit-007",
			Description: "Create user_permissions table with prefix-scan index",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_permissions (
                    tenant_id TEXT NOT NULL,
                    user_id TEXT NOT NULL,
                    resource_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, user_id, resource_id, action)
                );
                CREATE INDEX IF NOT EXISTS idx_user_permissions_resource
                    ON user_permissions (tenant_id, resource_id text_pattern_ops)`,
		},
		{
			ID:          "authkit-008",
			Description: "Create role_permissions table with prefix-scan index",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_permissions (
                    tenant_id TEXT NOT NULL,
                    role_id TEXT NOT NULL,
                    resource_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, role_id, resource_id, action)
                );
                CREATE INDEX IF NOT EXISTS idx_role_permissions_resource
                    ON role_permissions (tenant_id, resource_id text_pattern_ops)`,
		},
		{
			ID:          "authkit-009",
			Description: "Create properties table",
			SQL: `
                CREATE TABLE IF NOT EXISTS properties (
                    tenant_id TEXT NOT NULL,
                    owner_kind TEXT NOT NULL,
                    owner_id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    value JSONB NOT NULL,
                    hidden BOOLEAN NOT NULL DEFAULT false,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    PRIMARY KEY (tenant_id, owner_kind, owner_id, name)
                )`,
		},
		{
			ID:          "authkit-010",
			Description: "Create grant_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS grant_audit_log (
                    id UUID PRIMARY KEY,
                    tenant_id TEXT NOT NULL,
                    actor_id TEXT NOT NULL DEFAULT '',
                    action TEXT NOT NULL,
                    subject_kind TEXT NOT NULL DEFAULT '',
                    subject_id TEXT NOT NULL DEFAULT '',
                    resource_id TEXT NOT NULL DEFAULT '',
                    grant_action TEXT NOT NULL DEFAULT '',
                    request_id TEXT NOT NULL DEFAULT '',
                    removed INTEGER NOT NULL DEFAULT 0,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE INDEX IF NOT EXISTS idx_grant_audit_log_tenant_time
                    ON grant_audit_log (tenant_id, created_at DESC)`,
		},
	}
}

// RunMigrations applies any pending migrations and returns how many were
// applied.
func (ms *MigrationService) RunMigrations(ctx context.Context) (int, error) {
	db, ok := ms.repo.db.(*dbkit.DBKit)
	if !ok {
		return 0, NewError(ErrStorage, "migrations require a dbkit.DBKit instance").WithOp("RunMigrations")
	}
	result, err := db.Migrate(ctx, ms.Migrations())
	if err != nil {
		return 0, storageErr("RunMigrations", err)
	}
	return len(result.Applied), nil
}
