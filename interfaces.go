package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(tx *Service) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error
}

// PermissionResolver defines the permission resolution interface
type PermissionResolver interface {
	HasPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error)
	EffectivePermissions(ctx context.Context, tenantID, userID string, filter EffectiveFilter) ([]EffectivePermission, error)
	EffectivePermissionsByPrefix(ctx context.Context, tenantID, userID, resourceIDPrefix, action string) ([]EffectivePermission, error)
}

// GrantManager defines the grant and membership mutation interface
type GrantManager interface {
	GrantUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) error
	RevokeUserPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error)
	GrantRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) error
	RevokeRolePermission(ctx context.Context, tenantID, roleID, resourceID, action string) (bool, error)
	AssignUserRole(ctx context.Context, tenantID, userID, roleID string) error
	UnassignUserRole(ctx context.Context, tenantID, userID, roleID string) (bool, error)
}

// PropertyStore defines the property bag interface
type PropertyStore interface {
	SetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, value Value, hidden bool) error
	GetProperty(ctx context.Context, tenantID string, owner OwnerRef, name string, includeHidden bool) (Value, error)
	DeleteProperty(ctx context.Context, tenantID string, owner OwnerRef, name string) error
	ListProperties(ctx context.Context, tenantID string, owner OwnerRef, includeHidden bool) ([]Property, error)
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
	RunMigrations(ctx context.Context) (int, error)
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	ResetConnectionPool() error
	GetPoolStats() dbkit.PoolStats
}
