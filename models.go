package authkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Tenant is the root of isolation. Every other entity belongs to exactly one
// tenant. The id is caller-assigned and globally unique.
type Tenant struct {
	bun.BaseModel `bun:"table:tenants,alias:t"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// User is an identity within a tenant. The (IdentityProvider,
// IdentityProviderUserID) pair is a secondary lookup key; the engine does
// not require it to be unique.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	TenantID               string    `bun:"tenant_id,pk"`
	ID                     string    `bun:"id,pk"`
	IdentityProvider       string    `bun:"identity_provider"`
	IdentityProviderUserID string    `bun:"identity_provider_user_id"`
	CreatedAt              time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt              time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Role is a named bundle of permissions within a tenant.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	TenantID  string    `bun:"tenant_id,pk"`
	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Resource is something permissions attach to. The id is a hierarchical,
// path-like string (e.g. "docs/readme") treated as opaque except for prefix
// comparison.
type Resource struct {
	bun.BaseModel `bun:"table:resources,alias:res"`

	TenantID  string    `bun:"tenant_id,pk"`
	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// UserRole is a membership edge between a user and a role, unique per
// (tenant, user, role).
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	TenantID  string    `bun:"tenant_id,pk"`
	UserID    string    `bun:"user_id,pk"`
	RoleID    string    `bun:"role_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserPermission grants an action on a resource directly to a user, unique
// per (tenant, user, resource, action). Granting is idempotent, not
// additive.
type UserPermission struct {
	bun.BaseModel `bun:"table:user_permissions,alias:up"`

	TenantID   string    `bun:"tenant_id,pk"`
	UserID     string    `bun:"user_id,pk"`
	ResourceID string    `bun:"resource_id,pk"`
	Action     string    `bun:"action,pk"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RolePermission grants an action on a resource to every member of a role,
// unique per (tenant, role, resource, action).
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	TenantID   string    `bun:"tenant_id,pk"`
	RoleID     string    `bun:"role_id,pk"`
	ResourceID string    `bun:"resource_id,pk"`
	Action     string    `bun:"action,pk"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// OwnerKind tags which entity kind a property is attached to.
type OwnerKind string

const (
	OwnerTenant   OwnerKind = "tenant"
	OwnerUser     OwnerKind = "user"
	OwnerRole     OwnerKind = "role"
	OwnerResource OwnerKind = "resource"
)

// Valid reports whether the kind is one of the four entity kinds.
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerTenant, OwnerUser, OwnerRole, OwnerResource:
		return true
	}
	return false
}

// OwnerRef identifies the owner of a property: an explicit kind tag plus the
// owner's id. One property table serves all four entity kinds, so get, set,
// and delete logic exists exactly once.
type OwnerRef struct {
	Kind OwnerKind
	ID   string
}

// NewOwnerRef creates an OwnerRef.
func NewOwnerRef(kind OwnerKind, id string) OwnerRef {
	return OwnerRef{Kind: kind, ID: id}
}

// String returns a string representation of the owner reference.
func (o OwnerRef) String() string {
	return string(o.Kind) + ":" + o.ID
}

// Validate checks the reference for a known kind and non-empty id.
func (o OwnerRef) Validate() error {
	if !o.Kind.Valid() {
		return NewError(ErrValidation, "unknown property owner kind "+string(o.Kind))
	}
	if o.ID == "" {
		return NewError(ErrValidation, "property owner id is required")
	}
	return nil
}

// Property is one entry of the per-owner extensible name/value bag, unique
// per (tenant, owner kind, owner id, name). Hidden entries are excluded from
// reads unless the caller opts in.
type Property struct {
	bun.BaseModel `bun:"table:properties,alias:p"`

	TenantID  string    `bun:"tenant_id,pk"`
	OwnerKind OwnerKind `bun:"owner_kind,pk"`
	OwnerID   string    `bun:"owner_id,pk"`
	Name      string    `bun:"name,pk"`
	Value     Value     `bun:"value,type:jsonb"`
	Hidden    bool      `bun:"hidden,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Owner returns the owner reference of the property.
func (p *Property) Owner() OwnerRef {
	return OwnerRef{Kind: p.OwnerKind, ID: p.OwnerID}
}

// PermissionSource tags where an effective permission came from.
type PermissionSource string

const (
	SourceUser PermissionSource = "user"
	SourceRole PermissionSource = "role"
)

// EffectivePermission is a resolved grant reachable by a user, either
// directly or through a role membership. It is derived on every call and
// never persisted; a grant mutation is immediately visible to the next
// resolution.
type EffectivePermission struct {
	ResourceID string           `json:"resourceId"`
	Action     string           `json:"action"`
	Source     PermissionSource `json:"source"`
	RoleID     string           `json:"roleId,omitempty"`
}
