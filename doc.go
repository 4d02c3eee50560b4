// Package authkit provides a multi-tenant authorization engine backed by
// PostgreSQL through DBKit.
//
// AuthKit stores identities (tenants, users, roles, resources), grants of
// {action on resource} to users or roles, and answers "does this user have
// this permission" and "what permissions does this user effectively hold"
// queries. It is designed to sit behind an API layer that exposes each
// operation as a typed endpoint.
//
// # Core Concepts
//
// Tenant: The top-level isolation boundary. Every other entity belongs to
// exactly one tenant, and every call except tenant management itself takes
// an explicit tenant identifier. An empty tenant identifier (ROOT) is only
// valid for the tenant management operations; anywhere else it fails closed.
//
// Resource: A hierarchical, path-like identifier such as "docs/readme".
// AuthKit treats it as an opaque string that supports prefix comparison,
// which powers prefix aggregation and cascading prefix deletion.
//
// Grant: A (subject, resource, action) row authorizing a subject (user or
// role) to perform an action on a resource. Granting is an idempotent
// upsert; revoking a grant that does not exist is a successful no-op.
//
// Effective permission: A resolved grant reachable by a user either directly
// or through a role membership, reported with its source. Effective
// permissions are always recomputed from current grant state; nothing is
// cached between calls.
//
// # Basic Usage
//
//	// 1. Open the database through DBKit and build the service
//	cfg, _ := authkit.ConfigFromEnv()
//	service, db, _ := authkit.Open(ctx, cfg)
//	defer db.Close()
//
//	// 2. Run migrations
//	authkit.NewMigrationService(service).RunMigrations(ctx)
//
//	// 3. Build the tenant
//	service.CreateTenant(ctx, authkit.TenantInput{ID: "acme", Name: "ACME Inc."})
//	service.CreateUser(ctx, "acme", authkit.UserInput{ID: "alice"})
//	service.CreateRole(ctx, "acme", authkit.RoleInput{ID: "editor", Name: "Editor"})
//	service.CreateResource(ctx, "acme", authkit.ResourceInput{ID: "posts/42", Name: "Post 42"})
//
//	// 4. Grant and assign
//	service.GrantRolePermission(ctx, "acme", "editor", "posts/42", "edit")
//	service.AssignUserRole(ctx, "acme", "alice", "editor")
//
//	// 5. Check permissions
//	ok, _ := service.HasPermission(ctx, "acme", "alice", "posts/42", "edit")
//
// # Resolution Semantics
//
// HasPermission matches the resource id and action exactly; there is no
// wildcard expansion. EffectivePermissions returns the union of direct user
// grants and role grants reachable through current memberships. Duplicates
// across sources are preserved and tagged with their origin, in a
// deterministic order: user-sourced entries first (by resource id, then
// action), then role-sourced entries (by role id, resource id, action).
//
// # Destructive Operations
//
// Tenant deletion, resource deletion, and prefix bulk deletion require a
// safety key equal to the target identifier (or prefix). A mismatch fails
// with a precondition error before any mutation. Every entity delete
// cascades over dependent rows inside a single transaction, so no grant or
// membership row ever outlives its referenced entity.
//
// # Audit Log
//
// Grant, revocation, membership, and cascade operations are recorded in a
// grant audit log with the acting user and request metadata taken from the
// context helpers (WithActorID, WithRequestID).
package authkit
