package authkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func setupTenant(t *testing.T, svc *Service, ctx context.Context) string {
	t.Helper()
	tenantID := uniqueID("tenant")
	_, err := svc.CreateTenant(ctx, TenantInput{ID: tenantID, Name: "Test Tenant"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.DeleteTenant(ctx, tenantID, tenantID)
	})
	return tenantID
}

// TestEndToEndAuthorizationFlow walks the whole lifecycle: entities, grants,
// memberships, resolution, prefix aggregation, and cascading deletion.
func TestEndToEndAuthorizationFlow(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)

	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, tenantID, RoleInput{ID: "editors", Name: "Editors"})
	require.NoError(t, err)
	for _, res := range []string{"docs/readme", "docs/guide", "images/logo"} {
		_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: res})
		require.NoError(t, err)
	}

	// Direct grant plus role inheritance.
	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))
	require.NoError(t, svc.GrantRolePermission(ctx, tenantID, "editors", "docs/guide", "edit"))
	require.NoError(t, svc.AssignUserRole(ctx, tenantID, "alice", "editors"))

	ok, err := svc.HasPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(ctx, tenantID, "alice", "docs/guide", "edit")
	require.NoError(t, err)
	assert.True(t, ok, "inherited through membership")

	ok, err = svc.HasPermission(ctx, tenantID, "alice", "docs/readme", "write")
	require.NoError(t, err)
	assert.False(t, ok)

	perms, err := svc.EffectivePermissions(ctx, tenantID, "alice", EffectiveFilter{})
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, SourceUser, perms[0].Source)
	assert.Equal(t, SourceRole, perms[1].Source)
	assert.Equal(t, "editors", perms[1].RoleID)

	byPrefix, err := svc.EffectivePermissionsByPrefix(ctx, tenantID, "alice", "docs/", "")
	require.NoError(t, err)
	assert.Len(t, byPrefix, 2)

	// Unassigning withdraws inherited permissions immediately.
	unassigned, err := svc.UnassignUserRole(ctx, tenantID, "alice", "editors")
	require.NoError(t, err)
	assert.True(t, unassigned)
	ok, err = svc.HasPermission(ctx, tenantID, "alice", "docs/guide", "edit")
	require.NoError(t, err)
	assert.False(t, ok)

	// Prefix cascade removes resources and their grants atomically.
	removed, err := svc.DeleteResourcesByPrefix(ctx, tenantID, "docs/", "docs/")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ok, err = svc.HasPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.False(t, ok, "grants on cascaded resources are gone")

	remaining, err := svc.ListResources(ctx, tenantID, NewListOptions())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "images/logo", remaining[0].ID)
}

// TestGrantIdempotencyIntegration tests repeat grants and revokes
func TestGrantIdempotencyIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)

	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))
	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"),
		"granting twice succeeds without change")

	perms, err := svc.EffectivePermissions(ctx, tenantID, "alice", EffectiveFilter{})
	require.NoError(t, err)
	assert.Len(t, perms, 1, "idempotent, not additive")

	revoked, err := svc.RevokeUserPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.True(t, revoked, "first revoke removes the grant")

	revoked, err = svc.RevokeUserPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.False(t, revoked, "revoking an absent grant is a no-op reporting false")

	_, err = svc.CreateRole(ctx, tenantID, RoleInput{ID: "editors", Name: "Editors"})
	require.NoError(t, err)

	revoked, err = svc.RevokeRolePermission(ctx, tenantID, "editors", "docs/readme", "read")
	require.NoError(t, err)
	assert.False(t, revoked, "revoking a never-granted role permission succeeds with false")
}

// TestGrantRequiresExistingSubjects tests missing-entity rejection
func TestGrantRequiresExistingSubjects(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)

	err = svc.GrantUserPermission(ctx, tenantID, "ghost", "docs/readme", "read")
	assert.True(t, IsNotFound(err))

	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)

	err = svc.GrantUserPermission(ctx, tenantID, "alice", "missing-resource", "read")
	assert.True(t, IsNotFound(err))

	err = svc.AssignUserRole(ctx, tenantID, "alice", "missing-role")
	assert.True(t, IsNotFound(err))
}

// TestTenantIsolationIntegration tests that identical ids in two tenants do
// not leak into each other
func TestTenantIsolationIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantA := setupTenant(t, svc, ctx)
	tenantB := setupTenant(t, svc, ctx)

	for _, tenant := range []string{tenantA, tenantB} {
		_, err = svc.CreateUser(ctx, tenant, UserInput{ID: "alice"})
		require.NoError(t, err)
		_, err = svc.CreateResource(ctx, tenant, ResourceInput{ID: "docs/readme"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.GrantUserPermission(ctx, tenantA, "alice", "docs/readme", "read"))

	ok, err := svc.HasPermission(ctx, tenantB, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.False(t, ok, "grant in tenant A is invisible in tenant B")

	// Deleting tenant A leaves tenant B untouched.
	require.NoError(t, svc.DeleteTenant(ctx, tenantA, tenantA))

	_, err = svc.GetUser(ctx, tenantB, "alice")
	assert.NoError(t, err)
}

// TestDuplicateEntitiesIntegration tests conflict classification
func TestDuplicateEntitiesIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	assert.True(t, IsConflict(err))

	_, err = svc.CreateTenant(ctx, TenantInput{ID: tenantID, Name: "Again"})
	assert.True(t, IsConflict(err))
}

// TestPropertyBagIntegration tests the property lifecycle with hidden
// entries
func TestPropertyBagIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	owner := NewOwnerRef(OwnerUser, "alice")

	require.NoError(t, svc.SetProperty(ctx, tenantID, owner, "tier", StringValue("gold"), false))
	require.NoError(t, svc.SetProperty(ctx, tenantID, owner, "sso_secret", StringValue("s3cr3t"), true))

	v, err := svc.GetProperty(ctx, tenantID, owner, "tier", false)
	require.NoError(t, err)
	assert.True(t, v.Equal(StringValue("gold")))

	_, err = svc.GetProperty(ctx, tenantID, owner, "sso_secret", false)
	assert.True(t, IsNotFound(err), "hidden entry reads as absent without the flag")

	v, err = svc.GetProperty(ctx, tenantID, owner, "sso_secret", true)
	require.NoError(t, err)
	assert.True(t, v.Equal(StringValue("s3cr3t")))

	props, err := svc.ListProperties(ctx, tenantID, owner, false)
	require.NoError(t, err)
	assert.Len(t, props, 1)

	props, err = svc.ListProperties(ctx, tenantID, owner, true)
	require.NoError(t, err)
	assert.Len(t, props, 2)

	// Replacing value and visibility in place.
	require.NoError(t, svc.SetProperty(ctx, tenantID, owner, "tier", NumberValue(2), false))
	v, err = svc.GetProperty(ctx, tenantID, owner, "tier", false)
	require.NoError(t, err)
	assert.True(t, v.Equal(NumberValue(2)))

	require.NoError(t, svc.DeleteProperty(ctx, tenantID, owner, "tier"))
	_, err = svc.GetProperty(ctx, tenantID, owner, "tier", true)
	assert.True(t, IsNotFound(err))
}

// TestUserDeletionCascadeIntegration tests the user cascade leaves roles
// intact
func TestUserDeletionCascadeIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, tenantID, RoleInput{ID: "editors", Name: "Editors"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)

	require.NoError(t, svc.AssignUserRole(ctx, tenantID, "alice", "editors"))
	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))
	require.NoError(t, svc.GrantRolePermission(ctx, tenantID, "editors", "docs/readme", "edit"))

	require.NoError(t, svc.DeleteUser(ctx, tenantID, "alice"))

	_, err = svc.GetUser(ctx, tenantID, "alice")
	assert.True(t, IsNotFound(err))

	members, err := svc.ListRoleMembers(ctx, tenantID, "editors")
	require.NoError(t, err)
	assert.Empty(t, members)

	// The role and its grant survive.
	_, err = svc.GetRole(ctx, tenantID, "editors")
	assert.NoError(t, err)
}

// TestAuditLogIntegration tests that grant mutations leave audit entries
func TestAuditLogIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := WithActorID(context.Background(), "admin-bot")
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)

	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))
	_, err = svc.RevokeUserPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)

	logs, err := svc.GetAuditLog(ctx, tenantID, NewAuditFilter())
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Newest first.
	assert.Equal(t, AuditRevoke, logs[0].Action)
	assert.Equal(t, AuditGrant, logs[1].Action)
	for _, entry := range logs {
		assert.Equal(t, "admin-bot", entry.ActorID)
		assert.Equal(t, "alice", entry.SubjectID)
	}

	filtered, err := svc.GetAuditLog(ctx, tenantID, NewAuditFilter().WithAuditAction(AuditGrant))
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

// TestTenantDeletionAuditIntegration tests that destroying a tenant leaves a
// record even though the cascade clears the tenant's audit history
func TestTenantDeletionAuditIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := WithActorID(context.Background(), "admin-bot")
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)
	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))

	require.NoError(t, svc.DeleteTenant(ctx, tenantID, tenantID))

	logs, err := svc.GetAuditLog(ctx, tenantID, NewAuditFilter())
	require.NoError(t, err)
	require.Len(t, logs, 1, "prior entries are gone with the tenant")
	assert.Equal(t, AuditTenantDelete, logs[0].Action)
	assert.Equal(t, tenantID, logs[0].SubjectID)
	assert.Equal(t, "admin-bot", logs[0].ActorID)
}

// TestTransactionIntegration tests rollback of grouped mutations
func TestTransactionIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)

	err = svc.Transaction(ctx, func(tx *Service) error {
		if err := tx.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	ok, err := svc.HasPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.False(t, ok, "rolled back grant is invisible")

	err = svc.Transaction(ctx, func(tx *Service) error {
		return tx.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read")
	})
	require.NoError(t, err)

	ok, err = svc.HasPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.True(t, ok)

	metrics := svc.TransactionMetrics()
	assert.GreaterOrEqual(t, metrics.Committed, int64(1))
	assert.GreaterOrEqual(t, metrics.RolledBack, int64(1))
}

// TestCheckerIntegration tests the snapshot against live data
func TestCheckerIntegration(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	svc, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	tenantID := setupTenant(t, svc, ctx)
	_, err = svc.CreateUser(ctx, tenantID, UserInput{ID: "alice"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, tenantID, ResourceInput{ID: "docs/readme"})
	require.NoError(t, err)
	require.NoError(t, svc.GrantUserPermission(ctx, tenantID, "alice", "docs/readme", "read"))

	checker, err := svc.GetChecker(ctx, tenantID, "alice")
	require.NoError(t, err)

	assert.True(t, checker.Has("docs/readme", "read"))
	assert.False(t, checker.Has("docs/readme", "write"))

	// Snapshots do not follow later mutations.
	_, err = svc.RevokeUserPermission(ctx, tenantID, "alice", "docs/readme", "read")
	require.NoError(t, err)
	assert.True(t, checker.Has("docs/readme", "read"), "snapshot keeps the revoked grant")

	fresh, err := svc.GetChecker(ctx, tenantID, "alice")
	require.NoError(t, err)
	assert.False(t, fresh.Has("docs/readme", "read"))
}
