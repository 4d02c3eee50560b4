package authkit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrationsWellFormed tests identifiers, ordering, and table coverage
func TestMigrationsWellFormed(t *testing.T) {
	ms := NewMigrationService(newUnboundService())
	migrations := ms.Migrations()
	require.NotEmpty(t, migrations)

	seen := map[string]bool{}
	for _, m := range migrations {
		assert.True(t, strings.HasPrefix(m.ID, "authkit-"), m.ID)
		assert.False(t, seen[m.ID], "duplicate migration id %s", m.ID)
		seen[m.ID] = true
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
	}

	all := strings.Builder{}
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	sql := all.String()

	for _, table := range []string{
		"tenants", "users", "roles", "resources",
		"user_roles", "user_permissions", "role_permissions",
		"properties", "grant_audit_log",
	} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table, table)
	}
}

// TestMigrationsPrefixIndexes tests that resource id columns carry
// text_pattern_ops indexes for LIKE range scans
func TestMigrationsPrefixIndexes(t *testing.T) {
	ms := NewMigrationService(newUnboundService())

	count := 0
	for _, m := range ms.Migrations() {
		count += strings.Count(m.SQL, "text_pattern_ops")
	}
	assert.Equal(t, 3, count, "resources, user_permissions, and role_permissions")
}

// TestMigrationsTenantScopedKeys tests that entity tables key on the tenant
func TestMigrationsTenantScopedKeys(t *testing.T) {
	ms := NewMigrationService(newUnboundService())

	var usersSQL string
	for _, m := range ms.Migrations() {
		if strings.Contains(m.SQL, "CREATE TABLE IF NOT EXISTS users") {
			usersSQL = m.SQL
		}
	}
	require.NotEmpty(t, usersSQL)
	assert.Contains(t, usersSQL, "PRIMARY KEY (tenant_id, id)")
}
