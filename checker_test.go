package authkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func snapshotFixture() *Checker {
	return newChecker("acme", "alice", []EffectivePermission{
		{ResourceID: "docs/readme", Action: "read", Source: SourceUser},
		{ResourceID: "docs/readme", Action: "write", Source: SourceUser},
		{ResourceID: "docs/guide", Action: "read", Source: SourceRole, RoleID: "viewers"},
		{ResourceID: "docs/readme", Action: "read", Source: SourceRole, RoleID: "viewers"},
		{ResourceID: "images/logo", Action: "view", Source: SourceRole, RoleID: "designers"},
		{ResourceID: "docs", Action: "list", Source: SourceUser},
	})
}

// TestCheckerIdentity tests the snapshot identity accessors
func TestCheckerIdentity(t *testing.T) {
	c := snapshotFixture()
	assert.Equal(t, "acme", c.TenantID())
	assert.Equal(t, "alice", c.UserID())
	assert.False(t, c.IsEmpty())

	assert.True(t, newChecker("acme", "bob", nil).IsEmpty())
}

// TestCheckerHas tests exact pair lookups
func TestCheckerHas(t *testing.T) {
	c := snapshotFixture()

	assert.True(t, c.Has("docs/readme", "read"))
	assert.True(t, c.Has("docs/guide", "read"), "role-sourced entries count")
	assert.False(t, c.Has("docs/guide", "write"))
	assert.False(t, c.Has("missing", "read"))
}

// TestCheckerHasAnyAll tests multi-action checks
func TestCheckerHasAnyAll(t *testing.T) {
	c := snapshotFixture()

	assert.True(t, c.HasAny("docs/readme", "delete", "read"))
	assert.False(t, c.HasAny("docs/readme", "delete", "share"))

	assert.True(t, c.HasAll("docs/readme", "read", "write"))
	assert.False(t, c.HasAll("docs/readme", "read", "delete"))
	assert.True(t, c.HasAll("docs/readme"), "vacuously true for no actions")
}

// TestCheckerForResource tests per-resource slicing
func TestCheckerForResource(t *testing.T) {
	c := snapshotFixture()

	entries := c.ForResource("docs/readme")
	assert.Len(t, entries, 3, "duplicate sources preserved")

	entries = c.ForResource("docs")
	assert.Len(t, entries, 1, "ids that prefix other ids match only themselves")
	assert.Equal(t, "list", entries[0].Action)

	assert.Empty(t, c.ForResource("missing"))
}

// TestCheckerWithPrefix tests prefix slicing
func TestCheckerWithPrefix(t *testing.T) {
	c := snapshotFixture()

	assert.Len(t, c.WithPrefix("docs/", ""), 4)
	assert.Len(t, c.WithPrefix("docs", ""), 5, "prefix matching includes the bare id")
	assert.Len(t, c.WithPrefix("docs/", "read"), 3)
	assert.Len(t, c.WithPrefix("", ""), 6)
	assert.Empty(t, c.WithPrefix("videos/", ""))
}

// TestCheckerResourcesAndActions tests distinct enumeration
func TestCheckerResourcesAndActions(t *testing.T) {
	c := snapshotFixture()

	assert.Equal(t, []string{"docs/readme", "docs/guide", "images/logo", "docs"}, c.Resources())
	assert.Equal(t, []string{"read", "write"}, c.Actions("docs/readme"))
	assert.Empty(t, c.Actions("missing"))
}

// TestCheckerEntriesCopy tests that Entries returns an independent slice
func TestCheckerEntriesCopy(t *testing.T) {
	c := snapshotFixture()

	entries := c.Entries()
	entries[0].ResourceID = "mutated"

	assert.Equal(t, "docs/readme", c.Entries()[0].ResourceID)
}
