package authkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestOwnerKindValid tests the owner kind enumeration
func TestOwnerKindValid(t *testing.T) {
	for _, k := range []OwnerKind{OwnerTenant, OwnerUser, OwnerRole, OwnerResource} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, OwnerKind("").Valid())
	assert.False(t, OwnerKind("group").Valid())
}

// TestOwnerRefValidate tests owner reference validation
func TestOwnerRefValidate(t *testing.T) {
	assert.NoError(t, NewOwnerRef(OwnerUser, "alice").Validate())

	err := NewOwnerRef(OwnerKind("group"), "x").Validate()
	assert.True(t, IsValidation(err))

	err = NewOwnerRef(OwnerRole, "").Validate()
	assert.True(t, IsValidation(err))
}

// TestOwnerRefString tests the display form
func TestOwnerRefString(t *testing.T) {
	assert.Equal(t, "resource:docs/readme", NewOwnerRef(OwnerResource, "docs/readme").String())
}

// TestPropertyOwner tests deriving the owner reference from a row
func TestPropertyOwner(t *testing.T) {
	p := &Property{OwnerKind: OwnerTenant, OwnerID: "acme"}
	assert.Equal(t, NewOwnerRef(OwnerTenant, "acme"), p.Owner())
}
