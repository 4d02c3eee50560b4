package authkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSentinelErrors tests that all sentinel errors are properly defined
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "authkit: not found"},
		{"ErrValidation", ErrValidation, "authkit: invalid input"},
		{"ErrPreconditionFailed", ErrPreconditionFailed, "authkit: precondition failed"},
		{"ErrConflict", ErrConflict, "authkit: conflict"},
		{"ErrPermissionDenied", ErrPermissionDenied, "authkit: permission denied"},
		{"ErrStorage", ErrStorage, "authkit: storage error"},
		{"ErrIsolationViolation", ErrIsolationViolation, "authkit: tenant isolation violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.NotNil(t, tt.err)
		})
	}
}

// TestError_Error tests the Error method of Error struct
func TestError_Error(t *testing.T) {
	t.Run("With message", func(t *testing.T) {
		err := &Error{
			Err:     ErrNotFound,
			Message: "tenant not found",
		}
		assert.Equal(t, "authkit: not found: tenant not found", err.Error())
	})

	t.Run("Without message", func(t *testing.T) {
		err := &Error{Err: ErrNotFound}
		assert.Equal(t, "authkit: not found", err.Error())
	})

	t.Run("Cause never rendered", func(t *testing.T) {
		cause := fmt.Errorf("pq: connection refused on 10.0.0.5")
		err := NewError(ErrStorage, "database operation failed").WithCause(cause)
		assert.NotContains(t, err.Error(), "10.0.0.5")
		assert.Equal(t, cause, err.Cause())
	})
}

// TestErrorBuilders tests the fluent context builders
func TestErrorBuilders(t *testing.T) {
	err := NewError(ErrNotFound, "user not found").
		WithOp("GetUser").
		WithTenant("acme").
		WithUser("alice").
		WithRole("admins").
		WithResource("doc:1").
		WithAction("read")

	assert.Equal(t, "GetUser", err.Op)
	assert.Equal(t, "acme", err.TenantID)
	assert.Equal(t, "alice", err.UserID)
	assert.Equal(t, "admins", err.RoleID)
	assert.Equal(t, "doc:1", err.ResourceID)
	assert.Equal(t, "read", err.Action)
}

// TestErrorUnwrapping tests errors.Is/As through the wrapper
func TestErrorUnwrapping(t *testing.T) {
	err := NewError(ErrConflict, "tenant already exists").WithTenant("acme")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	var rich *Error
	assert.True(t, AsError(err, &rich))
	assert.Equal(t, "acme", rich.TenantID)

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.True(t, AsError(wrapped, &rich))
}

// TestErrorClassifiers tests the Is* helper functions
func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"IsNotFound", NewError(ErrNotFound, ""), IsNotFound},
		{"IsValidation", NewError(ErrValidation, ""), IsValidation},
		{"IsPreconditionFailed", NewError(ErrPreconditionFailed, ""), IsPreconditionFailed},
		{"IsConflict", NewError(ErrConflict, ""), IsConflict},
		{"IsPermissionDenied", NewError(ErrPermissionDenied, ""), IsPermissionDenied},
		{"IsStorage", NewError(ErrStorage, ""), IsStorage},
		{"IsIsolationViolation", NewError(ErrIsolationViolation, ""), IsIsolationViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			assert.False(t, tt.checker(errors.New("unrelated")))
			assert.False(t, tt.checker(nil))
		})
	}
}
