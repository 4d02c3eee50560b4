package authkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for AuthKit operations. Every expected failure maps to one
// of these kinds; callers classify with errors.Is or the Is* helpers below.
var (
	// ErrNotFound is returned when an entity is absent on a point lookup.
	ErrNotFound = errors.New("authkit: not found")

	// ErrValidation is returned for malformed or missing required input.
	ErrValidation = errors.New("authkit: invalid input")

	// ErrPreconditionFailed is returned when a safety key does not match
	// the target of a destructive operation.
	ErrPreconditionFailed = errors.New("authkit: precondition failed")

	// ErrConflict is returned when a create hits a duplicate unique key
	// and an idempotent upsert is not applicable.
	ErrConflict = errors.New("authkit: conflict")

	// ErrPermissionDenied is produced by the HTTP middleware when a check
	// comes back negative. Service query methods report denial as a plain
	// false, never as this error.
	ErrPermissionDenied = errors.New("authkit: permission denied")

	// ErrStorage is returned when the underlying store fails. The cause is
	// preserved for logging but never rendered in the error message.
	ErrStorage = errors.New("authkit: storage error")

	// ErrIsolationViolation is returned when an operation that requires a
	// tenant filter is attempted without one, or ROOT is used outside its
	// allow-list. Always fails closed.
	ErrIsolationViolation = errors.New("authkit: tenant isolation violation")
)

// Error wraps a sentinel error with operation and entity context.
type Error struct {
	Err        error  // Underlying sentinel error
	Message    string // Additional context
	Op         string // Operation name (e.g. "GrantUserPermission")
	TenantID   string // Tenant involved
	UserID     string // User involved (if applicable)
	RoleID     string // Role involved (if applicable)
	ResourceID string // Resource involved (if applicable)
	Action     string // Grant action involved (if applicable)

	cause error // Underlying store fault, logged but never rendered
}

// Error implements the error interface. Storage causes are deliberately
// excluded; internal failure detail belongs in logs, not in messages that
// may reach untrusted callers.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the sentinel kind for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Cause returns the underlying store fault, if any. Intended for structured
// logging only.
func (e *Error) Cause() error {
	return e.cause
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithOp adds the operation name to the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithTenant adds tenant information to the error.
func (e *Error) WithTenant(tenantID string) *Error {
	e.TenantID = tenantID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(roleID string) *Error {
	e.RoleID = roleID
	return e
}

// WithResource adds resource information to the error.
func (e *Error) WithResource(resourceID string) *Error {
	e.ResourceID = resourceID
	return e
}

// WithAction adds the grant action to the error.
func (e *Error) WithAction(action string) *Error {
	e.Action = action
	return e
}

// WithCause attaches the underlying store fault for logging.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// AsError extracts the rich *Error from an error chain.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is an input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPreconditionFailed checks if an error is a safety-key mismatch.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsConflict checks if an error is a duplicate-key conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPermissionDenied checks if an error is a middleware permission denial.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsStorage checks if an error is an underlying store fault.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsIsolationViolation checks if an error is a tenant isolation violation.
func IsIsolationViolation(err error) bool {
	return errors.Is(err, ErrIsolationViolation)
}
