package authkit

import (
	"context"
)

// RootTenant is the empty tenant identifier. It denotes the ROOT context,
// which is only valid for tenant management operations; everywhere else it
// fails closed with ErrIsolationViolation.
const RootTenant = ""

// Context keys for AuthKit values. Tenant identifiers are always explicit
// parameters on engine and repository calls; the context carries transport
// metadata only (who acted, which request), for audit and logging.
type contextKey string

const (
	contextKeyTenantID  contextKey = "authkit:tenant_id"
	contextKeyActorID   contextKey = "authkit:actor_id"
	contextKeyRequestID contextKey = "authkit:request_id"
	contextKeyChecker   contextKey = "authkit:checker"
)

// WithTenantID adds a tenant ID to the context. Set by transport middleware
// so handlers can recover which tenant the request targets.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKeyTenantID, tenantID)
}

// GetTenantID retrieves the tenant ID from context.
// Returns RootTenant if not set.
func GetTenantID(ctx context.Context) string {
	if v := ctx.Value(contextKeyTenantID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return RootTenant
}

// WithActorID adds an actor ID to the context. This is the user performing
// the action, recorded in the grant audit log.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Returns empty string if not set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithChecker adds a Checker to the context.
// This is set by middleware and can be retrieved in handlers.
func WithChecker(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, contextKeyChecker, checker)
}

// GetChecker retrieves the Checker from context.
// Returns nil if not set.
func GetChecker(ctx context.Context) *Checker {
	if v := ctx.Value(contextKeyChecker); v != nil {
		if c, ok := v.(*Checker); ok {
			return c
		}
	}
	return nil
}

// FromContext retrieves the Checker from context.
// Alias for GetChecker for convenience.
func FromContext(ctx context.Context) *Checker {
	return GetChecker(ctx)
}

// RequestMeta holds all audit-related information from context.
type RequestMeta struct {
	ActorID   string
	RequestID string
}

// GetRequestMeta extracts all audit information from context.
func GetRequestMeta(ctx context.Context) RequestMeta {
	return RequestMeta{
		ActorID:   GetActorID(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithRequestMeta adds all audit information to context at once.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	if meta.ActorID != "" {
		ctx = WithActorID(ctx, meta.ActorID)
	}
	if meta.RequestID != "" {
		ctx = WithRequestID(ctx, meta.RequestID)
	}
	return ctx
}
