package authkit

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// PermissionChecker is the check surface the middleware needs. *Service
// satisfies it; tests substitute a stub.
type PermissionChecker interface {
	HasPermission(ctx context.Context, tenantID, userID, resourceID, action string) (bool, error)
}

// checkerProvider is satisfied by *Service; when available, LoadChecker puts
// a permission snapshot on the request context.
type checkerProvider interface {
	GetChecker(ctx context.Context, tenantID, userID string) (*Checker, error)
}

// Middleware provides HTTP middleware for permission checking.
type Middleware struct {
	service      PermissionChecker
	getTenantID  func(*http.Request) string
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance. By default the tenant and
// user are read from the request context via GetTenantID and GetActorID;
// override with the extractor options when they live elsewhere.
//
// Example:
//
//	mw := authkit.NewMiddleware(service,
//	    authkit.WithTenantExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-Tenant-ID")
//	    }),
//	)
func NewMiddleware(service PermissionChecker, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getTenantID:  defaultGetTenantID,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTenantExtractor sets a custom function to extract the tenant id from
// the request.
func WithTenantExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getTenantID = fn
	}
}

// WithUserIDExtractor sets a custom function to extract the user id from the
// request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware failures.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetTenantID(r *http.Request) string {
	return GetTenantID(r.Context())
}

func defaultGetUserID(r *http.Request) string {
	return GetActorID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsPermissionDenied(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case IsValidation(err):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case IsNotFound(err):
		http.Error(w, "Not Found", http.StatusNotFound)
	case IsPreconditionFailed(err):
		http.Error(w, "Precondition Failed", http.StatusPreconditionFailed)
	case IsIsolationViolation(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ResourceExtractor extracts a resource id from an HTTP request.
type ResourceExtractor func(*http.Request) (string, error)

// ResourceFromParam creates a ResourceExtractor that reads the resource id
// from a URL path parameter. Compatible with net/http 1.22 routing patterns.
//
// Example:
//
//	// For route /documents/{docID}
//	mw.RequirePermission("read", authkit.ResourceFromParam("docID"))
func ResourceFromParam(paramName string) ResourceExtractor {
	return func(r *http.Request) (string, error) {
		id := r.PathValue(paramName)
		if id == "" {
			if v := r.Context().Value(paramName); v != nil {
				if s, ok := v.(string); ok {
					id = s
				}
			}
		}
		if id == "" {
			return "", NewError(ErrValidation, "resource id not found in request")
		}
		return id, nil
	}
}

// ResourceFromQuery creates a ResourceExtractor that reads the resource id
// from a query parameter.
//
// Example:
//
//	// For route /api/files?resource=documents/q3
//	mw.RequirePermission("read", authkit.ResourceFromQuery("resource"))
func ResourceFromQuery(queryParam string) ResourceExtractor {
	return func(r *http.Request) (string, error) {
		id := r.URL.Query().Get(queryParam)
		if id == "" {
			return "", NewError(ErrValidation, "resource id not found in query")
		}
		return id, nil
	}
}

// ResourceFromHeader creates a ResourceExtractor that reads the resource id
// from a header.
func ResourceFromHeader(headerName string) ResourceExtractor {
	return func(r *http.Request) (string, error) {
		id := r.Header.Get(headerName)
		if id == "" {
			return "", NewError(ErrValidation, "resource id not found in header")
		}
		return id, nil
	}
}

// StaticResource creates a ResourceExtractor that always returns the same
// resource id. Useful for endpoints guarding one well-known resource.
func StaticResource(resourceID string) ResourceExtractor {
	return func(r *http.Request) (string, error) {
		return resourceID, nil
	}
}

// RequireTenant creates middleware that rejects requests carrying no tenant
// id. Tenant-scoped routes fail closed before any handler runs.
func (m *Middleware) RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := m.getTenantID(r)
			if tenantID == "" {
				m.errorHandler(w, r, NewError(ErrIsolationViolation, "tenant is required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
		})
	}
}

// RequirePermission creates middleware that rejects the request unless the
// current user holds the action on the extracted resource.
//
// Example:
//
//	router.Handle("GET /documents/{docID}",
//	    mw.RequirePermission("read", authkit.ResourceFromParam("docID"))(docHandler))
func (m *Middleware) RequirePermission(action string, extractor ResourceExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tenantID := m.getTenantID(r)
			userID := m.getUserID(r)
			if tenantID == "" || userID == "" {
				m.errorHandler(w, r, NewError(ErrValidation, "tenant and user are required"))
				return
			}

			resourceID, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ok, err := m.service.HasPermission(ctx, tenantID, userID, resourceID, action)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if !ok {
				m.errorHandler(w, r, NewError(ErrPermissionDenied, "missing required permission").
					WithTenant(tenantID).
					WithUser(userID).
					WithResource(resourceID).
					WithAction(action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission creates middleware that rejects the request unless
// the user holds at least one of the actions on the extracted resource.
func (m *Middleware) RequireAnyPermission(actions []string, extractor ResourceExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tenantID := m.getTenantID(r)
			userID := m.getUserID(r)
			if tenantID == "" || userID == "" {
				m.errorHandler(w, r, NewError(ErrValidation, "tenant and user are required"))
				return
			}

			resourceID, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			for _, action := range actions {
				ok, err := m.service.HasPermission(ctx, tenantID, userID, resourceID, action)
				if err != nil {
					m.errorHandler(w, r, err)
					return
				}
				if ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.errorHandler(w, r, NewError(ErrPermissionDenied, "missing required permission").
				WithTenant(tenantID).
				WithUser(userID).
				WithResource(resourceID))
		})
	}
}

// LoadChecker creates middleware that loads the user's permission snapshot
// into the request context, for handlers that do their own checks.
//
// Example:
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    checker := authkit.FromContext(r.Context())
//	    if checker != nil && checker.Has("dashboard", "admin") {
//	        // show admin widgets
//	    }
//	}
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provider, ok := m.service.(checkerProvider)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			tenantID := m.getTenantID(r)
			userID := m.getUserID(r)
			if tenantID == "" || userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			checker, err := provider.GetChecker(ctx, tenantID, userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithChecker(ctx, checker)))
		})
	}
}

// EnsureRequestID creates middleware that propagates the X-Request-ID header
// into the context, generating one when absent, so audit entries correlate
// with request logs.
func (m *Middleware) EnsureRequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that records the acting user on the
// context so grant mutations downstream are attributed in the audit log.
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := m.getUserID(r); userID != "" {
				ctx = WithActorID(ctx, userID)
			}
			if tenantID := m.getTenantID(r); tenantID != "" {
				ctx = WithTenantID(ctx, tenantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
