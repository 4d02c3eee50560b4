package authkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubChecker is a canned PermissionChecker for middleware tests.
type stubChecker struct {
	allowed map[string]bool
	err     error
	calls   int
}

func (s *stubChecker) HasPermission(_ context.Context, tenantID, userID, resourceID, action string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[tenantID+"|"+userID+"|"+resourceID+"|"+action], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithIdentity(tenantID, userID, target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := WithTenantID(r.Context(), tenantID)
	ctx = WithActorID(ctx, userID)
	return r.WithContext(ctx)
}

// TestRequirePermissionAllowed tests the allow path
func TestRequirePermissionAllowed(t *testing.T) {
	stub := &stubChecker{allowed: map[string]bool{
		"acme|alice|docs/readme|read": true,
	}}
	mw := NewMiddleware(stub)

	handler := mw.RequirePermission("read", ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/files?resource=docs/readme"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.calls)
}

// TestRequirePermissionDenied tests the deny path
func TestRequirePermissionDenied(t *testing.T) {
	stub := &stubChecker{}
	mw := NewMiddleware(stub)

	handler := mw.RequirePermission("read", ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/files?resource=docs/readme"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestRequirePermissionMissingIdentity tests requests without tenant or user
func TestRequirePermissionMissingIdentity(t *testing.T) {
	stub := &stubChecker{}
	mw := NewMiddleware(stub)

	handler := mw.RequirePermission("read", ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files?resource=docs/readme", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls, "no check is attempted without identity")
}

// TestRequirePermissionMissingResource tests a failing extractor
func TestRequirePermissionMissingResource(t *testing.T) {
	stub := &stubChecker{}
	mw := NewMiddleware(stub)

	handler := mw.RequirePermission("read", ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/files"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestRequirePermissionCheckError tests that check failures map to 500
func TestRequirePermissionCheckError(t *testing.T) {
	stub := &stubChecker{err: NewError(ErrStorage, "database operation failed")}
	mw := NewMiddleware(stub)

	handler := mw.RequirePermission("read", ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/files?resource=docs/readme"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestRequireTenant tests the tenant guard
func TestRequireTenant(t *testing.T) {
	mw := NewMiddleware(&stubChecker{})

	var tenant string
	handler := mw.RequireTenant()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant = GetTenantID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", tenant)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestRequireAnyPermission tests the any-of path
func TestRequireAnyPermission(t *testing.T) {
	stub := &stubChecker{allowed: map[string]bool{
		"acme|alice|docs/readme|write": true,
	}}
	mw := NewMiddleware(stub)

	handler := mw.RequireAnyPermission([]string{"read", "write"}, ResourceFromQuery("resource"))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/files?resource=docs/readme"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "bob", "/files?resource=docs/readme"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestCustomExtractorsAndErrorHandler tests the middleware options
func TestCustomExtractorsAndErrorHandler(t *testing.T) {
	stub := &stubChecker{allowed: map[string]bool{
		"acme|alice|docs/readme|read": true,
	}}

	var handledErr error
	mw := NewMiddleware(stub,
		WithTenantExtractor(func(r *http.Request) string { return r.Header.Get("X-Tenant-ID") }),
		WithUserIDExtractor(func(r *http.Request) string { return r.Header.Get("X-User-ID") }),
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			handledErr = err
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	handler := mw.RequirePermission("read", ResourceFromHeader("X-Resource"))(okHandler())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Tenant-ID", "acme")
	r.Header.Set("X-User-ID", "alice")
	r.Header.Set("X-Resource", "docs/readme")
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.Header.Set("X-User-ID", "mallory")
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, IsPermissionDenied(handledErr))
}

// TestResourceExtractors tests the extractor constructors
func TestResourceExtractors(t *testing.T) {
	t.Run("Static", func(t *testing.T) {
		id, err := StaticResource("billing")(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NoError(t, err)
		assert.Equal(t, "billing", id)
	})

	t.Run("Query missing", func(t *testing.T) {
		_, err := ResourceFromQuery("resource")(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, IsValidation(err))
	})

	t.Run("Header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Resource", "docs/a")
		id, err := ResourceFromHeader("X-Resource")(r)
		assert.NoError(t, err)
		assert.Equal(t, "docs/a", id)
	})
}

// TestEnsureRequestID tests request id propagation and generation
func TestEnsureRequestID(t *testing.T) {
	mw := NewMiddleware(&stubChecker{})

	var seen string
	handler := mw.EnsureRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("Generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Propagated when present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, "req-42", seen)
	})
}

// TestInjectAuditContext tests actor and tenant propagation
func TestInjectAuditContext(t *testing.T) {
	mw := NewMiddleware(&stubChecker{},
		WithTenantExtractor(func(r *http.Request) string { return r.Header.Get("X-Tenant-ID") }),
		WithUserIDExtractor(func(r *http.Request) string { return r.Header.Get("X-User-ID") }),
	)

	var actor, tenant string
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = GetActorID(r.Context())
		tenant = GetTenantID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Tenant-ID", "acme")
	r.Header.Set("X-User-ID", "alice")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "alice", actor)
	assert.Equal(t, "acme", tenant)
}

// TestLoadCheckerWithoutProvider tests that LoadChecker degrades gracefully
// when the checker cannot build snapshots
func TestLoadCheckerWithoutProvider(t *testing.T) {
	mw := NewMiddleware(&stubChecker{})

	var got *Checker
	handler := mw.LoadChecker()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithIdentity("acme", "alice", "/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)
}
