package authkit

import (
	"context"
	"log/slog"

	"github.com/fernandezvara/dbkit"
)

// Service is the orchestration layer of the authorization engine. It owns
// validation, precondition checks, cascades, auditing, and failure logging;
// raw row access lives in Repo and resolution in Engine.
//
// Error Handling:
// Every expected condition is a typed sentinel, never a panic. Callers
// classify with the Is* helpers:
//
//	err := service.GrantUserPermission(ctx, "acme", "alice", "doc:1", "read")
//	if err != nil {
//	    switch {
//	    case authkit.IsNotFound(err):
//	        // user or resource missing
//	    case authkit.IsValidation(err):
//	        // malformed identifier or action
//	    case authkit.IsIsolationViolation(err):
//	        // empty tenant id on a tenant-scoped call
//	    }
//	}
//
// Storage faults keep their cause for logs but report a stable
// ErrStorage to callers.
type Service struct {
	repo      *Repo
	engine    *Engine
	logger    *slog.Logger
	txMonitor *transactionMonitor
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger used for storage-fault reporting.
// The default discards nothing and writes to slog's default handler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the authorization service over a DBKit handle.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := authkit.NewService(db)
func NewService(db dbkit.IDB, opts ...Option) *Service {
	repo := NewRepo(db)
	s := &Service{
		repo:      repo,
		engine:    NewEngine(repo),
		logger:    slog.Default(),
		txMonitor: newTransactionMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repo returns the repository facade for direct row access.
func (s *Service) Repo() *Repo {
	return s.repo
}

// Engine returns the resolution engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// logFailure reports a storage fault with its identifiers. The wrapped cause
// is logged here and nowhere else; callers only see the sentinel kind.
func (s *Service) logFailure(ctx context.Context, op string, err error, attrs ...any) {
	if err == nil || !IsStorage(err) {
		return
	}
	fields := []any{slog.String("op", op)}
	var e *Error
	if AsError(err, &e) && e.Cause() != nil {
		fields = append(fields, slog.String("cause", e.Cause().Error()))
	}
	if rid := GetRequestID(ctx); rid != "" {
		fields = append(fields, slog.String("request_id", rid))
	}
	fields = append(fields, attrs...)
	s.logger.ErrorContext(ctx, "authkit storage failure", fields...)
}
