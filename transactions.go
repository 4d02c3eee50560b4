package authkit

import (
	"context"
	"sync"
	"time"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// TRANSACTION PLUMBING
// ============================================================================

// runInTx runs fn inside a transaction. When the handle is already a
// transaction the inner scope becomes a savepoint, so cascades compose when
// called from Service.Transaction.
func runInTx(ctx context.Context, db dbkit.IDB, fn func(tx *dbkit.Tx) error) error {
	switch h := db.(type) {
	case *dbkit.DBKit:
		return h.Transaction(ctx, fn)
	case *dbkit.Tx:
		return h.Transaction(ctx, fn)
	default:
		return NewError(ErrStorage, "unsupported database handle").WithOp("runInTx")
	}
}

// Transaction runs fn with a Service bound to a single transaction. Every
// operation performed through the bound Service commits or rolls back
// together. Nesting is supported through savepoints.
//
// Example:
//
//	err := svc.Transaction(ctx, func(tx *authkit.Service) error {
//	    if err := tx.GrantUserPermission(ctx, "acme", "alice", "doc:1", "read"); err != nil {
//	        return err
//	    }
//	    return tx.GrantUserPermission(ctx, "acme", "alice", "doc:1", "write")
//	})
func (s *Service) Transaction(ctx context.Context, fn func(tx *Service) error) error {
	return s.transaction(ctx, nil, fn)
}

// TransactionWithOptions is Transaction with explicit isolation options.
// Options are ignored for nested scopes, which run as savepoints.
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error {
	return s.transaction(ctx, &opts, fn)
}

// ReadOnlyTransaction runs fn in a read-only transaction, useful for
// consistent multi-query reads such as building a Checker snapshot.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

func (s *Service) transaction(ctx context.Context, opts *dbkit.TxOptions, fn func(tx *Service) error) error {
	start := time.Now()
	s.txMonitor.begin()

	wrapped := func(tx *dbkit.Tx) error {
		return fn(s.bind(tx))
	}

	var err error
	switch h := s.repo.db.(type) {
	case *dbkit.DBKit:
		if opts != nil {
			err = h.TransactionWithOptions(ctx, *opts, wrapped)
		} else {
			err = h.Transaction(ctx, wrapped)
		}
	case *dbkit.Tx:
		err = h.Transaction(ctx, wrapped)
	default:
		err = NewError(ErrStorage, "unsupported database handle").WithOp("Transaction")
	}

	s.txMonitor.finish(err, time.Since(start))
	return err
}

// bind returns a Service sharing this Service's configuration but scoped to
// the given transaction handle.
func (s *Service) bind(tx *dbkit.Tx) *Service {
	repo := NewRepo(tx)
	return &Service{
		repo:      repo,
		engine:    NewEngine(repo),
		logger:    s.logger,
		txMonitor: s.txMonitor,
	}
}

// ============================================================================
// TRANSACTION MONITORING
// ============================================================================

// TransactionMetrics is a point-in-time snapshot of transaction activity.
type TransactionMetrics struct {
	Active      int64         `json:"active"`
	Committed   int64         `json:"committed"`
	RolledBack  int64         `json:"rolled_back"`
	MaxDuration time.Duration `json:"max_duration"`
}

type transactionMonitor struct {
	mu          sync.Mutex
	active      int64
	committed   int64
	rolledBack  int64
	maxDuration time.Duration
}

func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{}
}

func (m *transactionMonitor) begin() {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
}

func (m *transactionMonitor) finish(err error, elapsed time.Duration) {
	m.mu.Lock()
	m.active--
	if err != nil {
		m.rolledBack++
	} else {
		m.committed++
	}
	if elapsed > m.maxDuration {
		m.maxDuration = elapsed
	}
	m.mu.Unlock()
	observeTransaction(err, elapsed)
}

func (m *transactionMonitor) snapshot() TransactionMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TransactionMetrics{
		Active:      m.active,
		Committed:   m.committed,
		RolledBack:  m.rolledBack,
		MaxDuration: m.maxDuration,
	}
}

// TransactionMetrics returns the current transaction counters.
func (s *Service) TransactionMetrics() TransactionMetrics {
	return s.txMonitor.snapshot()
}
