package authkit

import (
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConnections    int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	ConnectionMaxIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings suitable for most deployments.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// HighThroughputPoolConfig returns pool settings for check-heavy workloads
// where permission queries dominate.
func HighThroughputPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    100,
		MaxIdleConnections:    25,
		ConnectionMaxLifetime: 15 * time.Minute,
		ConnectionMaxIdleTime: 2 * time.Minute,
	}
}

// PoolService provides connection pool management as an extension to
// Service.
type PoolService struct {
	*Service
}

// NewPoolService creates a pool service extension.
func NewPoolService(service *Service) *PoolService {
	return &PoolService{Service: service}
}

// ConfigureConnectionPool applies pool settings to the underlying database.
func (ps *PoolService) ConfigureConnectionPool(config PoolConfig) error {
	db, ok := ps.repo.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrStorage, "pool configuration requires a dbkit.DBKit instance").
			WithOp("ConfigureConnectionPool")
	}
	bunDB := db.Bun()
	if bunDB == nil {
		return NewError(ErrStorage, "database instance not available").
			WithOp("ConfigureConnectionPool")
	}
	bunDB.SetMaxOpenConns(config.MaxOpenConnections)
	bunDB.SetMaxIdleConns(config.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(config.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(config.ConnectionMaxIdleTime)

	ps.logger.Info("connection pool configured",
		"max_open", config.MaxOpenConnections,
		"max_idle", config.MaxIdleConnections,
		"max_lifetime", config.ConnectionMaxLifetime,
		"max_idle_time", config.ConnectionMaxIdleTime,
	)
	return nil
}

// ResetConnectionPool restores the default pool settings.
func (ps *PoolService) ResetConnectionPool() error {
	return ps.ConfigureConnectionPool(DefaultPoolConfig())
}

// GetPoolStats returns connection pool statistics, or zero values for
// transaction-bound handles.
func (ps *PoolService) GetPoolStats() dbkit.PoolStats {
	if db, ok := ps.repo.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}
