package authkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// HealthService provides database health monitoring as an extension to
// Service.
type HealthService struct {
	*Service
}

// NewHealthService creates a health service extension.
func NewHealthService(service *Service) *HealthService {
	return &HealthService{Service: service}
}

// Health performs a full health check of the database connection, including
// latency and connection pool statistics.
func (hs *HealthService) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := hs.repo.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}
	// Transaction-bound handles only support a basic ping.
	return dbkit.HealthStatus{
		Healthy: hs.IsHealthy(ctx),
		Error:   "limited health check on a transaction-bound handle",
	}
}

// IsHealthy reports whether the database is reachable.
func (hs *HealthService) IsHealthy(ctx context.Context) bool {
	if db, ok := hs.repo.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return hs.Ping(ctx) == nil
}

// Ping performs a basic connectivity test.
func (hs *HealthService) Ping(ctx context.Context) error {
	var result int
	return hs.repo.db.NewRaw("SELECT 1").Scan(ctx, &result)
}

// GetPoolStats returns connection pool statistics, or zero values for
// transaction-bound handles.
func (hs *HealthService) GetPoolStats() dbkit.PoolStats {
	if db, ok := hs.repo.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}
