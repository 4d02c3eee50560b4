package authkit

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================================
// METRICS
// ============================================================================

var (
	permissionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authkit_permission_checks_total",
			Help: "Total number of permission checks by outcome.",
		},
		[]string{"result"},
	)

	permissionCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authkit_permission_check_duration_seconds",
			Help:    "Permission check latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	grantMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authkit_grant_mutations_total",
			Help: "Total number of grant and membership mutations.",
		},
		[]string{"kind", "op"},
	)

	cascadeDeletedResources = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authkit_cascade_deleted_resources_total",
			Help: "Total number of resources removed by prefix cascades.",
		},
	)

	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authkit_transactions_total",
			Help: "Total number of transactions by outcome.",
		},
		[]string{"result"},
	)

	transactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authkit_transaction_duration_seconds",
			Help:    "Transaction durations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers the collectors with the given registerer, or the
// default registerer when nil. Safe to call more than once.
func RegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			permissionChecksTotal,
			permissionCheckDuration,
			grantMutationsTotal,
			cascadeDeletedResources,
			transactionsTotal,
			transactionDuration,
		)
	})
}

// MetricsHandler exposes the default registry over HTTP.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func observePermissionCheck(allowed bool, err error, elapsed time.Duration) {
	result := "denied"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allowed"
	}
	permissionChecksTotal.WithLabelValues(result).Inc()
	permissionCheckDuration.Observe(elapsed.Seconds())
}

func observeGrantMutation(kind, op string) {
	grantMutationsTotal.WithLabelValues(kind, op).Inc()
}

func observeCascadeDelete(count int) {
	if count > 0 {
		cascadeDeletedResources.Add(float64(count))
	}
}

func observeTransaction(err error, elapsed time.Duration) {
	result := "committed"
	if err != nil {
		result = "rolled_back"
	}
	transactionsTotal.WithLabelValues(result).Inc()
	transactionDuration.Observe(elapsed.Seconds())
}
