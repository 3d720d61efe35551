package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for permscope.
type Metrics struct {
	// Source metrics
	RefreshesTotal  prometheus.Counter
	RefreshFailures prometheus.Counter
	RefreshDuration prometheus.Histogram
	SnapshotsReused prometheus.Counter
	AppsInSnapshot  prometheus.Gauge

	// Catalog metrics
	CatalogBuilds prometheus.Counter
	CatalogSize   *prometheus.GaugeVec

	// Engine metrics
	GateEvaluations  *prometheus.CounterVec
	ViewComputations *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			RefreshesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "permscope_refreshes_total",
				Help: "Total number of app inventory refreshes",
			}),
			RefreshFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "permscope_refresh_failures_total",
				Help: "Total number of app inventory refreshes that failed",
			}),
			RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "permscope_refresh_duration_seconds",
				Help:    "Duration of app inventory refreshes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			}),
			SnapshotsReused: promauto.NewCounter(prometheus.CounterOpts{
				Name: "permscope_snapshots_reused_total",
				Help: "Total number of refreshes whose content matched the previous snapshot",
			}),
			AppsInSnapshot: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "permscope_snapshot_apps",
				Help: "Number of applications in the latest snapshot",
			}),

			CatalogBuilds: promauto.NewCounter(prometheus.CounterOpts{
				Name: "permscope_catalog_builds_total",
				Help: "Total number of permission catalog builds",
			}),
			CatalogSize: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "permscope_catalog_permissions",
					Help: "Number of permissions in the latest catalog by variant",
				},
				[]string{"variant"},
			),

			GateEvaluations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "permscope_gate_evaluations_total",
					Help: "Total number of consistency gate evaluations by outcome",
				},
				[]string{"outcome"},
			),
			ViewComputations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "permscope_view_computations_total",
					Help: "Total number of view recomputations by view and state",
				},
				[]string{"view", "state"},
			),
		}
	})
	return metricsInstance
}
