package metrics

import (
	"database/sql"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DatabaseMetrics mirrors sql.DBStats as gauges, refreshed by a caller
// poll loop.
type DatabaseMetrics struct {
	OpenConnections prometheus.Gauge
	InUse           prometheus.Gauge
	Idle            prometheus.Gauge
	WaitCount       prometheus.Gauge
	WaitDuration    prometheus.Gauge
}

var (
	databaseOnce sync.Once
	databaseSet  *DatabaseMetrics
)

// NewDatabaseMetrics registers the database gauge set under the given
// namespace. Metrics register once; later calls return the same set.
func NewDatabaseMetrics(namespace string) *DatabaseMetrics {
	databaseOnce.Do(func() {
		databaseSet = &DatabaseMetrics{
			OpenConnections: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_open_connections",
				Help:      "Open database connections.",
			}),
			InUse: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_in_use_connections",
				Help:      "Database connections currently in use.",
			}),
			Idle: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_idle_connections",
				Help:      "Idle database connections.",
			}),
			WaitCount: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_wait_count_total",
				Help:      "Total connection waits.",
			}),
			WaitDuration: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_wait_duration_seconds_total",
				Help:      "Total time spent waiting for a connection.",
			}),
		}
	})
	return databaseSet
}

// UpdateDBStats copies the current pool stats into the gauges.
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.OpenConnections.Set(float64(stats.OpenConnections))
	m.InUse.Set(float64(stats.InUse))
	m.Idle.Set(float64(stats.Idle))
	m.WaitCount.Set(float64(stats.WaitCount))
	m.WaitDuration.Set(stats.WaitDuration.Seconds())
}
