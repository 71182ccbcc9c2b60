package session

import "github.com/prometheus/client_golang/prometheus"

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_heat_session_login_total",
			Help: "Login calls made by the session manager",
		},
		[]string{"result"},
	)
	refreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hive_heat_session_refresh_total",
			Help: "Token refreshes triggered by a failed authorized request",
		},
	)
	cacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hive_heat_session_cache_hit_total",
			Help: "Runs that started from a cached token",
		},
	)
	remotePersistOK = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hive_heat_session_remote_persist_ok",
			Help: "Token mirror health (1=ok, 0=error)",
		},
	)
)

// MetricsCollectors returns collectors for the session module.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		loginTotal,
		refreshTotal,
		cacheHitTotal,
		remotePersistOK,
	}
}
