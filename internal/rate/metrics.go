package rate

import "github.com/prometheus/client_golang/prometheus"

var (
	retryAfterGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hive_heat_rate_limit_retry_after_seconds",
			Help: "Retry-after seconds announced by the provider",
		},
		[]string{"provider"},
	)
	lastStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hive_heat_rate_limit_last_status_code",
			Help: "Last HTTP status code observed by the rate-limit wrapper",
		},
		[]string{"provider"},
	)
	blockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_heat_rate_limit_blocked_total",
			Help: "Requests refused locally by the rate-limit wrapper",
		},
		[]string{"provider", "reason"},
	)
)

// MetricsCollectors exposes shared rate-limit collectors.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		retryAfterGauge,
		lastStatusGauge,
		blockedTotal,
	}
}
