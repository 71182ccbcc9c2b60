package hive

import "github.com/prometheus/client_golang/prometheus"

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_heat_api_requests_total",
			Help: "Hive API requests by operation and status code",
		},
		[]string{"op", "code"},
	)
	temperatureGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hive_heat_temperature_celsius",
			Help: "Measured temperature reported by the heating device",
		},
	)
	targetGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hive_heat_target_celsius",
			Help: "Heating set-point",
		},
	)
	workingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hive_heat_working",
			Help: "Heating element active (1=on, 0=off)",
		},
	)
)

// RecordStatus copies a status into the heating gauges.
func RecordStatus(status Status) {
	temperatureGauge.Set(status.Temperature)
	targetGauge.Set(status.Target)
	if status.Working {
		workingGauge.Set(1)
	} else {
		workingGauge.Set(0)
	}
}

// MetricsCollectors returns collectors for the Hive client.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		apiRequestsTotal,
		temperatureGauge,
		targetGauge,
		workingGauge,
	}
}
