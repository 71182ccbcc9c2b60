package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry builds a registry from per-package collectors.
func Registry(groups ...[]prometheus.Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hive_heat_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	for _, group := range groups {
		for _, collector := range group {
			registry.MustRegister(collector)
		}
	}
	return registry
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The write goes through a temp file so a scrape never sees a partial file.
func WriteTextfile(path string, registry *prometheus.Registry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
