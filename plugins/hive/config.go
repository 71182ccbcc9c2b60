package hive

import (
	"strings"
	"time"

	"github.com/joshp123/hive-heat/internal/config"
)

// Config defines runtime configuration for the Hive client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func ConfigFromFile(cfg *config.Config) Config {
	if cfg == nil {
		return Config{BaseURL: config.DefaultBaseURL}
	}
	return Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout(),
	}
}

func (c Config) baseURL() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return config.DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
