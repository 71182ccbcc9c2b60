package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DirName           = ".hive-heat"
	FileName          = "conf.toml"
	TokenFileName     = "token"
	DefaultBaseURL    = "https://beekeeper.hivehome.com/1.0/"
	DefaultLogLevel   = "warn"
	DefaultBlobPrefix = "hive-heat"
	DefaultMQTTTopic  = "hive-heat/heating"
	DefaultMQTTClient = "hive-heat"
)

// Error reports a missing, unreadable or invalid config file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config is the parsed conf.toml.
type Config struct {
	Username        string     `mapstructure:"username"`
	Password        string     `mapstructure:"password"`
	BaseURL         string     `mapstructure:"base_url"`
	LogLevel        string     `mapstructure:"log_level"`
	Logout          bool       `mapstructure:"logout"`
	TimeoutSeconds  int        `mapstructure:"timeout_seconds"`
	MetricsTextfile string     `mapstructure:"metrics_textfile"`
	Blob            BlobConfig `mapstructure:"blob"`
	MQTT            MQTTConfig `mapstructure:"mqtt"`
}

// BlobConfig enables mirroring the session token to S3-compatible storage.
type BlobConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	Region        string `mapstructure:"region"`
	AccessKeyFile string `mapstructure:"access_key_file"`
	SecretKeyFile string `mapstructure:"secret_key_file"`
}

func (b BlobConfig) Enabled() bool {
	return strings.TrimSpace(b.Endpoint) != ""
}

// MQTTConfig enables publishing heating status to a broker.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

func (m MQTTConfig) Enabled() bool {
	return strings.TrimSpace(m.Broker) != ""
}

// Timeout returns the HTTP client timeout; zero leaves the transport default.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultDir resolves ~/.hive-heat.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

func TokenPath(dir string) string {
	return filepath.Join(dir, TokenFileName)
}

// Load parses the TOML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("read config: %w", err)}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parse config: %w", err)}
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Blob.Prefix == "" {
		cfg.Blob.Prefix = DefaultBlobPrefix
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = DefaultMQTTTopic
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultMQTTClient
	}
}

// Validate enforces required keys and sane optional sections.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.Username == "" {
		return fmt.Errorf("username is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("password is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL: %q", cfg.BaseURL)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error: %q", cfg.LogLevel)
	}
	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}

	if cfg.Blob.Enabled() {
		if cfg.Blob.Bucket == "" {
			return fmt.Errorf("blob.bucket is required")
		}
		if cfg.Blob.AccessKeyFile == "" {
			return fmt.Errorf("blob.access_key_file is required")
		}
		if cfg.Blob.SecretKeyFile == "" {
			return fmt.Errorf("blob.secret_key_file is required")
		}
	}
	if cfg.MQTT.Enabled() && !strings.Contains(cfg.MQTT.Broker, "://") {
		return fmt.Errorf("mqtt.broker must include a scheme (tcp://, ssl://, ws://): %q", cfg.MQTT.Broker)
	}

	return nil
}
