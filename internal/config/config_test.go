package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
username = "user@example.com"
password = "secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Username != "user@example.com" || cfg.Password != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", cfg.BaseURL)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
	if cfg.Blob.Enabled() || cfg.MQTT.Enabled() {
		t.Fatalf("optional sections should be disabled: %+v", cfg)
	}
	if cfg.MQTT.Topic != DefaultMQTTTopic {
		t.Fatalf("unexpected mqtt topic %q", cfg.MQTT.Topic)
	}
	if cfg.Timeout() != 0 {
		t.Fatalf("expected no timeout, got %s", cfg.Timeout())
	}
}

func TestLoadOptionalSections(t *testing.T) {
	path := writeConfig(t, `
username = "user"
password = "pw"
base_url = "http://127.0.0.1:8080/1.0"
log_level = "DEBUG"
logout = true
timeout_seconds = 20
metrics_textfile = "/var/lib/node_exporter/hive.prom"

[blob]
endpoint = "https://s3.example.com"
bucket = "secrets"
access_key_file = "/run/keys/access"
secret_key_file = "/run/keys/secret"

[mqtt]
broker = "tcp://broker:1883"
topic = "home/heating"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:8080/1.0/" {
		t.Fatalf("base url should gain a trailing slash, got %q", cfg.BaseURL)
	}
	if cfg.LogLevel != "debug" || !cfg.Logout || cfg.Timeout().Seconds() != 20 {
		t.Fatalf("unexpected scalar settings: %+v", cfg)
	}
	if !cfg.Blob.Enabled() || cfg.Blob.Bucket != "secrets" || cfg.Blob.Prefix != DefaultBlobPrefix {
		t.Fatalf("unexpected blob config: %+v", cfg.Blob)
	}
	if !cfg.MQTT.Enabled() || cfg.MQTT.Topic != "home/heating" || cfg.MQTT.ClientID != DefaultMQTTClient {
		t.Fatalf("unexpected mqtt config: %+v", cfg.MQTT)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing password", body: `username = "user"`, want: "password is required"},
		{name: "missing username", body: `password = "pw"`, want: "username is required"},
		{name: "malformed", body: `username = `, want: "read config"},
		{name: "bad log level", body: "username = \"u\"\npassword = \"p\"\nlog_level = \"loud\"", want: "log_level"},
		{name: "blob without bucket", body: "username = \"u\"\npassword = \"p\"\n[blob]\nendpoint = \"s3\"", want: "blob.bucket"},
		{name: "mqtt without scheme", body: "username = \"u\"\npassword = \"p\"\n[mqtt]\nbroker = \"broker:1883\"", want: "mqtt.broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *config.Error, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
}

func TestPaths(t *testing.T) {
	dir := filepath.Join("home", DirName)
	if Path(dir) != filepath.Join(dir, "conf.toml") {
		t.Fatalf("unexpected config path %q", Path(dir))
	}
	if TokenPath(dir) != filepath.Join(dir, "token") {
		t.Fatalf("unexpected token path %q", TokenPath(dir))
	}
}
