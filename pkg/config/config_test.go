package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OpenSky.BaseURL != "https://opensky-network.org/api" {
		t.Errorf("Expected default base URL, got %s", cfg.OpenSky.BaseURL)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.NATS.SubjectPrefix != "opensky.states" {
		t.Errorf("Expected subject prefix opensky.states, got %s", cfg.NATS.SubjectPrefix)
	}
	if cfg.Collector.Interval() != 10*time.Second {
		t.Errorf("Expected 10s interval, got %v", cfg.Collector.Interval())
	}
	if cfg.Collector.Retention() != 24*time.Hour {
		t.Errorf("Expected 24h retention, got %v", cfg.Collector.Retention())
	}
	if len(cfg.Collector.EnabledRegions()) != 1 {
		t.Errorf("Expected 1 enabled region, got %d", len(cfg.Collector.EnabledRegions()))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg.Database.Database != "opensky" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadFormats tests that JSON and YAML files load the same settings.
func TestLoadFormats(t *testing.T) {
	files := map[string]string{
		"config.json": `{
			"opensky": {"username": "alice", "password": "secret", "timeout_seconds": 5},
			"collector": {"interval_seconds": 30, "regions": [
				{"name": "alps", "min_latitude": 45, "max_latitude": 48, "min_longitude": 5, "max_longitude": 11, "enabled": true},
				{"name": "iberia", "min_latitude": 36, "max_latitude": 44, "min_longitude": -10, "max_longitude": 4}
			]},
			"logging": {"level": "debug", "format": "json"}
		}`,
		"config.yaml": `
opensky:
  username: alice
  password: secret
  timeout_seconds: 5
collector:
  interval_seconds: 30
  regions:
    - name: alps
      min_latitude: 45
      max_latitude: 48
      min_longitude: 5
      max_longitude: 11
      enabled: true
    - name: iberia
      min_latitude: 36
      max_latitude: 44
      min_longitude: -10
      max_longitude: 4
logging:
  level: debug
  format: json
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}

			if cfg.OpenSky.Username != "alice" || cfg.OpenSky.TimeoutSeconds != 5 {
				t.Errorf("Unexpected opensky config %+v", cfg.OpenSky)
			}
			if cfg.Collector.IntervalSeconds != 30 {
				t.Errorf("Expected interval 30, got %d", cfg.Collector.IntervalSeconds)
			}
			if len(cfg.Collector.Regions) != 2 {
				t.Fatalf("Expected 2 regions, got %d", len(cfg.Collector.Regions))
			}
			enabled := cfg.Collector.EnabledRegions()
			if len(enabled) != 1 || enabled[0].Name != "alps" {
				t.Errorf("Expected only alps enabled, got %+v", enabled)
			}
			if cfg.Collector.Regions[1].MinLongitude != -10 {
				t.Errorf("Expected iberia min longitude -10, got %v", cfg.Collector.Regions[1].MinLongitude)
			}
			// Unset values keep their defaults
			if cfg.Database.Port != 5432 {
				t.Errorf("Expected default database port, got %d", cfg.Database.Port)
			}
			if cfg.Logging.Format != "json" {
				t.Errorf("Expected json log format, got %s", cfg.Logging.Format)
			}
		})
	}
}

// TestLoadInvalid tests parse and validation failures.
func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{"Bad JSON", "c.json", `{"opensky": }`, "parse"},
		{"Bad YAML", "c.yml", "opensky: [", "parse"},
		{"Username without password", "c.json", `{"opensky": {"username": "alice"}}`, "together"},
		{"Swapped region", "c.json", `{"collector": {"interval_seconds": 10, "regions": [{"name": "x", "min_latitude": 10, "max_latitude": 5}]}}`, "region \"x\""},
		{"Duplicate region", "c.json", `{"collector": {"interval_seconds": 10, "regions": [{"name": "a"}, {"name": "A"}]}}`, "duplicate"},
		{"Zero interval", "c.json", `{"collector": {"interval_seconds": 0}}`, "interval"},
		{"Unknown log format", "c.json", `{"logging": {"format": "xml"}}`, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

// TestEnvironmentOverrides tests that OPENSKY_* variables win over the file.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENSKY_USERNAME", "env-user")
	t.Setenv("OPENSKY_PASSWORD", "env-pass")
	t.Setenv("OPENSKY_BASE_URL", "http://localhost:9999/api")
	t.Setenv("OPENSKY_DB_PASSWORD", "env-db-pass")
	t.Setenv("OPENSKY_NATS_URL", "nats://env:4222")
	t.Setenv("OPENSKY_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"opensky": {"username": "file-user", "password": "file-pass"}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.OpenSky.Username != "env-user" || cfg.OpenSky.Password != "env-pass" {
		t.Errorf("Expected env credentials, got %s/%s", cfg.OpenSky.Username, cfg.OpenSky.Password)
	}
	if cfg.OpenSky.BaseURL != "http://localhost:9999/api" {
		t.Errorf("Expected env base URL, got %s", cfg.OpenSky.BaseURL)
	}
	if cfg.Database.Password != "env-db-pass" {
		t.Errorf("Expected env database password, got %s", cfg.Database.Password)
	}
	if cfg.NATS.URL != "nats://env:4222" {
		t.Errorf("Expected env NATS URL, got %s", cfg.NATS.URL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env log level, got %s", cfg.Logging.Level)
	}
}

// TestSaveConfig tests the Save → Load round trip.
func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

	cfg := DefaultConfig()
	cfg.Watch.RefreshSeconds = 42
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Watch.RefreshSeconds != 42 {
		t.Errorf("Expected refresh 42, got %d", loaded.Watch.RefreshSeconds)
	}
}

// TestRegionHelpers tests region lookup and conversion.
func TestRegionHelpers(t *testing.T) {
	cfg := DefaultConfig()

	r, ok := cfg.Collector.FindRegion("SWITZERLAND")
	if !ok {
		t.Fatal("Expected to find region switzerland")
	}
	box := r.ToRegion()
	if box.MinLatitude != 45.8389 || box.MaxLongitude != 10.5226 {
		t.Errorf("Unexpected bounding box %+v", box)
	}
	if _, ok := cfg.Collector.FindRegion("mars"); ok {
		t.Error("Expected no region named mars")
	}
}

// TestClientConfig tests conversion to the API client config.
func TestClientConfig(t *testing.T) {
	c := OpenSkyConfig{BaseURL: "http://x", Username: "u", Password: "p", TimeoutSeconds: 3}
	cc := c.ClientConfig()
	if cc.BaseURL != "http://x" || cc.Username != "u" || cc.Password != "p" || cc.Timeout != 3*time.Second {
		t.Errorf("Unexpected client config %+v", cc)
	}
}
