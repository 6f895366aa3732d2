package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unklstewy/opensky/pkg/opensky"
)

// Config represents the complete configuration of the OpenSky tools.
// It is loaded from a JSON or YAML file, then overridden from the
// environment (including an optional .env file).
type Config struct {
	OpenSky   OpenSkyConfig   `json:"opensky" yaml:"opensky"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	NATS      NATSConfig      `json:"nats" yaml:"nats"`
	Collector CollectorConfig `json:"collector" yaml:"collector"`
	Watch     WatchConfig     `json:"watch" yaml:"watch"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// OpenSkyConfig contains API client settings.
type OpenSkyConfig struct {
	// BaseURL is the API root (default: https://opensky-network.org/api)
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Username and Password for basic auth. Leave both empty for anonymous access.
	// The password should be loaded from the environment.
	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// TimeoutSeconds is the per-request timeout
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// UserAgent sent with every request
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled turns snapshot storage on for the collector
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Host is the database server hostname
	Host string `json:"host" yaml:"host"`

	// Port is the database server port
	Port int `json:"port" yaml:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Username for database authentication
	Username string `json:"username" yaml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// NATSConfig contains JetStream publishing settings.
type NATSConfig struct {
	// Enabled turns snapshot publication on for the collector
	Enabled bool `json:"enabled" yaml:"enabled"`

	// URL of the NATS server (e.g., "nats://localhost:4222")
	URL string `json:"url" yaml:"url"`

	// Stream is the JetStream stream that captures the subjects
	Stream string `json:"stream" yaml:"stream"`

	// SubjectPrefix is prepended to the region name (default: "opensky.states")
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

// RegionConfig is a named bounding box the tools poll.
type RegionConfig struct {
	// Name is a friendly identifier, also used in NATS subjects
	Name string `json:"name" yaml:"name"`

	MinLatitude  float64 `json:"min_latitude" yaml:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude" yaml:"max_latitude"`
	MinLongitude float64 `json:"min_longitude" yaml:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude" yaml:"max_longitude"`

	// Enabled determines if this region should be actively collected
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ToRegion converts the config entry into a client bounding box.
func (r RegionConfig) ToRegion() opensky.Region {
	return opensky.NewRegion(r.MinLatitude, r.MaxLatitude, r.MinLongitude, r.MaxLongitude)
}

// CollectorConfig contains settings for the snapshot recorder.
type CollectorConfig struct {
	// IntervalSeconds between polling cycles. Anonymous users get a new
	// snapshot every 10 seconds at best.
	IntervalSeconds int `json:"interval_seconds" yaml:"interval_seconds"`

	// RetentionHours is how long stored snapshots are kept
	RetentionHours int `json:"retention_hours" yaml:"retention_hours"`

	// PruneIntervalMinutes is how often old snapshots are deleted
	PruneIntervalMinutes int `json:"prune_interval_minutes" yaml:"prune_interval_minutes"`

	// Regions polled each cycle
	Regions []RegionConfig `json:"regions" yaml:"regions"`
}

// Interval returns IntervalSeconds as a duration.
func (c CollectorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Retention returns RetentionHours as a duration.
func (c CollectorConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// PruneInterval returns PruneIntervalMinutes as a duration.
func (c CollectorConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalMinutes) * time.Minute
}

// EnabledRegions returns the regions marked enabled, in config order.
func (c CollectorConfig) EnabledRegions() []RegionConfig {
	regions := make([]RegionConfig, 0, len(c.Regions))
	for _, r := range c.Regions {
		if r.Enabled {
			regions = append(regions, r)
		}
	}
	return regions
}

// FindRegion looks a region up by name (case-insensitive).
func (c CollectorConfig) FindRegion(name string) (RegionConfig, bool) {
	for _, r := range c.Regions {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return RegionConfig{}, false
}

// WatchConfig contains settings for the terminal viewer.
type WatchConfig struct {
	// Region is the name of a collector region to display
	Region string `json:"region" yaml:"region"`

	// RefreshSeconds between state refreshes
	RefreshSeconds int `json:"refresh_seconds" yaml:"refresh_seconds"`
}

// LoggingConfig contains logrus settings.
type LoggingConfig struct {
	// Level is a logrus level name (trace, debug, info, warn, error)
	Level string `json:"level" yaml:"level"`

	// Format is "text" or "json"
	Format string `json:"format" yaml:"format"`
}

// Load reads configuration from a JSON or YAML file, chosen by extension.
// If the file doesn't exist, the default configuration is used.
// Environment overrides are applied in both cases, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := cfg.unmarshal(path, data); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) unmarshal(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return json.Unmarshal(data, c)
	}
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OpenSky: OpenSkyConfig{
			BaseURL:        opensky.DefaultBaseURL,
			TimeoutSeconds: 15,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "opensky",
			Username:     "opensky",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://localhost:4222",
			Stream:        "OPENSKY",
			SubjectPrefix: "opensky.states",
		},
		Collector: CollectorConfig{
			IntervalSeconds:      10,
			RetentionHours:       24,
			PruneIntervalMinutes: 60,
			Regions: []RegionConfig{
				{
					Name:         "switzerland",
					MinLatitude:  45.8389,
					MaxLatitude:  47.8229,
					MinLongitude: 5.9962,
					MaxLongitude: 10.5226,
					Enabled:      true,
				},
			},
		},
		Watch: WatchConfig{
			Region:         "switzerland",
			RefreshSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the tools cannot run with.
func (c *Config) Validate() error {
	if (c.OpenSky.Username == "") != (c.OpenSky.Password == "") {
		return errors.New("opensky username and password must be set together")
	}
	if c.OpenSky.TimeoutSeconds < 0 {
		return fmt.Errorf("opensky timeout must not be negative, got %d", c.OpenSky.TimeoutSeconds)
	}
	if c.Collector.IntervalSeconds <= 0 {
		return fmt.Errorf("collector interval must be positive, got %d", c.Collector.IntervalSeconds)
	}
	if c.Collector.RetentionHours < 0 {
		return fmt.Errorf("collector retention must not be negative, got %d", c.Collector.RetentionHours)
	}

	seen := make(map[string]bool, len(c.Collector.Regions))
	for i, r := range c.Collector.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("region %d has no name", i)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return fmt.Errorf("duplicate region name %q", r.Name)
		}
		seen[key] = true
		if err := r.ToRegion().Validate(); err != nil {
			return fmt.Errorf("region %q: %w", r.Name, err)
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats url is required when nats is enabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// ClientConfig builds the API client configuration.
func (c OpenSkyConfig) ClientConfig() opensky.Config {
	return opensky.Config{
		BaseURL:   c.BaseURL,
		Username:  c.Username,
		Password:  c.Password,
		UserAgent: c.UserAgent,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows credentials to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if user := os.Getenv("OPENSKY_USERNAME"); user != "" {
		c.OpenSky.Username = user
	}
	if pass := os.Getenv("OPENSKY_PASSWORD"); pass != "" {
		c.OpenSky.Password = pass
	}
	if baseURL := os.Getenv("OPENSKY_BASE_URL"); baseURL != "" {
		c.OpenSky.BaseURL = baseURL
	}
	if dbPassword := os.Getenv("OPENSKY_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if natsURL := os.Getenv("OPENSKY_NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}
	if level := os.Getenv("OPENSKY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
