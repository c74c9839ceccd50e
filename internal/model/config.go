package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend identifiers.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// APIConfig holds settings for the booking API the appointments come from.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://booking.example.com/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// RateLimitPerSec caps outgoing requests. Zero disables throttling.
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec" yaml:"rate_limit_per_sec"`

	// MaxRetries is how many times a 429 response is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// ReminderConfig controls derivation and the refresh cadence.
type ReminderConfig struct {
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	UpcomingLimit   int    `mapstructure:"upcoming_limit" yaml:"upcoming_limit"`
	RetentionDays   int    `mapstructure:"retention_days" yaml:"retention_days"`
	Timezone        string `mapstructure:"timezone" yaml:"timezone"`

	// PruneInactive skips completed, cancelled and no-show appointments
	// so their reminders disappear on the next refresh.
	PruneInactive bool `mapstructure:"prune_inactive" yaml:"prune_inactive"`
}

// StorageConfig selects where the notification blob is persisted.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"`
	Path          string `mapstructure:"path" yaml:"path"`
	Key           string `mapstructure:"key" yaml:"key"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// HTTPConfig configures the optional local JSON API.
type HTTPConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API       APIConfig      `mapstructure:"api" yaml:"api"`
	Reminders ReminderConfig `mapstructure:"reminders" yaml:"reminders"`
	Storage   StorageConfig  `mapstructure:"storage" yaml:"storage"`
	HTTP      HTTPConfig     `mapstructure:"http" yaml:"http"`
	Display   DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// PollInterval returns the refresh period as a duration.
func (c ReminderConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// Retention returns the retention window as a duration.
func (c ReminderConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Location resolves the configured timezone, falling back to local time.
func (c ReminderConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Timeout returns the per-request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// configDir returns ~/.config/carereminder, or "." when the home
// directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "carereminder")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/carereminder/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:         "http://localhost:5000/api",
			TimeoutSec:      15,
			RateLimitPerSec: 2,
			MaxRetries:      3,
		},
		Reminders: ReminderConfig{
			PollIntervalSec: 300,
			UpcomingLimit:   10,
			RetentionDays:   7,
			Timezone:        "Asia/Ho_Chi_Minh",
			PruneInactive:   true,
		},
		Storage: StorageConfig{
			Backend:   StorageSQLite,
			Path:      filepath.Join(configDir(), "reminders.db"),
			Key:       "notifications",
			RedisAddr: "localhost:6379",
		},
		HTTP: HTTPConfig{
			AllowedOrigins: []string{"*"},
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// Environment variables prefixed with CAREREMINDER_ override file values
// (e.g. CAREREMINDER_API_BASE_URL).
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("carereminder")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("api.rate_limit_per_sec", def.API.RateLimitPerSec)
	v.SetDefault("api.max_retries", def.API.MaxRetries)
	v.SetDefault("reminders.poll_interval_sec", def.Reminders.PollIntervalSec)
	v.SetDefault("reminders.upcoming_limit", def.Reminders.UpcomingLimit)
	v.SetDefault("reminders.retention_days", def.Reminders.RetentionDays)
	v.SetDefault("reminders.timezone", def.Reminders.Timezone)
	v.SetDefault("reminders.prune_inactive", def.Reminders.PruneInactive)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.key", def.Storage.Key)
	v.SetDefault("storage.redis_addr", def.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("http.addr", "")
	v.SetDefault("http.allowed_origins", def.HTTP.AllowedOrigins)
	v.SetDefault("display.theme", def.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		_, isPathErr := err.(*os.PathError)
		if !isPathErr && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Reminders.PollIntervalSec <= 0 {
		cfg.Reminders.PollIntervalSec = def.Reminders.PollIntervalSec
	}
	if cfg.Reminders.UpcomingLimit <= 0 {
		cfg.Reminders.UpcomingLimit = def.Reminders.UpcomingLimit
	}
	if cfg.Reminders.RetentionDays <= 0 {
		cfg.Reminders.RetentionDays = def.Reminders.RetentionDays
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = def.Storage.Key
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("reminders", cfg.Reminders)
	v.Set("storage", cfg.Storage)
	v.Set("http", cfg.HTTP)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
