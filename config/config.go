package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Estimate EstimateConfig
	Cache    CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// EstimateConfig holds remote estimation service configuration
type EstimateConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`
	RequestsPerMin   int           `mapstructure:"requests_per_min"`
}

// CacheConfig holds replacement cache configuration
type CacheConfig struct {
	Type          string `mapstructure:"type"` // "memory" or "redis"
	RedisURL      string `mapstructure:"redis_url"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bodybest/")

	// Environment variable settings
	v.SetEnvPrefix("BODYBEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Estimate service defaults. base_url and api_key default to empty so the
	// keys are visible to AutomaticEnv during Unmarshal.
	v.SetDefault("estimate.base_url", "")
	v.SetDefault("estimate.api_key", "")
	v.SetDefault("estimate.timeout", "10s")
	v.SetDefault("estimate.debounce_interval", "500ms")
	v.SetDefault("estimate.requests_per_min", 60)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.retention_days", 2)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Estimate.BaseURL == "" {
		return fmt.Errorf("estimate base URL is required (set BODYBEST_ESTIMATE_BASE_URL)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.RetentionDays < 1 {
		return fmt.Errorf("cache retention must be at least 1 day, got: %d", config.Cache.RetentionDays)
	}

	return nil
}
