package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the market data fetcher. Precedence,
// lowest to highest: defaults, optional config file, environment
// variables, command-line flags.
type Config struct {
	// CacheDir is where fetched tables are persisted between runs.
	CacheDir string `mapstructure:"cache_dir"`
	// OutputDir receives the per-ticker CSV files.
	OutputDir string `mapstructure:"output_dir"`

	// Retry policy for provider fetches.
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`

	// Workers sizes the per-ticker fetch pool.
	Workers int `mapstructure:"workers"`

	// RateLimit caps provider requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`

	// BaseURL of the market-data provider (overridable for testing).
	BaseURL string `mapstructure:"base_url"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// Load reads configuration from defaults, an optional config file,
// environment variables, and the given flag set (may be nil).
//
// Recognized environment variables: MF_CACHE_DIR, MF_OUTPUT_DIR,
// MF_MAX_RETRIES, MF_BASE_DELAY, MF_WORKERS, MF_RATE_LIMIT, MF_BASE_URL,
// MF_LOG_LEVEL, MF_LOG_FILE.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("cache_dir", "./cache/yfinance")
	v.SetDefault("output_dir", ".")
	v.SetDefault("max_retries", 5)
	v.SetDefault("base_delay", 3*time.Second)
	v.SetDefault("workers", 1)
	v.SetDefault("rate_limit", 2.0)
	v.SetDefault("base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("MF")
	v.AutomaticEnv()

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marketfetcher")
	_ = v.ReadInConfig()

	// Bind command-line flags where defined. Flags only take effect when
	// actually set; otherwise env/config/defaults win.
	if flags != nil {
		bindings := map[string]string{
			"cache_dir":   "cache-dir",
			"output_dir":  "output",
			"workers":     "workers",
			"max_retries": "max-retries",
			"base_delay":  "base-delay",
			"rate_limit":  "rate-limit",
			"base_url":    "base-url",
			"log_level":   "log-level",
			"log_file":    "log-file",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base_delay must not be negative, got %s", c.BaseDelay)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %g", c.RateLimit)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}
	return nil
}
