package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pricewatch/internal/catalog"
	"pricewatch/internal/coingecko"
)

// Version is reported in the default User-Agent
const Version = "0.3.0"

// Theme names accepted by the dashboard
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeNord  = "nord"
)

// Settings are the user-adjustable values. The refresh core only reads the
// auto-refresh pair; theme and notifications are passed through untouched.
type Settings struct {
	AutoRefreshEnabled   bool
	AutoRefreshInterval  time.Duration
	Theme                string
	NotificationsEnabled bool
}

// Defaults returns the settings a reset restores
func Defaults() Settings {
	return Settings{
		AutoRefreshEnabled:   true,
		AutoRefreshInterval:  30 * time.Second,
		Theme:                ThemeNord,
		NotificationsEnabled: false,
	}
}

// Config holds all configuration for the price monitor.
type Config struct {
	// Upstream endpoints (configurable for testing)
	PriceBaseURL string `mapstructure:"price_base_url"`
	FlagBaseURL  string `mapstructure:"flag_base_url"`
	Asset        string `mapstructure:"asset"`

	// Shared HTTP client
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`

	// Refresh behaviour
	AutoRefreshEnabled   bool          `mapstructure:"auto_refresh_enabled"`
	AutoRefreshInterval  int           `mapstructure:"auto_refresh_interval"` // seconds
	SkipOverlappingTicks bool          `mapstructure:"skip_overlapping_ticks"`
	MinRefetchInterval   time.Duration `mapstructure:"min_refetch_interval"`

	// Inert settings
	Theme                string `mapstructure:"theme"`
	NotificationsEnabled bool   `mapstructure:"notifications_enabled"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// Settings returns the settings view of the configuration
func (c *Config) Settings() Settings {
	return Settings{
		AutoRefreshEnabled:   c.AutoRefreshEnabled,
		AutoRefreshInterval:  time.Duration(c.AutoRefreshInterval) * time.Second,
		Theme:                c.Theme,
		NotificationsEnabled: c.NotificationsEnabled,
	}
}

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"price-url":    "price_base_url",
	"flag-url":     "flag_base_url",
	"asset":        "asset",
	"interval":     "auto_refresh_interval",
	"auto-refresh": "auto_refresh_enabled",
	"theme":        "theme",
	"log-level":    "log_level",
	"log-file":     "log_file",
}

// RegisterFlags defines the command-line flags Load understands
func RegisterFlags(fs *pflag.FlagSet) {
	defaults := Defaults()
	fs.String("price-url", coingecko.DefaultBaseURL, "pricing API base URL")
	fs.String("flag-url", catalog.DefaultFlagBaseURL, "base URL of the SVG country flags")
	fs.String("asset", coingecko.DefaultAsset, "id of the asset to monitor")
	fs.Int("interval", int(defaults.AutoRefreshInterval/time.Second), "auto refresh interval in seconds")
	fs.Bool("auto-refresh", defaults.AutoRefreshEnabled, "refresh prices periodically")
	fs.String("theme", defaults.Theme, "dashboard theme (light, dark, nord)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "write logs to this file")
}

// Load reads configuration from flags, environment variables and an optional
// config file, in that order of precedence. flags may be nil.
//
// Recognised environment variables:
//   - COINGECKO_BASE_URL, FLAG_BASE_URL, PRICE_ASSET
//   - HTTP_TIMEOUT, USER_AGENT
//   - AUTO_REFRESH_ENABLED, AUTO_REFRESH_INTERVAL (seconds), SKIP_OVERLAPPING_TICKS, MIN_REFETCH_INTERVAL
//   - THEME, NOTIFICATIONS_ENABLED
//   - LOG_LEVEL, LOG_FILE
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("price_base_url", coingecko.DefaultBaseURL)
	v.SetDefault("flag_base_url", catalog.DefaultFlagBaseURL)
	v.SetDefault("asset", coingecko.DefaultAsset)
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("user_agent", "pricewatch/"+Version)
	v.SetDefault("auto_refresh_enabled", defaults.AutoRefreshEnabled)
	v.SetDefault("auto_refresh_interval", int(defaults.AutoRefreshInterval/time.Second))
	v.SetDefault("skip_overlapping_ticks", false)
	v.SetDefault("min_refetch_interval", "0s")
	v.SetDefault("theme", defaults.Theme)
	v.SetDefault("notifications_enabled", defaults.NotificationsEnabled)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.pricewatch")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindings := map[string]string{
		"price_base_url":         "COINGECKO_BASE_URL",
		"flag_base_url":          "FLAG_BASE_URL",
		"asset":                  "PRICE_ASSET",
		"http_timeout":           "HTTP_TIMEOUT",
		"user_agent":             "USER_AGENT",
		"auto_refresh_enabled":   "AUTO_REFRESH_ENABLED",
		"auto_refresh_interval":  "AUTO_REFRESH_INTERVAL",
		"skip_overlapping_ticks": "SKIP_OVERLAPPING_TICKS",
		"min_refetch_interval":   "MIN_REFETCH_INTERVAL",
		"theme":                  "THEME",
		"notifications_enabled":  "NOTIFICATIONS_ENABLED",
		"log_level":              "LOG_LEVEL",
		"log_file":               "LOG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
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

// validate collects every problem so they are reported together
func (c *Config) validate() error {
	var problems []string
	if c.PriceBaseURL == "" {
		problems = append(problems, "COINGECKO_BASE_URL is empty")
	}
	if c.FlagBaseURL == "" {
		problems = append(problems, "FLAG_BASE_URL is empty")
	}
	if c.Asset == "" {
		problems = append(problems, "PRICE_ASSET is empty")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}
	if c.AutoRefreshEnabled && c.AutoRefreshInterval <= 0 {
		problems = append(problems, "AUTO_REFRESH_INTERVAL must be positive when auto refresh is enabled")
	}
	if c.MinRefetchInterval < 0 {
		problems = append(problems, "MIN_REFETCH_INTERVAL must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}
