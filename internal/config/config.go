package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	Environment     string `mapstructure:"ENVIRONMENT"`
	TelegramToken   string `mapstructure:"TELEGRAM_TOKEN"`
	DatabaseDriver  string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	HTTPAddr        string `mapstructure:"HTTP_ADDR"`
	DefaultTimezone string `mapstructure:"DEFAULT_TIMEZONE"`
	ReportTime      string `mapstructure:"REPORT_TIME"`
	MissedCheckTime string `mapstructure:"MISSED_CHECK_TIME"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	LockTTLSeconds  int    `mapstructure:"LOCK_TTL_SECONDS"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogFile         string `mapstructure:"LOG_FILE"`

	// Location is DefaultTimezone resolved by Load.
	Location *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"ENVIRONMENT":       "development",
	"TELEGRAM_TOKEN":    "",
	"DATABASE_DRIVER":   "sqlite",
	"DATABASE_URL":      "daily_tracker.db",
	"HTTP_ADDR":         ":8080",
	"DEFAULT_TIMEZONE":  "UTC",
	"REPORT_TIME":       "08:00",
	"MISSED_CHECK_TIME": "09:00",
	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"LOCK_TTL_SECONDS":  10,
	"LOG_LEVEL":         "info",
	"LOG_FILE":          "",
}

// Load reads configuration from environment variables and an optional .env file in the working directory.
func Load() (Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for the .env file.
func LoadFrom(dir string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	trim(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func trim(cfg *Config) {
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	cfg.DefaultTimezone = strings.TrimSpace(cfg.DefaultTimezone)
	cfg.ReportTime = strings.TrimSpace(cfg.ReportTime)
	cfg.MissedCheckTime = strings.TrimSpace(cfg.MissedCheckTime)
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported", c.DatabaseDriver)
	}

	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}
	c.Location = loc

	for key, value := range map[string]string{"REPORT_TIME": c.ReportTime, "MISSED_CHECK_TIME": c.MissedCheckTime} {
		if value == "" {
			continue
		}
		if _, _, err := ParseClock(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if c.LockTTLSeconds <= 0 {
		c.LockTTLSeconds = 10
	}

	if c.TelegramToken == "" && c.HTTPAddr == "" {
		return fmt.Errorf("TELEGRAM_TOKEN or HTTP_ADDR is required")
	}
	return nil
}

// LockTTL is the Redis lock expiry.
func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// ParseClock splits an HH:MM string.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}
