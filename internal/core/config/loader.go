package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Monitor.CheckInterval == 0 {
		cfg.Monitor.CheckInterval = Duration(45 * time.Second)
	}
	if cfg.Monitor.RecoveryInterval == 0 {
		cfg.Monitor.RecoveryInterval = Duration(2 * time.Minute)
	}
	if cfg.Monitor.RecoveryIntervalMax == 0 {
		cfg.Monitor.RecoveryIntervalMax = Duration(10 * time.Minute)
	}
	if cfg.Monitor.FailureThreshold == 0 {
		cfg.Monitor.FailureThreshold = 10
	}
	if cfg.Monitor.SummaryEvery == 0 {
		cfg.Monitor.SummaryEvery = 5
	}
	if cfg.Booking.DailyQuota == 0 {
		cfg.Booking.DailyQuota = 3
	}
	if cfg.Booking.MaxAttempts == 0 {
		cfg.Booking.MaxAttempts = 5
	}
	if cfg.Booking.BaseDelay == 0 {
		cfg.Booking.BaseDelay = Duration(time.Second)
	}
	if cfg.Booking.MaxDelay == 0 {
		cfg.Booking.MaxDelay = Duration(30 * time.Second)
	}
	if cfg.Session.StalenessBound == 0 {
		cfg.Session.StalenessBound = Duration(12 * time.Hour)
	}
	if cfg.Session.MaxAttempts == 0 {
		cfg.Session.MaxAttempts = 3
	}
	if cfg.Session.BaseDelay == 0 {
		cfg.Session.BaseDelay = Duration(2 * time.Second)
	}
	if cfg.Session.MaxDelay == 0 {
		cfg.Session.MaxDelay = Duration(time.Minute)
	}
	if cfg.Notify.MaxAttempts == 0 {
		cfg.Notify.MaxAttempts = 2
	}
	if cfg.Notify.FallbackPath == "" {
		cfg.Notify.FallbackPath = "notifications_fallback.log"
	}
	if cfg.Portal.Timeout == 0 {
		cfg.Portal.Timeout = Duration(10 * time.Second)
	}
	if cfg.Redis.SeenTTL == 0 {
		cfg.Redis.SeenTTL = Duration(24 * time.Hour)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
