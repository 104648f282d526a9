package config

import (
	"fmt"
	"time"

	"github.com/labi1240/amazon-shifts-bot/internal/infra/storage/postgres"
)

// Duration is a time.Duration that unmarshals from YAML strings like "45s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Monitor  MonitorConfig   `yaml:"monitor"`
	Booking  BookingConfig   `yaml:"booking"`
	Session  SessionConfig   `yaml:"session"`
	Notify   NotifyConfig    `yaml:"notify"`
	Portal   PortalConfig    `yaml:"portal"`
	Redis    RedisConfig     `yaml:"redis"`
	Database postgres.Config `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
	Targets  []string        `yaml:"targets"`
}

// ServerConfig holds HTTP health/metrics server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MonitorConfig holds monitoring-loop settings.
type MonitorConfig struct {
	CheckInterval       Duration `yaml:"check_interval"`
	RecoveryInterval    Duration `yaml:"recovery_interval"`
	RecoveryIntervalMax Duration `yaml:"recovery_interval_max"`
	FailureThreshold    int      `yaml:"failure_threshold"`
	SummaryEvery        int      `yaml:"summary_every"`
	MaxCycles           int      `yaml:"max_cycles"` // 0 = unbounded
	ParallelScan        bool     `yaml:"parallel_scan"`
}

// BookingConfig holds claim settings.
type BookingConfig struct {
	DailyQuota           int      `yaml:"daily_quota"`
	PerCycleLimit        int      `yaml:"per_cycle_limit"`
	ClaimPolicy          string   `yaml:"claim_policy"` // first_success | up_to_quota
	PauseBetweenBookings Duration `yaml:"pause_between_bookings"`
	MaxAttempts          int      `yaml:"max_attempts"`
	BaseDelay            Duration `yaml:"base_delay"`
	MaxDelay             Duration `yaml:"max_delay"`
}

// SessionConfig holds session-monitor settings.
type SessionConfig struct {
	StalenessBound Duration `yaml:"staleness_bound"`
	MaxAttempts    int      `yaml:"max_attempts"`
	BaseDelay      Duration `yaml:"base_delay"`
	MaxDelay       Duration `yaml:"max_delay"`
}

// NotifyConfig holds notification dispatcher settings.
type NotifyConfig struct {
	WebhookURL   string     `yaml:"webhook_url"`
	Username     string     `yaml:"username"`
	Timeouts     []Duration `yaml:"timeouts"`
	MaxAttempts  int        `yaml:"max_attempts"`
	FallbackPath string     `yaml:"fallback_path"`
	BellAlert    bool       `yaml:"bell_alert"`
}

// PortalConfig holds hiring-portal client settings.
type PortalConfig struct {
	BaseURL  string   `yaml:"base_url"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Timeout  Duration `yaml:"timeout"`
}

// RedisConfig holds seen-store settings. Redis is optional; an empty URL
// disables deduplication.
type RedisConfig struct {
	URL      string   `yaml:"url"`
	Password string   `yaml:"password"`
	SeenTTL  Duration `yaml:"seen_ttl"`
}

// Validate rejects configurations the engine cannot run with.
func (c *AppConfig) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one scan target is required")
	}
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	switch c.Booking.ClaimPolicy {
	case "", "first_success", "up_to_quota":
	default:
		return fmt.Errorf("unknown claim_policy %q", c.Booking.ClaimPolicy)
	}
	return nil
}
