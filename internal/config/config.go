package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LarkConfig holds optional Lark notifier credentials.
type LarkConfig struct {
	AppID     string
	AppSecret string
	ChatID    string
}

// Enabled reports whether the notifier is fully configured.
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// Config is the static configuration of the warmer. It is read once at
// startup and never mutated; changing it requires a restart.
type Config struct {
	// RefreshToken is the long-lived OAuth refresh credential. When empty it
	// is resolved from the OS keyring instead.
	RefreshToken string

	// TriggerTime is the daily warmup instant in 24h "HH:MM" form.
	TriggerTime string
	// Timezone is an IANA zone name ("Asia/Tokyo") or "UTC"/"Local".
	Timezone string

	// WarmThreshold is the remaining-fraction gate above which a pool is
	// considered idle and worth triggering.
	WarmThreshold float64
	// Cooldown is the fixed pause after a successful run before the next
	// day's trigger is computed.
	Cooldown time.Duration
	// QuotaCycle is the provider's rolling quota window, used only for the
	// informational refresh estimate.
	QuotaCycle time.Duration

	// ProbeTimeout bounds health-check, quota-fetch, and token calls.
	ProbeTimeout time.Duration
	// TriggerTimeout bounds the generative trigger call.
	TriggerTimeout time.Duration
	// NotifyTimeout bounds outbound notification delivery.
	NotifyTimeout time.Duration

	Lark LarkConfig
}

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		TriggerTime:    "07:00",
		Timezone:       "Local",
		WarmThreshold:  0.995,
		Cooldown:       time.Hour,
		QuotaCycle:     5 * time.Hour,
		ProbeTimeout:   10 * time.Second,
		TriggerTimeout: 45 * time.Second,
		NotifyTimeout:  10 * time.Second,
	}
}

// Validate checks the configuration and returns the first problem found.
// Timezone validation goes through the zone database so a typo fails fast
// instead of silently running in the wrong zone.
func (c Config) Validate() error {
	if _, _, err := ParseTimeOfDay(c.TriggerTime); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.WarmThreshold <= 0 || c.WarmThreshold > 1 {
		return fmt.Errorf("warm_threshold must be in (0, 1], got %v", c.WarmThreshold)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %v", c.Cooldown)
	}
	if c.QuotaCycle <= 0 {
		return fmt.Errorf("quota_cycle must be positive, got %v", c.QuotaCycle)
	}
	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ParseTimeOfDay parses a 24h "HH:MM" string.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q: want HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
