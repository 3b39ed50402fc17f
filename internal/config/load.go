package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "STOKER"

// Load reads configuration from an optional YAML file and STOKER_* environment
// variables, applies defaults, and validates the result. An empty path falls
// back to ~/.config/stoker/config.yaml when that file exists.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("trigger_time", defaults.TriggerTime)
	v.SetDefault("timezone", defaults.Timezone)
	v.SetDefault("warm_threshold", defaults.WarmThreshold)
	v.SetDefault("cooldown", defaults.Cooldown)
	v.SetDefault("quota_cycle", defaults.QuotaCycle)
	v.SetDefault("probe_timeout", defaults.ProbeTimeout)
	v.SetDefault("trigger_timeout", defaults.TriggerTimeout)
	v.SetDefault("notify_timeout", defaults.NotifyTimeout)

	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing default file is fine; an explicit or unreadable file is not.
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		RefreshToken:   v.GetString("refresh_token"),
		TriggerTime:    v.GetString("trigger_time"),
		Timezone:       v.GetString("timezone"),
		WarmThreshold:  v.GetFloat64("warm_threshold"),
		Cooldown:       v.GetDuration("cooldown"),
		QuotaCycle:     v.GetDuration("quota_cycle"),
		ProbeTimeout:   v.GetDuration("probe_timeout"),
		TriggerTimeout: v.GetDuration("trigger_timeout"),
		NotifyTimeout:  v.GetDuration("notify_timeout"),
		Lark: LarkConfig{
			AppID:     v.GetString("lark.app_id"),
			AppSecret: v.GetString("lark.app_secret"),
			ChatID:    v.GetString("lark.chat_id"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "stoker", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
