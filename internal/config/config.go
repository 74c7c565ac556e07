// Package config loads service configuration from an optional YAML file with
// environment-variable overrides, and hot-reloads tunable limits on file
// change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SearchConfig configures the search collaborator boundary.
type SearchConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Endpoint       string  `mapstructure:"endpoint"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
}

// StoreConfig configures the session store eviction policy.
type StoreConfig struct {
	MaxSessions          int `mapstructure:"max_sessions"`
	TTLMinutes           int `mapstructure:"ttl_minutes"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// ResearchConfig configures the research pipeline.
type ResearchConfig struct {
	MaxSubQuestions int    `mapstructure:"max_sub_questions"`
	PreviewChars    int    `mapstructure:"preview_chars"`
	TemplatesPath   string `mapstructure:"templates_path"`
}

// ObservabilityConfig configures metrics and logging.
type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// Config is the full service configuration.
type Config struct {
	Search        SearchConfig        `mapstructure:"search"`
	Store         StoreConfig         `mapstructure:"store"`
	Research      ResearchConfig      `mapstructure:"research"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// TTL returns the store TTL as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Store.TTLMinutes) * time.Minute
}

// SweepInterval returns the janitor interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Store.SweepIntervalSeconds) * time.Second
}

// SearchTimeout returns the per-call search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", "")
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("search.rate_per_second", 5.0)
	v.SetDefault("search.burst", 5)
	v.SetDefault("store.max_sessions", 1000)
	v.SetDefault("store.ttl_minutes", 1440)
	v.SetDefault("store.sweep_interval_seconds", 300)
	v.SetDefault("research.max_sub_questions", 5)
	v.SetDefault("research.preview_chars", 500)
	v.SetDefault("research.templates_path", "")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 2112)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
}

// Load reads configuration from CONFIG_PATH (when set, the file must exist)
// with ODS_-prefixed env-var overrides and code defaults. The search API key
// additionally falls back to SERPER_API_KEY.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ODS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = os.Getenv("SERPER_API_KEY")
	}
	return &c, nil
}
