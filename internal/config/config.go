// Package config loads runtime settings from defaults, an optional YAML file
// and the environment. Environment variables use the upper-cased key with
// dots replaced by underscores, e.g. SPOTIFY_CLIENT_ID or RETRY_MAX_RETRIES.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of runtime settings.
type Config struct {
	Listen   string `mapstructure:"listen" yaml:"listen"`
	Database string `mapstructure:"database" yaml:"database"`

	Spotify    SpotifyConfig    `mapstructure:"spotify" yaml:"spotify"`
	ReccoBeats ReccoBeatsConfig `mapstructure:"reccobeats" yaml:"reccobeats"`
	RapidAPI   RapidAPIConfig   `mapstructure:"rapidapi" yaml:"rapidapi"`
	GetSongBPM GetSongBPMConfig `mapstructure:"getsongbpm" yaml:"getsongbpm"`

	Retry      RetryConfig      `mapstructure:"retry" yaml:"retry"`
	Resolution ResolutionConfig `mapstructure:"resolution" yaml:"resolution"`
	Workers    WorkersConfig    `mapstructure:"workers" yaml:"workers"`
}

type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
	Market       string `mapstructure:"market" yaml:"market"`
}

type ReccoBeatsConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type RapidAPIConfig struct {
	Key     string `mapstructure:"key" yaml:"key"`
	Host    string `mapstructure:"host" yaml:"host"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type GetSongBPMConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RetryConfig applies to every outbound provider call.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type ResolutionConfig struct {
	DefaultLimit      int           `mapstructure:"default_limit" yaml:"default_limit"`
	FillMissing       bool          `mapstructure:"fill_missing" yaml:"fill_missing"`
	SyntheticFallback bool          `mapstructure:"synthetic_fallback" yaml:"synthetic_fallback"`
	AnalyzePreviews   bool          `mapstructure:"analyze_previews" yaml:"analyze_previews"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	RatePerSecond     float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"` // 0 disables the limiter
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type WorkersConfig struct {
	Count int `mapstructure:"count" yaml:"count"`
	Queue int `mapstructure:"queue" yaml:"queue"`
}

// SetDefaults registers every key with its default. Keys without a default
// are invisible to Unmarshal when they only come from the environment, so
// credentials get an empty default too.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("database", "timbre.db")

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify.market", "US")

	v.SetDefault("reccobeats.base_url", "https://api.reccobeats.com")

	v.SetDefault("rapidapi.key", "")
	v.SetDefault("rapidapi.host", "")
	v.SetDefault("rapidapi.base_url", "")

	v.SetDefault("getsongbpm.api_key", "")
	v.SetDefault("getsongbpm.base_url", "https://api.getsongbpm.com")

	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.base_delay", 500*time.Millisecond)
	v.SetDefault("retry.max_delay", 30*time.Second)
	v.SetDefault("retry.timeout", 8*time.Second)

	v.SetDefault("resolution.default_limit", 8)
	v.SetDefault("resolution.fill_missing", true)
	v.SetDefault("resolution.synthetic_fallback", true)
	v.SetDefault("resolution.analyze_previews", true)
	v.SetDefault("resolution.concurrency", 5)
	v.SetDefault("resolution.rate_per_second", 0)
	v.SetDefault("resolution.burst", 1)
	v.SetDefault("resolution.cache_ttl", 24*time.Hour)

	v.SetDefault("workers.count", 2)
	v.SetDefault("workers.queue", 100)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML file at path, if any, over the defaults and
// environment.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Resolution.DefaultLimit < 1 || c.Resolution.DefaultLimit > 10 {
		errs = append(errs, fmt.Errorf("resolution.default_limit must be between 1 and 10, got %d", c.Resolution.DefaultLimit))
	}
	if c.Resolution.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("resolution.concurrency must be positive, got %d", c.Resolution.Concurrency))
	}
	if c.Resolution.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("resolution.rate_per_second must not be negative, got %v", c.Resolution.RatePerSecond))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if c.Workers.Count < 1 || c.Workers.Queue < 1 {
		errs = append(errs, errors.New("workers.count and workers.queue must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// RequireCatalog reports whether catalog credentials are present.
func (c Config) RequireCatalog() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.Spotify.ClientSecret = redact(c.Spotify.ClientSecret)
	c.RapidAPI.Key = redact(c.RapidAPI.Key)
	c.GetSongBPM.APIKey = redact(c.GetSongBPM.APIKey)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
