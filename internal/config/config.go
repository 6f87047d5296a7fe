// Package config loads the server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Addr string `yaml:"addr"`

	// Storage. Which DSN is used depends on the build tags the binary was
	// compiled with; the in-memory store needs none.
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MongoURI    string `yaml:"mongo_uri"`

	// Auth.
	JWTSecret         string        `yaml:"jwt_secret"`
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl"`
	MinPasswordLength int           `yaml:"min_password_length"`

	// Providers.
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIEndpoint    string `yaml:"openai_endpoint"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	AnthropicEndpoint string `yaml:"anthropic_endpoint"`

	// Generation defaults applied when neither the request nor the user's
	// settings name a value.
	DefaultService     string  `yaml:"default_service"`
	DefaultModel       string  `yaml:"default_model"`
	DefaultTemperature float64 `yaml:"default_temperature"`
	DefaultMaxTokens   int64   `yaml:"default_max_tokens"`

	// Observability.
	SentryDSN string `yaml:"sentry_dsn"`

	// Rate limiting.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// Load reads configuration from a YAML file (optional) and environment
// variables. Environment variables override YAML values.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Addr:               ":8080",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		MinPasswordLength:  8,
		DefaultService:     "openai",
		DefaultModel:       "gpt-3.5-turbo",
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   1000,
		RateLimitRPS:       10,
		RateLimitBurst:     20,
	}

	// Load from YAML file if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if v := os.Getenv("CHATHUB_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("CHATHUB_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("CHATHUB_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("CHATHUB_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AccessTokenTTL = d
		}
	}
	if v := os.Getenv("CHATHUB_REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshTokenTTL = d
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_ENDPOINT"); v != "" {
		cfg.OpenAIEndpoint = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_ENDPOINT"); v != "" {
		cfg.AnthropicEndpoint = v
	}
	if v := os.Getenv("CHATHUB_DEFAULT_SERVICE"); v != "" {
		cfg.DefaultService = v
	}
	if v := os.Getenv("CHATHUB_DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("CHATHUB_DEFAULT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DefaultTemperature = f
		}
	}
	if v := os.Getenv("CHATHUB_DEFAULT_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.DefaultMaxTokens = n
		}
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("CHATHUB_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("CHATHUB_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		}
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required (set CHATHUB_ADDR or yaml)")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required (set CHATHUB_JWT_SECRET or yaml)")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if c.AccessTokenTTL < time.Minute {
		return errors.New("access_token_ttl must be at least 1 minute")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return errors.New("refresh_token_ttl must exceed access_token_ttl")
	}
	if c.DefaultService == "" {
		return errors.New("default_service is required")
	}
	if c.DefaultTemperature < 0 || c.DefaultTemperature > 2 {
		return errors.New("default_temperature must be between 0 and 2")
	}
	return nil
}
