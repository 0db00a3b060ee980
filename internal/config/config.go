// Package config loads runtime configuration from .env.local, an optional
// YAML file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	DefaultStravaBaseURL  = "https://www.strava.com/api/v3"
	DefaultStravaTokenURL = "https://www.strava.com/oauth/token"
)

// Config captures runtime configuration for the server and the CLI runs.
type Config struct {
	Port           string   `yaml:"port" validate:"required"`
	DatabaseURL    string   `yaml:"database_url"`
	SQLitePath     string   `yaml:"sqlite_path" validate:"required_without=DatabaseURL"`
	AllowedOrigins []string `yaml:"cors_allowed_origins"`
	SyncAPIToken   string   `yaml:"sync_api_token"`

	Strava   StravaConfig   `yaml:"strava"`
	Sync     SyncConfig     `yaml:"sync"`
	Backfill BackfillConfig `yaml:"backfill"`
	Log      LogConfig      `yaml:"log"`
}

// StravaConfig holds the remote API endpoints and the refresh credential.
type StravaConfig struct {
	ClientID     string        `yaml:"client_id" validate:"required"`
	ClientSecret string        `yaml:"client_secret" validate:"required"`
	RefreshToken string        `yaml:"refresh_token" validate:"required"`
	BaseURL      string        `yaml:"base_url" validate:"required,url"`
	TokenURL     string        `yaml:"token_url" validate:"required,url"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`

	// RequestsPer15Min is a client-side request budget; 0 disables it.
	RequestsPer15Min int `yaml:"requests_per_15min" validate:"gte=0"`
}

type SyncConfig struct {
	DefaultLimit int           `yaml:"default_limit" validate:"gt=0"`
	DetailDelay  time.Duration `yaml:"detail_delay" validate:"gte=0"`
}

type BackfillConfig struct {
	RateLimitBackoff    time.Duration `yaml:"rate_limit_backoff" validate:"gte=0"`
	MaxRateLimitRetries int           `yaml:"max_rate_limit_retries" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:       "5050",
		SQLitePath: "strava.db",
		Strava: StravaConfig{
			BaseURL:          DefaultStravaBaseURL,
			TokenURL:         DefaultStravaTokenURL,
			Timeout:          30 * time.Second,
			RequestsPer15Min: 100,
		},
		Sync: SyncConfig{
			DefaultLimit: 100,
			DetailDelay:  1500 * time.Millisecond,
		},
		Backfill: BackfillConfig{
			RateLimitBackoff:    15 * time.Minute,
			MaxRateLimitRetries: 4,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads .env.local (if present), the YAML file named by STRAVASYNC_CONFIG
// (if set) and then the environment. A numeric or duration variable that
// does not parse is an error.
//
// Environment variables:
//   - PORT, DATABASE_URL, SQLITE_PATH, CORS_ALLOWED_ORIGINS (comma separated)
//   - SYNC_API_TOKEN (bearer token required by /sync when set)
//   - STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET, STRAVA_REFRESH_TOKEN
//   - STRAVA_BASE_URL, STRAVA_TOKEN_URL, STRAVA_TIMEOUT, STRAVA_REQUESTS_PER_15MIN
//   - SYNC_DEFAULT_LIMIT, SYNC_DETAIL_DELAY
//   - BACKFILL_RATE_LIMIT_BACKOFF, BACKFILL_MAX_RATE_LIMIT_RETRIES
//   - LOG_LEVEL, LOG_FORMAT
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("STRAVASYNC_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	env := &envReader{}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	if origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok && origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}
	cfg.SyncAPIToken = getEnv("SYNC_API_TOKEN", cfg.SyncAPIToken)

	cfg.Strava.ClientID = getEnv("STRAVA_CLIENT_ID", cfg.Strava.ClientID)
	cfg.Strava.ClientSecret = getEnv("STRAVA_CLIENT_SECRET", cfg.Strava.ClientSecret)
	cfg.Strava.RefreshToken = getEnv("STRAVA_REFRESH_TOKEN", cfg.Strava.RefreshToken)
	cfg.Strava.BaseURL = getEnv("STRAVA_BASE_URL", cfg.Strava.BaseURL)
	cfg.Strava.TokenURL = getEnv("STRAVA_TOKEN_URL", cfg.Strava.TokenURL)
	cfg.Strava.Timeout = env.duration("STRAVA_TIMEOUT", cfg.Strava.Timeout)
	cfg.Strava.RequestsPer15Min = env.int("STRAVA_REQUESTS_PER_15MIN", cfg.Strava.RequestsPer15Min)

	cfg.Sync.DefaultLimit = env.int("SYNC_DEFAULT_LIMIT", cfg.Sync.DefaultLimit)
	cfg.Sync.DetailDelay = env.duration("SYNC_DETAIL_DELAY", cfg.Sync.DetailDelay)

	cfg.Backfill.RateLimitBackoff = env.duration("BACKFILL_RATE_LIMIT_BACKOFF", cfg.Backfill.RateLimitBackoff)
	cfg.Backfill.MaxRateLimitRetries = env.int("BACKFILL_MAX_RATE_LIMIT_RETRIES", cfg.Backfill.MaxRateLimitRetries)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	return env.err()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// envReader parses typed variables and remembers every value it rejected.
type envReader struct {
	invalid []string
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not a duration (e.g. 1500ms, 15m)", key, value))
		return fallback
	}
	return parsed
}

func (r *envReader) int(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not an integer", key, value))
		return fallback
	}
	return parsed
}

func (r *envReader) err() error {
	if len(r.invalid) == 0 {
		return nil
	}
	return fmt.Errorf("invalid environment: %s", strings.Join(r.invalid, "; "))
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
