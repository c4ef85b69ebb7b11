// Package config loads runtime configuration from environment variables,
// with an optional YAML file for the treat tuning knobs. Shared by
// cmd/tombistenfite and cmd/treatctl.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/treats"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Event brokers.
const (
	BrokerLocal    = "local"
	BrokerPostgres = "postgres"
)

// OIDC holds single sign-on settings. SSO is disabled when Issuer is empty.
type OIDC struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Config is populated from environment variables.
type Config struct {
	// HTTP server
	Addr   string
	WebDir string

	// Persistence
	Storage     string
	DatabaseURL string
	EventBroker string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Auth
	JWTSecret string
	JWTTTL    time.Duration
	OIDC      OIDC

	// Treats
	Treats treats.Config

	// Notification stream
	StreamHeartbeat time.Duration
	StreamRetry     time.Duration

	LogLevel slog.Level
}

// Load reads configuration from the environment with sensible defaults and
// validates it.
func Load() (*Config, error) {
	tc, err := LoadTreats(envOr("TREAT_CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:   envOr("ADDR", ":8080"),
		WebDir: envOr("WEB_DIR", "web"),

		Storage:     strings.ToLower(envOr("STORAGE", StoragePostgres)),
		DatabaseURL: envOr("DATABASE_URL", ""),
		EventBroker: strings.ToLower(envOr("EVENT_BROKER", BrokerLocal)),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		JWTSecret: envOr("JWT_SECRET", ""),
		JWTTTL:    envDuration("JWT_TTL", 12*time.Hour),
		OIDC: OIDC{
			Issuer:       envOr("OIDC_ISSUER", ""),
			ClientID:     envOr("OIDC_CLIENT_ID", ""),
			ClientSecret: envOr("OIDC_CLIENT_SECRET", ""),
			RedirectURL:  envOr("OIDC_REDIRECT_URL", ""),
		},

		Treats: tc,

		StreamHeartbeat: envDuration("STREAM_HEARTBEAT", 25*time.Second),
		StreamRetry:     envDuration("STREAM_RETRY", 5*time.Second),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set when STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	switch c.EventBroker {
	case BrokerLocal:
	case BrokerPostgres:
		if c.Storage != StoragePostgres {
			return errors.New("EVENT_BROKER=postgres requires STORAGE=postgres")
		}
	default:
		return fmt.Errorf("EVENT_BROKER must be %q or %q, got %q", BrokerLocal, BrokerPostgres, c.EventBroker)
	}
	if c.RateLimitEnabled && (c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.StreamHeartbeat <= 0 {
		return errors.New("STREAM_HEARTBEAT must be positive")
	}
	if err := c.Treats.Validate(); err != nil {
		return fmt.Errorf("treat config: %w", err)
	}
	return nil
}

// LoadTreats builds the treat configuration: defaults, then the YAML file at
// path (if any), then TREAT_* environment overrides. It does not validate.
func LoadTreats(path string) (treats.Config, error) {
	tc := treats.DefaultConfig()
	if path != "" {
		var err error
		if tc, err = LoadTreatFile(path, tc); err != nil {
			return tc, err
		}
	}
	th := &tc.Thresholds
	th.CooldownDays = envInt("TREAT_COOLDOWN_DAYS", th.CooldownDays)
	th.WeeklyLimit = envInt("TREAT_WEEKLY_LIMIT", th.WeeklyLimit)
	th.EMAWindowDays = envInt("TREAT_EMA_WINDOW_DAYS", th.EMAWindowDays)
	th.MinWeightLossKg = envFloat("TREAT_MIN_LOSS_KG", th.MinWeightLossKg)
	th.MinWeightLossPercent = envFloat("TREAT_MIN_LOSS_PERCENT", th.MinWeightLossPercent)
	th.MinMeasurementDays = envInt("TREAT_MIN_MEASUREMENT_DAYS", th.MinMeasurementDays)
	return tc, nil
}

// LoadTreatFile overlays the YAML document at path onto base. Keys absent
// from the file keep their base value.
func LoadTreatFile(path string, base treats.Config) (treats.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read treat config: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse treat config %s: %w", path, err)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
