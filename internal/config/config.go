package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Session store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"dev"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL       string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout   time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	BackendJWTSecret string        `envconfig:"BACKEND_JWT_SECRET"`

	SessionStore  string        `envconfig:"SESSION_STORE" default:"memory"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"fleet_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`

	PageSize          int           `envconfig:"PAGE_SIZE" default:"10"`
	LoginPath         string        `envconfig:"LOGIN_PATH" default:"/login"`
	AllowedOrigins    []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMin   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	ScreenIdleTimeout time.Duration `envconfig:"SCREEN_IDLE_TIMEOUT" default:"30m"`
	UploadMaxBytes    int64         `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the portal cannot start with
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("BACKEND_URL must be provided"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_STORE=redis"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when SESSION_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be one of memory, redis, postgres; got %q", c.SessionStore))
	}

	return errors.Join(errs...)
}

// IsProduction returns true when the portal runs in production
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}
