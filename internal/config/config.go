// Package config resolves the process configuration once at startup.
//
// Values come from the environment (optionally seeded from a .env file) and are
// parsed into Config with struct tags. Everything that depends on the hosting
// environment (engine selection, restricted reads, email fallback, backup gating)
// is derived from Config rather than from os.Getenv at call sites.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/thorsignia/backend/internal/database"
)

const (
	// EnvProduction is the APP_ENV value that marks a hosted deployment.
	EnvProduction = "production"
	// EnvDevelopment is the default APP_ENV.
	EnvDevelopment = "development"
)

// HTTP server limits.
const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 30 * time.Second
	IdleTimeout       = 120 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

// Config holds every recognized environment switch.
type Config struct {
	Port int    `env:"PORT" envDefault:"5000"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	// ReadOnlyHost is set on serverless hosts with a read-only filesystem.
	ReadOnlyHost bool `env:"VERCEL"`

	DatabaseURL      string        `env:"DATABASE_URL"`
	SQLitePath       string        `env:"SQLITE_PATH" envDefault:"data/contacts.db"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`

	// RestrictedOverride forces restricted mode on or off. Unset means
	// "restricted when hosted".
	RestrictedOverride *bool `env:"CONTACTS_RESTRICTED"`

	EmailHost   string `env:"EMAIL_HOST"`
	EmailPort   int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailSecure bool   `env:"EMAIL_SECURE"`
	EmailUser   string `env:"EMAIL_USER"`
	EmailPass   string `env:"EMAIL_PASS"`
	EmailFrom   string `env:"EMAIL_FROM" envDefault:"\"Thor Signia Website\" <noreply@thorsignia.in>"`
	EmailTo     string `env:"EMAIL_TO" envDefault:"info@thorsignia.in"`

	BackupPath        string        `env:"BACKUP_PATH" envDefault:"data/contact_submissions.json"`
	SideEffectTimeout time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"15s"`

	CORSOrigin         string `env:"CORS_ORIGIN" envDefault:"*"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	StaticDir          string `env:"STATIC_DIR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads .env files (when present) and then the process environment.
// A missing .env is not an error.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range dotenvFiles {
			_ = godotenv.Load(f)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout)
	}
	if c.SideEffectTimeout <= 0 {
		return fmt.Errorf("SIDE_EFFECT_TIMEOUT must be positive, got %s", c.SideEffectTimeout)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// Environment returns the normalized APP_ENV value.
func (c *Config) Environment() string {
	e := strings.ToLower(strings.TrimSpace(c.Env))
	if e == "" {
		return EnvDevelopment
	}
	return e
}

// Hosted reports whether the process runs as a production deployment.
func (c *Config) Hosted() bool {
	return c.Environment() == EnvProduction
}

// Restricted reports whether the read endpoints are disabled.
func (c *Config) Restricted() bool {
	if c.RestrictedOverride != nil {
		return *c.RestrictedOverride
	}
	return c.Hosted()
}

// EmailConfigured reports whether SMTP credentials are complete.
func (c *Config) EmailConfigured() bool {
	return c.EmailHost != "" && c.EmailUser != "" && c.EmailPass != ""
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseOptions maps the configuration onto the storage adapter's selection inputs.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		DatabaseURL:    c.DatabaseURL,
		ReadOnlyFS:     c.ReadOnlyHost,
		SQLitePath:     c.SQLitePath,
		Hosted:         c.Hosted(),
		ConnectTimeout: c.DBConnectTimeout,
	}
}
