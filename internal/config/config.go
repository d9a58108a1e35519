package config

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	Port                    int    `env:"PORT" envDefault:"8080"`
	AppEnv                  string `env:"APP_ENV" envDefault:"development"`
	DatabaseDriver          string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL             string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL                string `env:"REDIS_URL" envDefault:""`
	SessionSecret           string `env:"SESSION_SECRET,required,notEmpty"`
	AdminEmail              string `env:"ADMIN_EMAIL,required,notEmpty"`
	AdminPassword           string `env:"ADMIN_PASSWORD,required,notEmpty"`
	AdminLoginCheckPassword bool   `env:"ADMIN_LOGIN_CHECK_PASSWORD" envDefault:"true"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Validate(isProduction bool) error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}

	if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
		return fmt.Errorf("ADMIN_EMAIL is not a valid email address: %w", err)
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}

		if c.DatabaseDriver == DriverSQLite {
			log.Warn().Msg("DATABASE_DRIVER is sqlite3 in production: only a single replica can share the database file")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: login rate limiting is per-process")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !c.AdminLoginCheckPassword {
			log.Warn().Msg("ADMIN_LOGIN_CHECK_PASSWORD is false in production: login accepts any password for a known email")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
