package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

var ErrInvalidSecretKey = errors.New("SECRET_KEY must be 16, 24 or 32 hex-encoded bytes")

// Config holds application configuration
type Config struct {
	Version        string        `env:"VERSION" envDefault:"0.1.0"`
	Port           int           `env:"PORT" envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"dev"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN      string        `env:"SENTRY_DSN"`
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	SecretKey      string        `env:"SECRET_KEY,required,notEmpty"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"cookie"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	BcryptCost     int           `env:"BCRYPT_COST"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"true"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

// NewConfig reads the environment, after loading .env.local if one is present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if _, err := c.SecretKeyBytes(); err != nil {
		return err
	}

	switch strings.ToLower(c.SessionBackend) {
	case SessionBackendCookie:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (c *Config) IsEnvProd() bool {
	if c.Environment == "prod" && c.SentryDSN != "" {
		return true
	}
	return false
}

// SecretKeyBytes decodes the hex session secret into an AES key.
func (c *Config) SecretKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, ErrInvalidSecretKey
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, ErrInvalidSecretKey
	}
}

// PasswordCost returns the bcrypt cost, falling back to the library default.
func (c *Config) PasswordCost() int {
	if c.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return c.BcryptCost
}
