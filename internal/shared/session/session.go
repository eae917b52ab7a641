// Package session tracks which username, if any, a browser client is authenticated as.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/feedback/internal/shared/config"
	"github.com/andrasnagy-data/feedback/internal/shared/cookie"
)

const CookieName = "session"

// Manager establishes, reads and clears the authenticated identity of one client.
// A client without a valid session is anonymous; that is not an error.
type Manager interface {
	Establish(w http.ResponseWriter, r *http.Request, username string) error
	Current(r *http.Request) (string, bool, error)
	Clear(w http.ResponseWriter, r *http.Request) error
	// Revoke ends every session held by username, where the backend can enumerate them.
	Revoke(ctx context.Context, username string) error
}

type params struct {
	fx.In

	Config    *config.Config
	Logger    zerolog.Logger
	Lifecycle fx.Lifecycle
}

// NewManager builds the Manager selected by SESSION_BACKEND and ties its connections to
// the fx lifecycle.
func NewManager(p params) (Manager, error) {
	m, closeFn, err := New(context.Background(), p.Config, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closeFn()
		},
	})
	return m, nil
}

// New builds the Manager selected by cfg.SessionBackend. The returned func releases
// whatever connection the backend holds.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Manager, func() error, error) {
	secret, err := cfg.SecretKeyBytes()
	if err != nil {
		return nil, nil, err
	}
	opts := cookie.Options{Secure: cfg.SecureCookies, MaxAge: cfg.SessionTTL}
	logger = logger.With().Str("component", "session").Logger()

	if strings.ToLower(cfg.SessionBackend) != config.SessionBackendRedis {
		logger.Debug().Msg("Using cookie session backend")
		return NewCookieManager(secret, opts), func() error { return nil }, nil
	}

	client, err := NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug().Dur("ttl", cfg.SessionTTL).Msg("Using redis session backend")
	return NewRedisManager(client, secret, opts, cfg.SessionTTL), client.Close, nil
}

// NewRedisClient connects to redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
