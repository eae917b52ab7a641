package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andrasnagy-data/feedback/internal/shared/cookie"
)

// RedisManager keeps an opaque session id in the cookie and the username in redis.
type RedisManager struct {
	client *redis.Client
	secret []byte
	opts   cookie.Options
	ttl    time.Duration
}

func NewRedisManager(client *redis.Client, secret []byte, opts cookie.Options, ttl time.Duration) *RedisManager {
	return &RedisManager{client: client, secret: secret, opts: opts, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func userSessionsKey(username string) string {
	return fmt.Sprintf("user_sessions:%s", username)
}

// Establish starts a fresh session id, dropping any previous one to avoid fixation.
func (m *RedisManager) Establish(w http.ResponseWriter, r *http.Request, username string) error {
	ctx := r.Context()

	if err := m.drop(ctx, r); err != nil {
		return err
	}

	id := uuid.NewString()
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, sessionKey(id), username, m.ttl)
	pipe.SAdd(ctx, userSessionsKey(username), id)
	pipe.Expire(ctx, userSessionsKey(username), m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return cookie.Write(w, CookieName, id, m.secret, m.opts)
}

func (m *RedisManager) Current(r *http.Request) (string, bool, error) {
	id, err := m.sessionID(r)
	if err != nil || id == "" {
		return "", false, err
	}

	username, err := m.client.Get(r.Context(), sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}
	return username, true, nil
}

func (m *RedisManager) Clear(w http.ResponseWriter, r *http.Request) error {
	if err := m.drop(r.Context(), r); err != nil {
		return err
	}
	cookie.Expire(w, CookieName, m.opts)
	return nil
}

// Revoke deletes every session id recorded for username.
func (m *RedisManager) Revoke(ctx context.Context, username string) error {
	ids, err := m.client.SMembers(ctx, userSessionsKey(username)).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(username))

	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

func (m *RedisManager) sessionID(r *http.Request) (string, error) {
	id, err := cookie.Read(r, CookieName, m.secret)
	if errors.Is(err, http.ErrNoCookie) || errors.Is(err, cookie.ErrInvalidValue) {
		return "", nil
	}
	return id, err
}

func (m *RedisManager) drop(ctx context.Context, r *http.Request) error {
	id, err := m.sessionID(r)
	if err != nil || id == "" {
		return err
	}

	username, err := m.client.GetDel(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return m.client.SRem(ctx, userSessionsKey(username), id).Err()
}
