package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/shared/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying the authenticated username.
func WithIdentity(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, identityKey, username)
}

// Identity extracts the authenticated username from the request context.
// ok is false for anonymous requests.
func Identity(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(identityKey).(string)
	return username, ok && username != ""
}

// NewSessionMiddleware resolves the session identity once per request and stores it in the
// request context for downstream handlers. Anonymous requests pass through untouched;
// authorization is decided per resource by the handlers.
func NewSessionMiddleware(manager session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok, err := manager.Current(r)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("Failed to load session")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
