package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/andrasnagy-data/feedback/internal/shared/cookie"
)

// CookieManager keeps the username itself in the encrypted session cookie.
type CookieManager struct {
	secret []byte
	opts   cookie.Options
}

func NewCookieManager(secret []byte, opts cookie.Options) *CookieManager {
	return &CookieManager{secret: secret, opts: opts}
}

func (m *CookieManager) Establish(w http.ResponseWriter, _ *http.Request, username string) error {
	return cookie.Write(w, CookieName, username, m.secret, m.opts)
}

func (m *CookieManager) Current(r *http.Request) (string, bool, error) {
	username, err := cookie.Read(r, CookieName, m.secret)
	switch {
	case errors.Is(err, http.ErrNoCookie), errors.Is(err, cookie.ErrInvalidValue):
		return "", false, nil
	case err != nil:
		return "", false, err
	case username == "":
		return "", false, nil
	}
	return username, true, nil
}

func (m *CookieManager) Clear(w http.ResponseWriter, _ *http.Request) error {
	cookie.Expire(w, CookieName, m.opts)
	return nil
}

// Revoke is a no-op: cookie sessions live only on the client.
func (m *CookieManager) Revoke(context.Context, string) error {
	return nil
}
