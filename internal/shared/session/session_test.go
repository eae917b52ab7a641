package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/feedback/internal/shared/cookie"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// carry copies cookies set on rec into a follow-up request, like a browser would.
func carry(t *testing.T, rec *httptest.ResponseRecorder, prev *http.Request) *http.Request {
	t.Helper()

	jar := map[string]*http.Cookie{}
	if prev != nil {
		for _, c := range prev.Cookies() {
			jar[c.Name] = c
		}
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range jar {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func managers(t *testing.T) map[string]Manager {
	t.Helper()
	client, _ := setupTestRedis(t)
	opts := cookie.Options{MaxAge: time.Hour}

	return map[string]Manager{
		"cookie": NewCookieManager(testSecret, opts),
		"redis":  NewRedisManager(client, testSecret, opts, time.Hour),
	}
}

// =============================================================================
// Behaviour shared by every backend
// =============================================================================

func TestManager_Lifecycle(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			fresh := httptest.NewRequest(http.MethodGet, "/", nil)
			_, ok, err := m.Current(fresh)
			require.NoError(t, err)
			assert.False(t, ok, "fresh context starts anonymous")

			rec := httptest.NewRecorder()
			require.NoError(t, m.Establish(rec, fresh, "alice"))
			authed := carry(t, rec, fresh)

			username, ok, err := m.Current(authed)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "alice", username)

			rec = httptest.NewRecorder()
			require.NoError(t, m.Clear(rec, authed))
			cleared := carry(t, rec, authed)

			_, ok, err = m.Current(cleared)
			require.NoError(t, err)
			assert.False(t, ok, "cleared context is anonymous")

			rec = httptest.NewRecorder()
			assert.NoError(t, m.Clear(rec, cleared), "clearing an empty session is not an error")
		})
	}
}

func TestManager_ReEstablishSwitchesIdentity(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			require.NoError(t, m.Establish(rec, req, "alice"))
			req = carry(t, rec, req)

			rec = httptest.NewRecorder()
			require.NoError(t, m.Establish(rec, req, "bob"))
			req = carry(t, rec, req)

			username, ok, err := m.Current(req)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "bob", username)
		})
	}
}

func TestManager_TamperedCookieIsAnonymous(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})

			_, ok, err := m.Current(req)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

// =============================================================================
// Cookie specifics
// =============================================================================

func TestCookieManager_ReplayedCookieExpires(t *testing.T) {
	m := NewCookieManager(testSecret, cookie.Options{MaxAge: time.Millisecond})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, req, "alice"))
	copied := carry(t, rec, req)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Clear(rec, copied))

	time.Sleep(10 * time.Millisecond)

	// a copy kept from before logout only lives as long as the session TTL
	_, ok, err := m.Current(copied)
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// Redis specifics
// =============================================================================

func TestRedisManager_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewRedisManager(client, testSecret, cookie.Options{}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, req, "alice"))
	req = carry(t, rec, req)

	mr.FastForward(2 * time.Minute)

	_, ok, err := m.Current(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisManager_Revoke(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewRedisManager(client, testSecret, cookie.Options{}, time.Hour)

	// two browsers logged in as alice, one as bob
	var alice []*http.Request
	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, m.Establish(rec, req, "alice"))
		alice = append(alice, carry(t, rec, req))
	}
	bobReq := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, bobReq, "bob"))
	bobReq = carry(t, rec, bobReq)

	require.NoError(t, m.Revoke(context.Background(), "alice"))

	for _, req := range alice {
		_, ok, err := m.Current(req)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.False(t, mr.Exists(userSessionsKey("alice")))

	username, ok, err := m.Current(bobReq)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", username)
}

func TestRedisManager_EstablishDropsPreviousSession(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewRedisManager(client, testSecret, cookie.Options{}, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, req, "alice"))
	first := carry(t, rec, req)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, first, "alice"))

	members, err := mr.Members(userSessionsKey("alice"))
	require.NoError(t, err)
	assert.Len(t, members, 1)

	_, ok, err := m.Current(first)
	require.NoError(t, err)
	assert.False(t, ok, "old session id no longer resolves")
}

func TestRedisManager_BackendError(t *testing.T) {
	client, mr := setupTestRedis(t)
	m := NewRedisManager(client, testSecret, cookie.Options{}, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, req, "alice"))
	req = carry(t, rec, req)

	mr.Close()

	_, _, err := m.Current(req)
	assert.Error(t, err)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
