package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/feedback/internal/shared/cookie"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		keygenSize = 32
	})

	err := Execute(context.Background())
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)

	line := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(line, "SECRET_KEY="), line)

	key, err := hex.DecodeString(strings.TrimPrefix(line, "SECRET_KEY="))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestKeygen_Size(t *testing.T) {
	out, err := run(t, "keygen", "--bytes", "16")
	require.NoError(t, err)

	key, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(out), "SECRET_KEY="))
	require.NoError(t, err)
	assert.Len(t, key, 16)

	_, err = run(t, "keygen", "--bytes", "20")
	assert.Error(t, err)
}

func TestGenerateKey_Unique(t *testing.T) {
	a, err := generateKey(32)
	require.NoError(t, err)
	b, err := generateKey(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMigrate_RequiresConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SECRET_KEY", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"secret1\n", "secret1"},
		{"secret1\r\n", "secret1"},
		{"secret1", "secret1"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDescribe(t *testing.T) {
	assert.EqualError(t, describe(errs.ErrDuplicateUsername), "user already exists")
	assert.EqualError(t, describe(errs.ErrNotFound), "user not found")

	verr := errs.Field("email", "Invalid email address.")
	assert.Equal(t, error(verr), describe(verr))

	other := errors.New("db error: boom")
	assert.Equal(t, other, describe(other))
}

// =============================================================================
// Account deletion
// =============================================================================

type stubAccounts struct {
	err     error
	deleted []string
}

func (s *stubAccounts) Delete(_ context.Context, username string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, username)
	return nil
}

func loggedIn(t *testing.T, m session.Manager, username string) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(rec, httptest.NewRequest(http.MethodPost, "/login", nil), username))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func redisSessions(t *testing.T) session.Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	secret := []byte("0123456789abcdef0123456789abcdef")
	return session.NewRedisManager(client, secret, cookie.Options{MaxAge: time.Hour}, time.Hour)
}

func TestDeleteAccount_RevokesSessions(t *testing.T) {
	sessions := redisSessions(t)
	alice := loggedIn(t, sessions, "alice")
	bob := loggedIn(t, sessions, "bob")
	accounts := &stubAccounts{}

	require.NoError(t, deleteAccount(context.Background(), accounts, sessions, "alice"))
	assert.Equal(t, []string{"alice"}, accounts.deleted)

	_, ok, err := sessions.Current(alice)
	require.NoError(t, err)
	assert.False(t, ok, "deleted user's browser is anonymous")

	username, ok, err := sessions.Current(bob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", username)
}

func TestDeleteAccount_UnknownUserKeepsSessions(t *testing.T) {
	sessions := redisSessions(t)
	alice := loggedIn(t, sessions, "alice")
	accounts := &stubAccounts{err: errs.ErrNotFound}

	err := deleteAccount(context.Background(), accounts, sessions, "alice")
	assert.EqualError(t, err, "user not found")

	_, ok, err := sessions.Current(alice)
	require.NoError(t, err)
	assert.True(t, ok)
}
