package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

// =============================================================================
// Test Helpers
// =============================================================================

var rowColumns = []string{"username", "password_hash", "email", "first_name", "last_name", "created_at"}

func newRepoWithMock(t *testing.T) (*repo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return &repo{db: mock}, mock
}

func userRow(u User) *pgxmock.Rows {
	return pgxmock.NewRows(rowColumns).
		AddRow(u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName, u.CreatedAt)
}

var alice = User{
	Username:     "alice",
	PasswordHash: "$2a$04$hash",
	Email:        "alice@example.com",
	FirstName:    "Alice",
	LastName:     "Smith",
	CreatedAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
}

// =============================================================================
// Create
// =============================================================================

func TestRepo_Create(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(alice.Username, alice.PasswordHash, alice.Email, alice.FirstName, alice.LastName).
		WillReturnRows(userRow(alice))

	got, err := r.Create(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, &alice, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_CreateDuplicate(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(alice.Username, alice.PasswordHash, alice.Email, alice.FirstName, alice.LastName).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := r.Create(context.Background(), alice)
	assert.ErrorIs(t, err, errs.ErrDuplicateUsername)
}

func TestRepo_CreateDBError(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(alice.Username, alice.PasswordHash, alice.Email, alice.FirstName, alice.LastName).
		WillReturnError(errors.New("connection reset"))

	_, err := r.Create(context.Background(), alice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: connection reset")
	assert.NotErrorIs(t, err, errs.ErrDuplicateUsername)
}

// =============================================================================
// GetByUsername
// =============================================================================

func TestRepo_GetByUsername(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(userRow(alice))

	got, err := r.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &alice, got)
}

func TestRepo_GetByUsernameMissing(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// =============================================================================
// Delete
// =============================================================================

func TestRepo_DeleteRemovesFeedbackThenUser(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM feedback WHERE username = \$1`).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, r.Delete(context.Background(), "alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_DeleteMissingRollsBack(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM feedback WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := r.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_DeleteFeedbackFailureRollsBack(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM feedback WHERE username = \$1`).
		WithArgs("alice").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := r.Delete(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: lock timeout")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_DeleteBeginFailure(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	err := r.Delete(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: pool closed")
}
