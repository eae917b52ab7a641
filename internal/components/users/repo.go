package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andrasnagy-data/feedback/internal/shared/database"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

type (
	repoer interface {
		Create(ctx context.Context, user User) (*User, error)
		GetByUsername(ctx context.Context, username string) (*User, error)
		// Delete removes the user together with all of their feedback.
		Delete(ctx context.Context, username string) error
	}

	repo struct {
		db database.DBTX
	}
)

const columns = `username, password_hash, email, first_name, last_name, created_at`

func NewRepo(pool *pgxpool.Pool) repoer {
	return &repo{db: pool}
}

func scan(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

func (r *repo) Create(ctx context.Context, user User) (*User, error) {
	stmt := `
	INSERT INTO users (
		username, password_hash, email, first_name, last_name
	)
	VALUES (
		$1, $2, $3, $4, $5
	)
	RETURNING ` + columns

	u, err := scan(r.db.QueryRow(ctx, stmt,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errs.ErrDuplicateUsername
		}
		return nil, err
	}
	return u, nil
}

func (r *repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	stmt := `
	SELECT ` + columns + `
	FROM users
	WHERE username = $1`

	return scan(r.db.QueryRow(ctx, stmt, username))
}

// Delete removes the user's feedback and then the user in one transaction. The foreign key
// cascades too, but the rows are deleted explicitly so the outcome never depends on it.
func (r *repo) Delete(ctx context.Context, username string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM feedback WHERE username = $1`, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
