package feedback

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
		Create(ctx context.Context, username string, in FeedbackIn) (*Feedback, error)
		GetByID(ctx context.Context, id int) (*Feedback, error)
		ListByOwner(ctx context.Context, username string) ([]Feedback, error)
		Update(ctx context.Context, id int, in FeedbackIn) (*Feedback, error)
		Delete(ctx context.Context, id int) error
	}

	repo struct {
		db database.DBTX
	}
)

const columns = `id, title, content, username, created_at, updated_at`

func NewRepo(pool *pgxpool.Pool) repoer {
	return &repo{db: pool}
}

func scan(row pgx.Row) (*Feedback, error) {
	var f Feedback
	err := row.Scan(
		&f.ID,
		&f.Title,
		&f.Content,
		&f.Username,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &f, nil
}

func (r *repo) Create(ctx context.Context, username string, in FeedbackIn) (*Feedback, error) {
	stmt := `
	INSERT INTO feedback (
		title, content, username
	)
	VALUES (
		$1, $2, $3
	)
	RETURNING ` + columns

	f, err := scan(r.db.QueryRow(ctx, stmt, in.Title, in.Content, username))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, errs.ErrOwnerNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *repo) GetByID(ctx context.Context, id int) (*Feedback, error) {
	stmt := `
	SELECT ` + columns + `
	FROM feedback
	WHERE id = $1`

	return scan(r.db.QueryRow(ctx, stmt, id))
}

// ListByOwner returns the owner's feedback, newest first.
func (r *repo) ListByOwner(ctx context.Context, username string) ([]Feedback, error) {
	stmt := `
	SELECT ` + columns + `
	FROM feedback
	WHERE username = $1
	ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, stmt, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []Feedback
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

// Update replaces title and content. Ownership never changes.
func (r *repo) Update(ctx context.Context, id int, in FeedbackIn) (*Feedback, error) {
	stmt := `
	UPDATE feedback
	SET title = $2, content = $3, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + columns

	return scan(r.db.QueryRow(ctx, stmt, id, in.Title, in.Content))
}

func (r *repo) Delete(ctx context.Context, id int) error {
	stmt := `DELETE FROM feedback WHERE id = $1`

	result, err := r.db.Exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
