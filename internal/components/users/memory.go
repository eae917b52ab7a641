package users

import (
	"context"
	"time"

	"github.com/andrasnagy-data/feedback/internal/components/feedback"
	"github.com/andrasnagy-data/feedback/internal/shared/database"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

// MemoryTable is the in-memory table holding User rows, keyed by username.
const MemoryTable = "users"

type memoryRepo struct {
	db  *database.Memory
	now func() time.Time
}

// NewMemoryRepo stores users in db, sharing it with the feedback memory repo.
func NewMemoryRepo(db *database.Memory) repoer {
	return &memoryRepo{db: db, now: time.Now}
}

func (r *memoryRepo) Create(_ context.Context, user User) (*User, error) {
	err := r.db.Tx(func(tx *database.MemoryTx) error {
		if tx.Exists(MemoryTable, user.Username) {
			return errs.ErrDuplicateUsername
		}
		user.CreatedAt = r.now().UTC()
		tx.Put(MemoryTable, user.Username, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	var out User
	err := r.db.Tx(func(tx *database.MemoryTx) error {
		u, ok := database.Get[User](tx, MemoryTable, username)
		if !ok {
			return errs.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryRepo) Delete(_ context.Context, username string) error {
	return r.db.Tx(func(tx *database.MemoryTx) error {
		if !tx.Exists(MemoryTable, username) {
			return errs.ErrNotFound
		}
		feedback.DeleteOwnedTx(tx, username)
		tx.Delete(MemoryTable, username)
		return nil
	})
}
