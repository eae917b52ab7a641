package feedback

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andrasnagy-data/feedback/internal/shared/database"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
)

const (
	// MemoryTable is the in-memory table holding Feedback rows.
	MemoryTable = "feedback"
	// memoryUsersTable must match the users component's table.
	memoryUsersTable = "users"
)

type memoryRepo struct {
	db  *database.Memory
	now func() time.Time
}

// NewMemoryRepo stores feedback in db. Owners are checked against db's users table.
func NewMemoryRepo(db *database.Memory) repoer {
	return &memoryRepo{db: db, now: time.Now}
}

// MemoryKey is the row key of feedback id. Zero padding keeps keys in id order.
func MemoryKey(id int) string {
	return fmt.Sprintf("%010d", id)
}

func (r *memoryRepo) Create(_ context.Context, username string, in FeedbackIn) (*Feedback, error) {
	var out Feedback
	err := r.db.Tx(func(tx *database.MemoryTx) error {
		if !tx.Exists(memoryUsersTable, username) {
			return errs.ErrOwnerNotFound
		}

		now := r.now().UTC()
		out = Feedback{
			ID:        tx.NextID(MemoryTable),
			Title:     in.Title,
			Content:   in.Content,
			Username:  username,
			CreatedAt: now,
			UpdatedAt: now,
		}
		tx.Put(MemoryTable, MemoryKey(out.ID), out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int) (*Feedback, error) {
	var out Feedback
	err := r.db.Tx(func(tx *database.MemoryTx) error {
		f, ok := database.Get[Feedback](tx, MemoryTable, MemoryKey(id))
		if !ok {
			return errs.ErrNotFound
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryRepo) ListByOwner(_ context.Context, username string) ([]Feedback, error) {
	var list []Feedback
	_ = r.db.Tx(func(tx *database.MemoryTx) error {
		list = database.Select(tx, MemoryTable, func(f Feedback) bool {
			return f.Username == username
		})
		return nil
	})

	// newest first, as postgres orders it
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *memoryRepo) Update(_ context.Context, id int, in FeedbackIn) (*Feedback, error) {
	var out Feedback
	err := r.db.Tx(func(tx *database.MemoryTx) error {
		f, ok := database.Get[Feedback](tx, MemoryTable, MemoryKey(id))
		if !ok {
			return errs.ErrNotFound
		}
		f.Title = in.Title
		f.Content = in.Content
		f.UpdatedAt = r.now().UTC()
		tx.Put(MemoryTable, MemoryKey(id), f)
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int) error {
	return r.db.Tx(func(tx *database.MemoryTx) error {
		if !tx.Delete(MemoryTable, MemoryKey(id)) {
			return errs.ErrNotFound
		}
		return nil
	})
}

// DeleteOwnedTx removes every row owned by username inside an open memory transaction.
func DeleteOwnedTx(tx *database.MemoryTx, username string) int {
	owned := database.Select(tx, MemoryTable, func(f Feedback) bool {
		return f.Username == username
	})
	for _, f := range owned {
		tx.Delete(MemoryTable, MemoryKey(f.ID))
	}
	return len(owned)
}
