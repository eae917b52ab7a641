// Package authz decides whether the request identity may act on a resource.
package authz

import (
	"context"

	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/middleware"
)

// Authorize allows the operation only when a session identity exists and equals owner.
// An empty owner stands for a target that could not be resolved and is always refused,
// so a missing resource and somebody else's resource look the same to the caller.
func Authorize(ctx context.Context, owner string) error {
	identity, ok := middleware.Identity(ctx)
	if !ok || owner == "" || identity != owner {
		return errs.ErrUnauthorized
	}
	return nil
}
