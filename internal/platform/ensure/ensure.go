// Package ensure provides the shared referential check used by services
// before inserting or updating rows that reference other entities.
package ensure

import (
	"context"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
)

// Checker is the one-method view of a repository that services depend
// on for existence checks across domain boundaries.
type Checker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Exists asserts that entity id exists, returning not-found when it
// does not and internal on lookup failure.
func Exists(ctx context.Context, c Checker, id uuid.UUID, entity string) error {
	ok, err := c.Exists(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if !ok {
		return apperror.NotFound(entity)
	}
	return nil
}
