package audit

import "context"

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Entry, int, error)
}
