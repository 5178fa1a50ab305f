package task

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the task list query.
type ListFilter struct {
	AssigneeID *uuid.UUID
	Status     string
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Task, int, error)
	Update(ctx context.Context, t *Task) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
