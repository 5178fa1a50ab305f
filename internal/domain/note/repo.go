package note

import (
	"context"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Note, int, error)
	Update(ctx context.Context, n *Note) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
