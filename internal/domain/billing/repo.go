package billing

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the invoice list query.
type ListFilter struct {
	PatientID *uuid.UUID
	Status    string
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Invoice, int, error)
	Update(ctx context.Context, inv *Invoice) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
