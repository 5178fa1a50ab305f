package appointment

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the appointment list query.
type ListFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
