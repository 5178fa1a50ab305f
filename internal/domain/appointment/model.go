package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. The machine is PENDING -> CONFIRMED ->
// COMPLETED, with PENDING and CONFIRMED also able to move to CANCELLED.
// Status only changes through the transition operations.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Reason      string     `db:"reason" json:"reason"`
	Notes       string     `db:"notes" json:"notes,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
