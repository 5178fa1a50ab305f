package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient statuses. Self-registered patients start PENDING and become
// APPROVED through the approve operation; staff-created patients are
// APPROVED immediately.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
)

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Email       string     `db:"email" json:"email"`
	Phone       string     `db:"phone" json:"phone"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string     `db:"gender" json:"gender,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedBy   *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// FullName is used in notification templates.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
