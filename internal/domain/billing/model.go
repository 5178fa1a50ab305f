package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses.
const (
	StatusUnpaid = "UNPAID"
	StatusPaid   = "PAID"
	StatusVoid   = "VOID"
)

// LineItem is one billed line on an invoice. Monetary values are in
// cents.
type LineItem struct {
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Total returns the line total in cents.
func (li LineItem) Total() int64 {
	return int64(li.Quantity) * li.UnitPriceCents
}

// Invoice maps to the invoice table. Items are stored as JSONB.
type Invoice struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Number      string     `db:"number" json:"number"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Items       []LineItem `db:"items" json:"items"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Status      string     `db:"status" json:"status"`
	IssuedBy    *uuid.UUID `db:"issued_by" json:"issued_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
