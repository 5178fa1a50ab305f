package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Item maps to the pharmacy_item table. Monetary values are in cents.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	SKU            string     `db:"sku" json:"sku"`
	StockQty       int        `db:"stock_qty" json:"stock_qty"`
	UnitPriceCents int64      `db:"unit_price_cents" json:"unit_price_cents"`
	ReorderLevel   int        `db:"reorder_level" json:"reorder_level"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i *Item) LowStock() bool {
	return i.StockQty <= i.ReorderLevel
}

// Sale maps to the pharmacy_sale table. Unit price is snapshotted at
// sale time so later price changes do not rewrite history.
type Sale struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ItemID         uuid.UUID  `db:"item_id" json:"item_id"`
	Quantity       int        `db:"quantity" json:"quantity"`
	UnitPriceCents int64      `db:"unit_price_cents" json:"unit_price_cents"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	PatientID      *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	SoldBy         *uuid.UUID `db:"sold_by" json:"sold_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
