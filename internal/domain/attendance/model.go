package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the attendance table. One row per staff member per
// work day, enforced by UNIQUE(staff_id, work_date).
type Record struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	StaffID    uuid.UUID  `db:"staff_id" json:"staff_id"`
	WorkDate   time.Time  `db:"work_date" json:"work_date"`
	ClockInAt  time.Time  `db:"clock_in_at" json:"clock_in_at"`
	ClockOutAt *time.Time `db:"clock_out_at" json:"clock_out_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
