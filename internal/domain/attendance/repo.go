package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows the attendance list query.
type ListFilter struct {
	StaffID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

type AttendanceRepository interface {
	// ClockIn inserts the day's row. The UNIQUE(staff_id, work_date)
	// constraint rejects a second clock-in, including concurrent ones.
	ClockIn(ctx context.Context, r *Record) error
	ClockOut(ctx context.Context, staffID uuid.UUID, workDate time.Time, at time.Time) (*Record, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Record, int, error)
}
