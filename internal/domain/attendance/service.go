package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
)

type Service struct {
	records AttendanceRepository
	now     func() time.Time
}

func NewService(records AttendanceRepository) *Service {
	return &Service{records: records, now: time.Now}
}

// workDate truncates to the calendar day in UTC.
func workDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClockIn opens the staff member's attendance row for today. A second
// clock-in on the same day is a conflict; the unique constraint makes
// that hold under concurrency too.
func (s *Service) ClockIn(ctx context.Context, staffID uuid.UUID) (*Record, error) {
	if staffID == uuid.Nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	now := s.now()
	rec := &Record{
		StaffID:   staffID,
		WorkDate:  workDate(now),
		ClockInAt: now,
	}
	if err := s.records.ClockIn(ctx, rec); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperror.Conflict("already clocked in today")
		}
		return nil, apperror.Internal(err)
	}
	return rec, nil
}

// ClockOut stamps today's open row. Clocking out without a clock-in,
// or twice, is not-found.
func (s *Service) ClockOut(ctx context.Context, staffID uuid.UUID) (*Record, error) {
	if staffID == uuid.Nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	now := s.now()
	rec, err := s.records.ClockOut(ctx, staffID, workDate(now), now)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("open attendance record")
		}
		return nil, apperror.Internal(err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Record, int, error) {
	items, total, err := s.records.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}
