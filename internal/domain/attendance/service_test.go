package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/medcore/internal/platform/apperror"
)

type mockAttendanceRepo struct {
	records map[string]*Record
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*Record)}
}

func dayKey(staffID uuid.UUID, workDate time.Time) string {
	return staffID.String() + "|" + workDate.Format("2006-01-02")
}

func (m *mockAttendanceRepo) ClockIn(_ context.Context, r *Record) error {
	key := dayKey(r.StaffID, r.WorkDate)
	if _, ok := m.records[key]; ok {
		return &pgconn.PgError{Code: "23505"}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.records[key] = &cp
	return nil
}

func (m *mockAttendanceRepo) ClockOut(_ context.Context, staffID uuid.UUID, workDate time.Time, at time.Time) (*Record, error) {
	rec, ok := m.records[dayKey(staffID, workDate)]
	if !ok || rec.ClockOutAt != nil {
		return nil, pgx.ErrNoRows
	}
	rec.ClockOutAt = &at
	cp := *rec
	return &cp, nil
}

func (m *mockAttendanceRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Record, int, error) {
	var all []*Record
	for _, rec := range m.records {
		if f.StaffID != nil && rec.StaffID != *f.StaffID {
			continue
		}
		if f.From != nil && rec.WorkDate.Before(*f.From) {
			continue
		}
		if f.To != nil && rec.WorkDate.After(*f.To) {
			continue
		}
		all = append(all, rec)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperror.Error, got %v", err)
	}
	return ae.Kind
}

func TestClockInOncePerDay(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := NewService(repo)
	staff := uuid.New()

	rec, err := svc.ClockIn(context.Background(), staff)
	if err != nil {
		t.Fatalf("first clock-in: %v", err)
	}
	if rec.WorkDate.Hour() != 0 || rec.WorkDate.Minute() != 0 {
		t.Errorf("work date not truncated to day: %v", rec.WorkDate)
	}
	if rec.ClockOutAt != nil {
		t.Error("new record should have no clock-out")
	}

	_, err = svc.ClockIn(context.Background(), staff)
	if kindOf(t, err) != apperror.KindConflict {
		t.Errorf("second clock-in: expected conflict, got %v", err)
	}
}

func TestClockInDistinctStaff(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := NewService(repo)

	if _, err := svc.ClockIn(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clock-in: %v", err)
	}
	if _, err := svc.ClockIn(context.Background(), uuid.New()); err != nil {
		t.Errorf("other staff member blocked: %v", err)
	}
}

func TestClockInNextDayAllowed(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := NewService(repo)
	staff := uuid.New()

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	if _, err := svc.ClockIn(context.Background(), staff); err != nil {
		t.Fatalf("day one clock-in: %v", err)
	}

	svc.now = func() time.Time { return day.Add(24 * time.Hour) }
	if _, err := svc.ClockIn(context.Background(), staff); err != nil {
		t.Errorf("next day clock-in blocked: %v", err)
	}
}

func TestClockOut(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := NewService(repo)
	staff := uuid.New()

	if _, err := svc.ClockIn(context.Background(), staff); err != nil {
		t.Fatalf("clock-in: %v", err)
	}
	rec, err := svc.ClockOut(context.Background(), staff)
	if err != nil {
		t.Fatalf("clock-out: %v", err)
	}
	if rec.ClockOutAt == nil {
		t.Fatal("clock-out time not stamped")
	}

	_, err = svc.ClockOut(context.Background(), staff)
	if kindOf(t, err) != apperror.KindNotFound {
		t.Errorf("second clock-out: expected not-found, got %v", err)
	}
}

func TestClockOutWithoutClockIn(t *testing.T) {
	svc := NewService(newMockAttendanceRepo())

	_, err := svc.ClockOut(context.Background(), uuid.New())
	if kindOf(t, err) != apperror.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestAttendanceListFilters(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := NewService(repo)
	alice := uuid.New()
	bob := uuid.New()

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	if _, err := svc.ClockIn(context.Background(), alice); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ClockIn(context.Background(), bob); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return day.Add(24 * time.Hour) }
	if _, err := svc.ClockIn(context.Background(), alice); err != nil {
		t.Fatal(err)
	}

	_, total, err := svc.List(context.Background(), ListFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 records, got %d", total)
	}

	_, total, err = svc.List(context.Background(), ListFilter{StaffID: &alice}, 20, 0)
	if err != nil {
		t.Fatalf("list by staff: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 records for alice, got %d", total)
	}

	from := day.Add(24 * time.Hour).Truncate(24 * time.Hour)
	_, total, err = svc.List(context.Background(), ListFilter{From: &from}, 20, 0)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 record from day two, got %d", total)
	}
}
