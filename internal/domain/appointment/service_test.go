package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medcore/medcore/internal/domain/patient"
	"github.com/medcore/medcore/internal/domain/user"
	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/notify"
)

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	var all []*Appointment
	for _, a := range m.appointments {
		if a.DeletedAt != nil {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		all = append(all, a)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	existing, ok := m.appointments[a.ID]
	if !ok || existing.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	a, ok := m.appointments[id]
	if !ok || a.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	a.DeletedAt = &now
	return nil
}

type mockPatientDirectory struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatientDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.patients[id]
	return ok, nil
}

func (m *mockPatientDirectory) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type mockStaffDirectory struct {
	staff map[uuid.UUID]*user.User
}

func (m *mockStaffDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.staff[id]
	return ok, nil
}

func (m *mockStaffDirectory) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type notifyCall struct {
	template  string
	recipient string
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (m *mockNotifier) SendAsync(templateID, recipient string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{template: templateID, recipient: recipient})
}

type mockAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockAuditor) RecordAsync(action, _, _ string, _ uuid.UUID, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

type fixture struct {
	svc       *Service
	repo      *mockAppointmentRepo
	notifier  *mockNotifier
	auditor   *mockAuditor
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	patientID := uuid.New()
	doctorID := uuid.New()
	patients := &mockPatientDirectory{patients: map[uuid.UUID]*patient.Patient{
		patientID: {ID: patientID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test"},
	}}
	staff := &mockStaffDirectory{staff: map[uuid.UUID]*user.User{
		doctorID: {ID: doctorID, FullName: "Dr. Dolittle", Role: "doctor"},
	}}
	repo := newMockAppointmentRepo()
	n := &mockNotifier{}
	a := &mockAuditor{}
	return &fixture{
		svc:       NewService(repo, patients, staff, n, a),
		repo:      repo,
		notifier:  n,
		auditor:   a,
		patientID: patientID,
		doctorID:  doctorID,
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:   f.patientID,
		DoctorID:    f.doctorID,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Reason:      "checkup",
	}, uuid.New(), "front-desk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return a
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if a.Status != StatusPending {
		t.Errorf("new appointment should be PENDING, got %s", a.Status)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].template != notify.TemplateAppointmentBooked {
		t.Fatalf("expected booking notification, got %+v", f.notifier.calls)
	}
	if f.notifier.calls[0].recipient != "ada@example.test" {
		t.Errorf("notification sent to %s", f.notifier.calls[0].recipient)
	}
}

func TestCreateAppointmentUnknownReferences(t *testing.T) {
	f := newFixture()
	in := CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    f.doctorID,
		ScheduledAt: time.Now().Add(time.Hour),
		Reason:      "checkup",
	}
	if _, err := f.svc.Create(context.Background(), in, uuid.Nil, "admin"); !apperror.IsNotFound(err) {
		t.Errorf("unknown patient: expected not-found, got %v", err)
	}

	in.PatientID = f.patientID
	in.DoctorID = uuid.New()
	if _, err := f.svc.Create(context.Background(), in, uuid.Nil, "admin"); !apperror.IsNotFound(err) {
		t.Errorf("unknown doctor: expected not-found, got %v", err)
	}

	if len(f.repo.appointments) != 0 {
		t.Error("failed creates must not insert rows")
	}
}

func TestTransitions(t *testing.T) {
	f := newFixture()
	actor := uuid.New()

	a := f.book(t)

	confirmed, err := f.svc.Approve(context.Background(), a.ID, actor, "doctor")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
	}

	// Approving again is a conflict, not a silent no-op.
	if _, err := f.svc.Approve(context.Background(), a.ID, actor, "doctor"); !apperror.IsConflict(err) {
		t.Errorf("approve on CONFIRMED: expected conflict, got %v", err)
	}

	done, err := f.svc.Complete(context.Background(), a.ID, actor, "doctor")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", done.Status)
	}

	if _, err := f.svc.Cancel(context.Background(), a.ID, actor, "doctor"); !apperror.IsConflict(err) {
		t.Errorf("cancel on COMPLETED: expected conflict, got %v", err)
	}
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.Complete(context.Background(), a.ID, uuid.Nil, "doctor"); !apperror.IsConflict(err) {
		t.Errorf("complete on PENDING: expected conflict, got %v", err)
	}
}

func TestCancelNotifiesAndIsTerminal(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	cancelled, err := f.svc.Cancel(context.Background(), a.ID, uuid.Nil, "front-desk")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	var sawCancelMail bool
	for _, call := range f.notifier.calls {
		if call.template == notify.TemplateAppointmentCancelled {
			sawCancelMail = true
		}
	}
	if !sawCancelMail {
		t.Error("cancellation notification missing")
	}

	if _, err := f.svc.Approve(context.Background(), a.ID, uuid.Nil, "admin"); !apperror.IsConflict(err) {
		t.Errorf("approve on CANCELLED: expected conflict, got %v", err)
	}
}

func TestUpdateRefusesStatusChange(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	status := StatusConfirmed
	_, err := f.svc.Update(context.Background(), a.ID, UpdateInput{Status: &status}, uuid.Nil, "admin")
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("status through update: expected validation error, got %v", err)
	}

	got, err := f.svc.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status changed through update: %s", got.Status)
	}
}

func TestTransitionsAreAudited(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.Approve(context.Background(), a.ID, uuid.New(), "doctor"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	want := map[string]bool{"appointment.create": false, "appointment.approve": false}
	for _, action := range f.auditor.actions {
		if _, ok := want[action]; ok {
			want[action] = true
		}
	}
	for action, seen := range want {
		if !seen {
			t.Errorf("missing audit action %s", action)
		}
	}
}
