package patient

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/notify"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPatientRepo) List(_ context.Context, q, status string, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for _, p := range m.patients {
		if p.DeletedAt != nil {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if q != "" {
			ql := strings.ToLower(q)
			if !strings.Contains(strings.ToLower(p.FirstName), ql) &&
				!strings.Contains(strings.ToLower(p.LastName), ql) &&
				!strings.Contains(strings.ToLower(p.Email), ql) &&
				!strings.Contains(strings.ToLower(p.Phone), ql) &&
				!strings.Contains(strings.ToLower(p.Code), ql) {
				continue
			}
		}
		all = append(all, p)
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

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	existing, ok := m.patients[p.ID]
	if !ok || existing.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := m.patients[id]
	if !ok || p.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	p, ok := m.patients[id]
	return ok && p.DeletedAt == nil, nil
}

type notifyCall struct {
	template  string
	recipient string
	data      map[string]string
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (m *mockNotifier) SendAsync(templateID, recipient string, data map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, notifyCall{template: templateID, recipient: recipient, data: data})
}

type mockAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockAuditor) RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func newTestService() (*Service, *mockNotifier, *mockAuditor) {
	n := &mockNotifier{}
	a := &mockAuditor{}
	return NewService(newMockPatientRepo(), n, a, "MedCore Clinic"), n, a
}

func TestRegisterSelfService(t *testing.T) {
	svc, n, a := newTestService()

	p, err := svc.Register(context.Background(), Input{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test",
		DateOfBirth: "1990-12-10",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("self-registered patient should be PENDING, got %s", p.Status)
	}
	if !strings.HasPrefix(p.Code, "PAT-") || len(p.Code) != 12 {
		t.Errorf("unexpected patient code %q", p.Code)
	}

	if len(n.calls) != 1 || n.calls[0].template != notify.TemplatePatientWelcome {
		t.Fatalf("expected one welcome notification, got %+v", n.calls)
	}
	if n.calls[0].recipient != "ada@example.test" {
		t.Errorf("welcome mail sent to %s", n.calls[0].recipient)
	}
	if len(a.actions) != 1 || a.actions[0] != "patient.register" {
		t.Errorf("expected patient.register audit, got %v", a.actions)
	}
}

func TestStaffCreateIsApproved(t *testing.T) {
	svc, n, _ := newTestService()

	p, err := svc.Create(context.Background(), Input{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.test",
	}, uuid.New(), "front-desk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Status != StatusApproved {
		t.Errorf("staff-created patient should be APPROVED, got %s", p.Status)
	}
	if len(n.calls) != 0 {
		t.Error("staff creation should not send welcome mail")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		in   Input
	}{
		{"missing names", Input{Email: "x@y.test"}},
		{"bad email", Input{FirstName: "A", LastName: "B", Email: "nope"}},
		{"bad dob", Input{FirstName: "A", LastName: "B", Email: "x@y.test", DateOfBirth: "10/12/1990"}},
		{"future dob", Input{FirstName: "A", LastName: "B", Email: "x@y.test", DateOfBirth: "2999-01-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.in); apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestApprove(t *testing.T) {
	svc, _, a := newTestService()

	p, err := svc.Register(context.Background(), Input{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	approved, err := svc.Approve(context.Background(), p.ID, uuid.New(), "admin")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("expected APPROVED, got %s", approved.Status)
	}

	if _, err := svc.Approve(context.Background(), p.ID, uuid.New(), "admin"); !apperror.IsConflict(err) {
		t.Errorf("second approve: expected conflict, got %v", err)
	}

	found := false
	for _, action := range a.actions {
		if action == "patient.approve" {
			found = true
		}
	}
	if !found {
		t.Error("approve was not audited")
	}
}

func TestSearchAndSoftDelete(t *testing.T) {
	svc, _, _ := newTestService()

	p1, _ := svc.Create(context.Background(), Input{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test", Phone: "555-0101"}, uuid.Nil, "admin")
	if _, err := svc.Create(context.Background(), Input{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.test"}, uuid.Nil, "admin"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	items, total, err := svc.List(context.Background(), "lovelace", "", 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != p1.ID {
		t.Errorf("search by last name: expected only Ada, got %d results", total)
	}

	if err := svc.SoftDelete(context.Background(), p1.ID, uuid.Nil, "admin"); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if err := svc.SoftDelete(context.Background(), p1.ID, uuid.Nil, "admin"); !apperror.IsNotFound(err) {
		t.Errorf("second delete: expected not-found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), p1.ID); !apperror.IsNotFound(err) {
		t.Errorf("get after delete: expected not-found, got %v", err)
	}

	_, total, err = svc.List(context.Background(), "", "", 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 {
		t.Errorf("deleted patient still listed: total=%d", total)
	}
}
