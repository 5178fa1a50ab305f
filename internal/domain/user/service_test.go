package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/medcore/internal/platform/apperror"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Email, u.Email) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) List(_ context.Context, q string, limit, offset int) ([]*User, int, error) {
	var all []*User
	for _, u := range m.users {
		if u.DeletedAt != nil {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(q)) &&
			!strings.Contains(strings.ToLower(u.Email), strings.ToLower(q)) {
			continue
		}
		all = append(all, u)
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

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	existing, ok := m.users[u.ID]
	if !ok || existing.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (m *mockUserRepo) HardDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	u, ok := m.users[id]
	return ok && u.DeletedAt == nil, nil
}

func TestCreateUser(t *testing.T) {
	svc := NewService(newMockUserRepo())

	u, err := svc.Create(context.Background(), CreateInput{
		Email:    "Doc@Clinic.test",
		Password: "s3cret-pass",
		FullName: "Dr. Dolittle",
		Role:     "doctor",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Email != "doc@clinic.test" {
		t.Errorf("email not normalized: %s", u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret-pass" {
		t.Error("password was not hashed")
	}
	if !u.Active {
		t.Error("new user should be active")
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMockUserRepo())

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing email", CreateInput{Password: "s3cret-pass", FullName: "X", Role: "nurse"}},
		{"short password", CreateInput{Email: "a@b.test", Password: "short", FullName: "X", Role: "nurse"}},
		{"missing name", CreateInput{Email: "a@b.test", Password: "s3cret-pass", Role: "nurse"}},
		{"bad role", CreateInput{Email: "a@b.test", Password: "s3cret-pass", FullName: "X", Role: "janitor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.in); apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMockUserRepo())
	in := CreateInput{Email: "dup@clinic.test", Password: "s3cret-pass", FullName: "First", Role: "nurse"}

	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), in)
	if !apperror.IsConflict(err) {
		t.Errorf("expected conflict on duplicate email, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), CreateInput{
		Email: "login@clinic.test", Password: "s3cret-pass", FullName: "Login User", Role: "front-desk",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), "login@clinic.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != u.ID {
		t.Error("authenticated wrong user")
	}

	if _, err := svc.Authenticate(context.Background(), "login@clinic.test", "wrong"); apperror.KindOf(err) != apperror.KindUnauthorized {
		t.Errorf("wrong password: expected unauthorized, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@clinic.test", "s3cret-pass"); apperror.KindOf(err) != apperror.KindUnauthorized {
		t.Errorf("unknown email: expected unauthorized, got %v", err)
	}

	if _, err := svc.Deactivate(context.Background(), u.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "login@clinic.test", "s3cret-pass"); apperror.KindOf(err) != apperror.KindUnauthorized {
		t.Errorf("inactive account: expected unauthorized, got %v", err)
	}
}

func TestSoftDeleteIdempotence(t *testing.T) {
	svc := NewService(newMockUserRepo())

	u, err := svc.Create(context.Background(), CreateInput{
		Email: "gone@clinic.test", Password: "s3cret-pass", FullName: "Going Away", Role: "nurse",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.SoftDelete(context.Background(), u.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := svc.SoftDelete(context.Background(), u.ID); !apperror.IsNotFound(err) {
		t.Errorf("second delete: expected not-found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), u.ID); !apperror.IsNotFound(err) {
		t.Errorf("get after delete: expected not-found, got %v", err)
	}
}
