package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/auth"
	"github.com/medcore/medcore/internal/platform/db"
)

var validRoles = map[string]bool{
	auth.RoleSuperAdmin: true,
	auth.RoleAdmin:      true,
	auth.RoleDoctor:     true,
	auth.RoleNurse:      true,
	auth.RoleFrontDesk:  true,
	auth.RolePharmacist: true,
	auth.RolePatient:    true,
}

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

type CreateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, apperror.Validation("full_name is required")
	}
	if !validRoles[in.Role] {
		return nil, apperror.Validation("invalid role: %s", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]*User, int, error) {
	items, total, err := s.users.List(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperror.Validation("a valid email is required")
		}
		u.Email = email
	}
	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return nil, apperror.Validation("full_name cannot be empty")
		}
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Role != nil {
		if !validRoles[*in.Role] {
			return nil, apperror.Validation("invalid role: %s", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}

	if err := s.users.Update(ctx, u); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("user")
		}
		if db.IsUniqueViolation(err) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

// Deactivate blocks future logins without deleting the account.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	active := false
	return s.Update(ctx, id, UpdateInput{Active: &active})
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("user")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *Service) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.HardDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("user")
		}
		return apperror.Internal(err)
	}
	return nil
}

// Authenticate verifies credentials for the login flow. Inactive and
// deleted accounts fail the same way as a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, apperror.Internal(err)
	}
	if !u.Active {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	return u, nil
}
