package patient

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/notify"
)

// notifier is the slice of notify.Notifier the service uses.
type notifier interface {
	SendAsync(templateID, recipient string, data map[string]string)
}

// auditor matches audit.Service's async recorder.
type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type Service struct {
	patients PatientRepository
	notify   notifier
	audit    auditor
	clinic   string
}

func NewService(patients PatientRepository, n notifier, a auditor, clinicName string) *Service {
	return &Service{patients: patients, notify: n, audit: a, clinic: clinicName}
}

type Input struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

func (in *Input) validate() (*Patient, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperror.Validation("first_name and last_name are required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	p := &Patient{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Gender:    in.Gender,
		Address:   in.Address,
	}
	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, apperror.Validation("date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(time.Now()) {
			return nil, apperror.Validation("date_of_birth cannot be in the future")
		}
		p.DateOfBirth = &dob
	}
	return p, nil
}

// Register is the public self-registration path. The patient starts
// PENDING and receives a welcome mail.
func (s *Service) Register(ctx context.Context, in Input) (*Patient, error) {
	p, err := in.validate()
	if err != nil {
		return nil, err
	}
	p.Status = StatusPending
	p.Code = newPatientCode()

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}

	s.notify.SendAsync(notify.TemplatePatientWelcome, p.Email, map[string]string{
		"clinic":       s.clinic,
		"patient_name": p.FullName(),
		"patient_code": p.Code,
	})
	s.audit.RecordAsync("patient.register", "patient", p.ID.String(), uuid.Nil, "public", nil)

	return p, nil
}

// Create is the staff path. The patient is APPROVED immediately.
func (s *Service) Create(ctx context.Context, in Input, actorID uuid.UUID, actorRole string) (*Patient, error) {
	p, err := in.validate()
	if err != nil {
		return nil, err
	}
	p.Status = StatusApproved
	p.Code = newPatientCode()
	if actorID != uuid.Nil {
		p.CreatedBy = &actorID
	}

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("patient.create", "patient", p.ID.String(), actorID, actorRole, nil)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("patient")
		}
		return nil, apperror.Internal(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, q, status string, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.patients.List(ctx, q, status, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, actorID uuid.UUID, actorRole string) (*Patient, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := in.validate()
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.Code = existing.Code
	updated.Status = existing.Status

	if err := s.patients.Update(ctx, updated); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("patient")
		}
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("patient.update", "patient", id.String(), actorID, actorRole, nil)
	return updated, nil
}

// Approve moves a PENDING patient to APPROVED. Approving an already
// approved patient is a conflict.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusApproved {
		return nil, apperror.Conflict("patient is already approved")
	}
	p.Status = StatusApproved

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("patient.approve", "patient", id.String(), actorID, actorRole, nil)
	return p, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	if err := s.patients.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("patient")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("patient.delete", "patient", id.String(), actorID, actorRole, nil)
	return nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newPatientCode generates the human-readable PAT-XXXXXXXX code.
func newPatientCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return "PAT-" + string(buf)
}
