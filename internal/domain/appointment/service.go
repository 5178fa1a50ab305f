package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/domain/patient"
	"github.com/medcore/medcore/internal/domain/user"
	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/ensure"
	"github.com/medcore/medcore/internal/platform/notify"
)

// PatientDirectory is the slice of the patient repository this service
// needs: existence checks and contact details for notifications.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// StaffDirectory resolves doctors.
type StaffDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type notifier interface {
	SendAsync(templateID, recipient string, data map[string]string)
}

type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type Service struct {
	appointments AppointmentRepository
	patients     PatientDirectory
	staff        StaffDirectory
	notify       notifier
	audit        auditor
}

func NewService(appointments AppointmentRepository, patients PatientDirectory, staff StaffDirectory, n notifier, a auditor) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		staff:        staff,
		notify:       n,
		audit:        a,
	}
}

type CreateInput struct {
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	if in.ScheduledAt.IsZero() {
		return nil, apperror.Validation("scheduled_at is required")
	}
	if in.ScheduledAt.Before(time.Now()) {
		return nil, apperror.Validation("scheduled_at must be in the future")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperror.Validation("reason is required")
	}
	if err := ensure.Exists(ctx, s.patients, in.PatientID, "patient"); err != nil {
		return nil, err
	}
	if err := ensure.Exists(ctx, s.staff, in.DoctorID, "doctor"); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		ScheduledAt: in.ScheduledAt,
		Reason:      strings.TrimSpace(in.Reason),
		Notes:       in.Notes,
		Status:      StatusPending,
	}
	if actorID != uuid.Nil {
		a.CreatedBy = &actorID
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, apperror.Internal(err)
	}

	s.notifyPatient(ctx, a, notify.TemplateAppointmentBooked)
	s.audit.RecordAsync("appointment.create", "appointment", a.ID.String(), actorID, actorRole, map[string]interface{}{
		"patient_id": a.PatientID.String(),
		"doctor_id":  a.DoctorID.String(),
	})
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, apperror.Internal(err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	items, total, err := s.appointments.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

type UpdateInput struct {
	DoctorID    *uuid.UUID `json:"doctor_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Reason      *string    `json:"reason"`
	Notes       *string    `json:"notes"`
	Status      *string    `json:"status"`
}

// Update changes appointment details. Status never moves through here;
// callers must use the transition operations.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	if in.Status != nil {
		return nil, apperror.Validation("status cannot be changed through update; use the transition endpoints")
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DoctorID != nil {
		if err := ensure.Exists(ctx, s.staff, *in.DoctorID, "doctor"); err != nil {
			return nil, err
		}
		a.DoctorID = *in.DoctorID
	}
	if in.ScheduledAt != nil {
		if in.ScheduledAt.Before(time.Now()) {
			return nil, apperror.Validation("scheduled_at must be in the future")
		}
		a.ScheduledAt = *in.ScheduledAt
	}
	if in.Reason != nil {
		if strings.TrimSpace(*in.Reason) == "" {
			return nil, apperror.Validation("reason cannot be empty")
		}
		a.Reason = strings.TrimSpace(*in.Reason)
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}

	if err := s.appointments.Update(ctx, a); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("appointment.update", "appointment", id.String(), actorID, actorRole, nil)
	return a, nil
}

// Approve moves PENDING to CONFIRMED. Approving a CONFIRMED (or
// terminal) appointment is a conflict.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, map[string]bool{StatusPending: true},
		"appointment.approve", actorID, actorRole)
}

// Complete moves CONFIRMED to COMPLETED.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, map[string]bool{StatusConfirmed: true},
		"appointment.complete", actorID, actorRole)
}

// Cancel moves PENDING or CONFIRMED to CANCELLED and notifies the
// patient.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	a, err := s.transition(ctx, id, StatusCancelled, map[string]bool{StatusPending: true, StatusConfirmed: true},
		"appointment.cancel", actorID, actorRole)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, a, notify.TemplateAppointmentCancelled)
	return a, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string, from map[string]bool, action string, actorID uuid.UUID, actorRole string) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !from[a.Status] {
		return nil, apperror.Conflict("cannot move appointment from " + a.Status + " to " + to)
	}
	prev := a.Status
	a.Status = to

	if err := s.appointments.Update(ctx, a); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync(action, "appointment", id.String(), actorID, actorRole, map[string]interface{}{
		"from": prev,
		"to":   to,
	})
	return a, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	if err := s.appointments.SoftDelete(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("appointment")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("appointment.delete", "appointment", id.String(), actorID, actorRole, nil)
	return nil
}

// notifyPatient renders the mail with patient and doctor names. Lookup
// failures skip the notification; the operation already succeeded.
func (s *Service) notifyPatient(ctx context.Context, a *Appointment, templateID string) {
	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil || p.Email == "" {
		return
	}
	doctorName := ""
	if doc, err := s.staff.GetByID(ctx, a.DoctorID); err == nil {
		doctorName = doc.FullName
	}
	s.notify.SendAsync(templateID, p.Email, map[string]string{
		"patient_name": p.FullName(),
		"doctor_name":  doctorName,
		"date":         a.ScheduledAt.Format("2006-01-02"),
		"time":         a.ScheduledAt.Format("15:04"),
	})
}
